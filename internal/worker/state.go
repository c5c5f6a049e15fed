package worker

import (
	"time"

	"clipforge/internal/mediaid"
	"clipforge/internal/parser"
)

// lifecycleState is the shape the generic stage driver needs from a cell's
// state: the shared WorkerStatus lifecycle plus a fail-reason slot.
type lifecycleState interface {
	Status() mediaid.WorkerStatus
	SetStatus(mediaid.WorkerStatus)
	SetFailReason(string)
}

// DownloadState is the Stage-1 cache cell contents.
type DownloadState struct {
	WorkerStatus mediaid.WorkerStatus
	FileCached   bool
	FailReason   string

	StartTimeUnix int64
	EndTimeUnix   int64

	ETASeconds      *uint64
	ElapsedSeconds  *uint64
	DownloadedBytes *uint64
	TotalBytes      *uint64
	SpeedBytes      *uint64
}

// NewDownloadState returns a fresh cell state in the None status, timestamps
// set to now. TryStart sets a copy to Queued when it starts work, and a
// failed start rolls the cell back to this state.
func NewDownloadState() *DownloadState {
	now := time.Now().Unix()
	return &DownloadState{StartTimeUnix: now, EndTimeUnix: now}
}

func (s *DownloadState) Status() mediaid.WorkerStatus      { return s.WorkerStatus }
func (s *DownloadState) SetFailReason(reason string)       { s.FailReason = reason }
func (s *DownloadState) SetStatus(status mediaid.WorkerStatus) {
	s.WorkerStatus = status
	s.EndTimeUnix = time.Now().Unix()
}

// mergeProgress copies in any non-nil fields from a freshly parsed progress
// event, leaving previously known fields untouched when the new event omits
// them (the downloader's template blanks a field rather than repeating the
// last known value).
func (s *DownloadState) mergeProgress(p parser.DownloadProgress) {
	s.EndTimeUnix = time.Now().Unix()
	if p.ETASeconds != nil {
		s.ETASeconds = p.ETASeconds
	}
	if p.ElapsedSeconds != nil {
		s.ElapsedSeconds = p.ElapsedSeconds
	}
	if p.DownloadedBytes != nil {
		s.DownloadedBytes = p.DownloadedBytes
	}
	if p.TotalBytes != nil {
		s.TotalBytes = p.TotalBytes
	}
	if p.SpeedBytes != nil {
		s.SpeedBytes = p.SpeedBytes
	}
}

// TranscodeKey identifies a Stage-2 cell: one identifier transcoded to one
// format.
type TranscodeKey struct {
	ID     mediaid.ID
	Format mediaid.Format
}

func (k TranscodeKey) String() string {
	return k.ID.String() + "." + k.Format.String()
}

// TranscodeState is the Stage-2 cache cell contents.
type TranscodeState struct {
	WorkerStatus mediaid.WorkerStatus
	FileCached   bool
	FailReason   string

	StartTimeUnix int64
	EndTimeUnix   int64

	SourceDurationMilliseconds  *uint64
	SourceStartTimeMilliseconds *uint64
	SourceSpeedBits             *uint64

	TranscodeDurationMilliseconds *uint64
	TranscodeSizeBytes            *uint64
	TranscodeSpeedBits            *uint64
	TranscodeSpeedFactor          *float64
}

// NewTranscodeState returns a fresh cell state in the None status.
func NewTranscodeState() *TranscodeState {
	now := time.Now().Unix()
	return &TranscodeState{StartTimeUnix: now, EndTimeUnix: now}
}

func (s *TranscodeState) Status() mediaid.WorkerStatus          { return s.WorkerStatus }
func (s *TranscodeState) SetFailReason(reason string)           { s.FailReason = reason }
func (s *TranscodeState) SetStatus(status mediaid.WorkerStatus) {
	s.WorkerStatus = status
	s.EndTimeUnix = time.Now().Unix()
}

// mergeProgress applies a parsed transcoder progress line, but only when it
// describes the primary audio stream (frame == 0): ffmpeg also emits
// progress for the bound thumbnail stream, which is meaningless here and
// must be discarded.
func (s *TranscodeState) mergeProgress(p parser.TranscodeProgress) {
	if p.Frame == nil || *p.Frame != 0 {
		return
	}
	s.EndTimeUnix = time.Now().Unix()
	if p.SizeBytes != nil {
		s.TranscodeSizeBytes = p.SizeBytes
	}
	if p.TotalTimeTranscoded != nil {
		ms := p.TotalTimeTranscoded.ToMilliseconds()
		s.TranscodeDurationMilliseconds = &ms
	}
	if p.SpeedBits != nil {
		s.TranscodeSpeedBits = p.SpeedBits
	}
	if p.SpeedFactor != nil {
		s.TranscodeSpeedFactor = p.SpeedFactor
	}
}

// mergeSourceInfo applies a parsed "Duration: ..." stream summary line, but
// only when its duration is at least as long as the longest one seen so
// far: ffmpeg prints one such line per input stream, including the bound
// thumbnail stream, whose duration is shorter and uninformative.
func (s *TranscodeState) mergeSourceInfo(info parser.TranscodeSourceInfo) {
	if info.Duration != nil && s.SourceDurationMilliseconds != nil {
		newMs := info.Duration.ToMilliseconds()
		if newMs < *s.SourceDurationMilliseconds {
			return
		}
	}
	s.EndTimeUnix = time.Now().Unix()
	if info.Duration != nil {
		ms := info.Duration.ToMilliseconds()
		s.SourceDurationMilliseconds = &ms
	}
	if info.StartTime != nil {
		ms := info.StartTime.ToMilliseconds()
		s.SourceStartTimeMilliseconds = &ms
	}
	if info.SpeedBits != nil {
		s.SourceSpeedBits = info.SpeedBits
	}
}
