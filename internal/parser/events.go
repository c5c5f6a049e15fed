// Package parser turns subprocess output lines into structured progress
// events. Every function here is pure: no parser type carries state across
// calls, so a line can be replayed any number of times and yields the same
// event.
package parser

// DownloadProgress is emitted by the downloader's pinned progress template.
// Fields are nil when the template field came back empty, matching the
// downloader's own "unknown value" convention.
type DownloadProgress struct {
	ETASeconds      *uint64
	ElapsedSeconds  *uint64
	DownloadedBytes *uint64
	TotalBytes      *uint64
	SpeedBytes      *uint64
}

// OutputPath is the final on-disk path reported by the downloader once the
// file has been moved into place.
type OutputPath string

// UsageError is a fatal CLI usage complaint from the downloader (bad flags,
// bad URL shape) rather than a content-availability problem.
type UsageError string

// MissingContent reports that the requested id does not resolve to anything
// downloadable (removed, private, geo-blocked, etc).
type MissingContent string

// TranscodeProgress is one "frame=... size=... time=... speed=..." line from
// the transcoder's stderr stream.
type TranscodeProgress struct {
	Frame               *uint64
	FPS                 *float64
	Q                   *float64
	SizeBytes           *uint64
	TotalTimeTranscoded *Time
	SpeedBits           *uint64
	SpeedFactor         *float64
}

// TranscodeSourceInfo is a "Duration: ..., start: ..., bitrate: ..." line
// describing one of the transcoder's input streams.
type TranscodeSourceInfo struct {
	Duration  *Time
	StartTime *Time
	SpeedBits *uint64
}
