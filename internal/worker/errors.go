package worker

import (
	"errors"
	"fmt"
)

// UsageError is a fatal CLI usage complaint surfaced from a subprocess's
// stderr (bad flags, malformed URL) rather than a content problem.
type UsageError struct{ Message string }

func (e UsageError) Error() string { return fmt.Sprintf("usage error: %s", e.Message) }

// MissingContentError reports that the requested identifier does not
// resolve to anything downloadable.
type MissingContentError struct{ ID string }

func (e MissingContentError) Error() string { return fmt.Sprintf("missing content: %s", e.ID) }

// MissingOutputFileError reports that a subprocess exited successfully but
// the output file it was supposed to produce isn't on disk.
type MissingOutputFileError struct{ Path string }

func (e MissingOutputFileError) Error() string { return fmt.Sprintf("missing output file: %s", e.Path) }

var (
	// ErrMissingOutputPath is returned when the downloader never printed its
	// final output path line before exiting.
	ErrMissingOutputPath = errors.New("worker: downloader did not report an output path")
	// ErrDownloadWorkerFailed is returned to a transcode worker when the
	// download it depends on finished in a Failed state.
	ErrDownloadWorkerFailed = errors.New("worker: download worker failed")
	// ErrDownloadPathMissing is returned when the Stage-1 row has no
	// recorded audio path to transcode from.
	ErrDownloadPathMissing = errors.New("worker: download worker recorded no output path")
)

// DownloadFileMissingError reports that the Stage-1 row's recorded path
// does not exist on disk.
type DownloadFileMissingError struct{ Path string }

func (e DownloadFileMissingError) Error() string { return fmt.Sprintf("download file missing: %s", e.Path) }
