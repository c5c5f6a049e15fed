package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"clipforge/internal/cache"
	"clipforge/internal/mediaid"
	"clipforge/internal/metadata"
	"clipforge/internal/parser"
	"clipforge/internal/pool"
	"clipforge/internal/storage"
	"clipforge/internal/supervisor"
)

// TranscodeDeps wires a Transcode driver to its collaborators.
type TranscodeDeps struct {
	Cache         *cache.Cache[TranscodeKey, *TranscodeState]
	DownloadCache *cache.Cache[mediaid.ID, *DownloadState]
	Pool          *pool.Pool
	Store         *storage.Store
	Logger        *slog.Logger

	TranscoderBinaryPath string
	TranscodeDir         string
	ThreadCount          int

	// MetadataProvider is optional; a nil provider means transcodes proceed
	// without tags or embedded cover art.
	MetadataProvider metadata.Provider

	Limiter       *rate.Limiter
	RunSupervisor SupervisorRunFunc
}

// Transcode is the Stage-2 driver: one TryStart call per (identifier, format).
type Transcode struct {
	driver *stageDriver[TranscodeKey, storage.TranscodeRow, *TranscodeState]
}

// NewTranscode builds a Transcode driver from its dependencies.
func NewTranscode(deps TranscodeDeps) *Transcode {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	runFn := deps.RunSupervisor
	if runFn == nil {
		runFn = supervisor.Run
	}

	d := &stageDriver[TranscodeKey, storage.TranscodeRow, *TranscodeState]{
		cache:   deps.Cache,
		pool:    deps.Pool,
		logger:  deps.Logger,
		newZero: func() *TranscodeState { return NewTranscodeState() },
		selectRow: func(key TranscodeKey) (storage.TranscodeRow, bool, error) {
			return deps.Store.SelectTranscode(key.ID, key.Format)
		},
		rowStatus: func(r storage.TranscodeRow) mediaid.WorkerStatus { return r.WorkerStatus() },
		rowHasOutput: func(r storage.TranscodeRow) (string, bool) {
			return r.AudioPath, r.AudioPath != ""
		},
		insertRow: func(key TranscodeKey) error {
			return deps.Store.InsertTranscode(key.ID, key.Format)
		},
		run: func(ctx context.Context, key TranscodeKey, cell *cache.Cell[*TranscodeState]) (string, error) {
			return runTranscode(ctx, key, cell, deps, runFn)
		},
		commit: func(key TranscodeKey, status mediaid.WorkerStatus, audioPath string) {
			if _, err := deps.Store.SelectAndModifyTranscode(key.ID, key.Format, func(r *storage.TranscodeRow) {
				r.Status = int(status)
				r.AudioPath = audioPath
			}); err != nil {
				deps.Logger.Error("failed to commit transcode row", "key", key.String(), "error", err)
			}
		},
	}
	return &Transcode{driver: d}
}

// TryStart implements the start protocol for a transcode.
func (t *Transcode) TryStart(ctx context.Context, key TranscodeKey) (mediaid.WorkerStatus, error) {
	return t.driver.TryStart(ctx, key)
}

// State returns a snapshot of key's cell state, or (nil, false) if untouched.
func (t *Transcode) State(key TranscodeKey) (*TranscodeState, bool) {
	return t.driver.State(key)
}

// ResetIfNotBusy clears key's cell back to None unless a worker is in flight.
func (t *Transcode) ResetIfNotBusy(key TranscodeKey) bool {
	return t.driver.ResetIfNotBusy(key)
}

// waitForDownload blocks while the Stage-1 cell for id is None, Queued or
// Running, returning an error if it finished Failed. The cell reference is
// snapshotted once up front: the caller never re-acquires the shard map, so
// a concurrent reset of the same key doesn't reattach this waiter to a
// different cell mid-wait.
func waitForDownload(ctx context.Context, downloadCache *cache.Cache[mediaid.ID, *DownloadState], id mediaid.ID) error {
	cell := downloadCache.EntryOrDefault(id)

	cell.Lock()
	defer cell.Unlock()
	for {
		status := cell.State().Status()
		if status == mediaid.StatusFinished {
			return nil
		}
		if status == mediaid.StatusFailed {
			return ErrDownloadWorkerFailed
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		cell.Wait()
	}
}

func transcoderArgs(sourcePath string, thumbnailPath string, format mediaid.Format, threadCount int, info *metadata.Info, destPath string) []string {
	args := []string{"-i", sourcePath}
	hasThumbnail := thumbnailPath != "" && format.CanEmbedThumbnail()
	if hasThumbnail {
		args = append(args, "-i", thumbnailPath)
	}
	args = append(args, "-map", "0:a")
	if hasThumbnail {
		args = append(args, "-map", "1")
	}

	if info != nil {
		if info.Title != "" {
			args = append(args, "-metadata", "title="+info.Title)
		}
		if info.ChannelTitle != "" {
			args = append(args, "-metadata", "artist="+info.ChannelTitle)
		}
		if info.Description != "" {
			args = append(args, "-metadata", "description="+info.Description)
		}
		if info.PublishedAt != "" {
			args = append(args, "-metadata", "date="+info.PublishedAt)
		}
		if format == mediaid.FormatMP3 {
			args = append(args, "-id3v2_version", "3")
		}
	}
	if hasThumbnail {
		args = append(args, "-disposition:0", "attached_pic")
	}

	args = append(args, "-threads", fmt.Sprint(threadCount))
	args = append(args, "-progress", "-", "-y", destPath)
	return args
}

func runTranscode(ctx context.Context, key TranscodeKey, cell *cache.Cell[*TranscodeState], deps TranscodeDeps, runFn SupervisorRunFunc) (string, error) {
	if err := waitForDownload(ctx, deps.DownloadCache, key.ID); err != nil {
		return "", err
	}

	downloadRow, ok, err := deps.Store.SelectDownload(key.ID)
	if err != nil {
		return "", fmt.Errorf("select download row: %w", err)
	}
	if !ok || downloadRow.AudioPath == "" {
		return "", ErrDownloadPathMissing
	}
	if _, statErr := os.Stat(downloadRow.AudioPath); statErr != nil {
		return "", DownloadFileMissingError{Path: downloadRow.AudioPath}
	}

	systemLogPath := filepath.Join(deps.TranscodeDir, key.String()+".system.log")
	stdoutLogPath := filepath.Join(deps.TranscodeDir, key.String()+".stdout.log")
	stderrLogPath := filepath.Join(deps.TranscodeDir, key.String()+".stderr.log")

	systemLog, err := os.Create(systemLogPath)
	if err != nil {
		return "", fmt.Errorf("create system log: %w", err)
	}
	defer systemLog.Close()

	cell.Lock()
	st := cell.State()
	st.SetStatus(mediaid.StatusRunning)
	cell.SetState(st)
	cell.Broadcast()
	cell.Unlock()

	if _, err := deps.Store.SelectAndModifyTranscode(key.ID, key.Format, func(r *storage.TranscodeRow) {
		r.Status = int(mediaid.StatusRunning)
		r.SystemLogPath = systemLogPath
		r.StdoutLogPath = stdoutLogPath
		r.StderrLogPath = stderrLogPath
	}); err != nil {
		return "", fmt.Errorf("mark running: %w", err)
	}

	var info *metadata.Info
	var thumbnailPath string
	if deps.MetadataProvider != nil {
		if looked, lookupErr := deps.MetadataProvider.Lookup(ctx, key.ID.String()); lookupErr == nil {
			info = &looked
			if best, ok := looked.BestThumbnail(); ok {
				thumbnailPath = best.URL
			}
		} else {
			deps.Logger.Warn("metadata lookup failed, continuing without tags", "id", key.ID.String(), "error", lookupErr)
		}
	}

	destPath := filepath.Join(deps.TranscodeDir, key.ID.String()+"."+key.Format.String())
	args := transcoderArgs(downloadRow.AudioPath, thumbnailPath, key.Format, deps.ThreadCount, info, destPath)

	result, runErr := runFn(ctx, supervisor.Spec{
		Binary:        deps.TranscoderBinaryPath,
		Args:          args,
		StdoutLogPath: stdoutLogPath,
		StderrLogPath: stderrLogPath,
		Limiter:       deps.Limiter,
		OnStderr: func(line string) error {
			ev, ok := parser.ParseTranscoderStderr(line)
			if !ok {
				return nil
			}
			switch e := ev.(type) {
			case parser.TranscodeProgress:
				cell.Lock()
				cell.State().mergeProgress(e)
				cell.Broadcast()
				cell.Unlock()
			case parser.TranscodeSourceInfo:
				cell.Lock()
				cell.State().mergeSourceInfo(e)
				cell.Broadcast()
				cell.Unlock()
			}
			return nil
		},
	})
	if runErr != nil {
		fmt.Fprintf(systemLog, "[error] transcoder worker failed: %v\n", runErr)
		return "", runErr
	}
	if !result.Success {
		fmt.Fprintf(systemLog, "[error] transcoder exited with code %d\n", result.ExitCode)
		return "", fmt.Errorf("transcoder exited with code %d", result.ExitCode)
	}
	if _, statErr := os.Stat(destPath); statErr != nil {
		return "", MissingOutputFileError{Path: destPath}
	}
	return destPath, nil
}
