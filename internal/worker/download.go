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
	"clipforge/internal/parser"
	"clipforge/internal/pool"
	"clipforge/internal/storage"
	"clipforge/internal/supervisor"
)

// SupervisorRunFunc matches supervisor.Run's signature, injectable so tests
// can drive the worker bodies without spawning a real subprocess.
type SupervisorRunFunc func(ctx context.Context, spec supervisor.Spec) (supervisor.Result, error)

// DownloadDeps wires a Download driver to its collaborators.
type DownloadDeps struct {
	Cache  *cache.Cache[mediaid.ID, *DownloadState]
	Pool   *pool.Pool
	Store  *storage.Store
	Logger *slog.Logger

	DownloaderBinaryPath string
	FFmpegBinaryPath     string
	DownloadDir          string

	// Limiter paces downloader spawns; nil disables pacing.
	Limiter *rate.Limiter
	// RunSupervisor defaults to supervisor.Run; tests override it.
	RunSupervisor SupervisorRunFunc
}

// Download is the Stage-1 driver: one TryStart call per identifier.
type Download struct {
	driver *stageDriver[mediaid.ID, storage.DownloadRow, *DownloadState]
}

// NewDownload builds a Download driver from its dependencies.
func NewDownload(deps DownloadDeps) *Download {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	runFn := deps.RunSupervisor
	if runFn == nil {
		runFn = supervisor.Run
	}

	d := &stageDriver[mediaid.ID, storage.DownloadRow, *DownloadState]{
		cache:   deps.Cache,
		pool:    deps.Pool,
		logger:  deps.Logger,
		newZero: func() *DownloadState { return NewDownloadState() },
		selectRow: func(id mediaid.ID) (storage.DownloadRow, bool, error) {
			return deps.Store.SelectDownload(id)
		},
		rowStatus: func(r storage.DownloadRow) mediaid.WorkerStatus { return r.WorkerStatus() },
		rowHasOutput: func(r storage.DownloadRow) (string, bool) {
			return r.AudioPath, r.AudioPath != ""
		},
		insertRow: func(id mediaid.ID) error { return deps.Store.InsertDownload(id) },
		run: func(ctx context.Context, id mediaid.ID, cell *cache.Cell[*DownloadState]) (string, error) {
			return runDownload(ctx, id, cell, deps, runFn)
		},
		commit: func(id mediaid.ID, status mediaid.WorkerStatus, audioPath string) {
			if _, err := deps.Store.SelectAndModifyDownload(id, func(r *storage.DownloadRow) {
				r.Status = int(status)
				r.AudioPath = audioPath
			}); err != nil {
				deps.Logger.Error("failed to commit download row", "id", id.String(), "error", err)
			}
		},
	}
	return &Download{driver: d}
}

// TryStart implements the start protocol for a download.
func (d *Download) TryStart(ctx context.Context, id mediaid.ID) (mediaid.WorkerStatus, error) {
	return d.driver.TryStart(ctx, id)
}

// State returns a snapshot of id's cell state, or (nil, false) if untouched.
func (d *Download) State(id mediaid.ID) (*DownloadState, bool) {
	return d.driver.State(id)
}

// ResetIfNotBusy clears id's cell back to None unless a worker is in flight.
func (d *Download) ResetIfNotBusy(id mediaid.ID) bool {
	return d.driver.ResetIfNotBusy(id)
}

func downloaderArgs(url, ffmpegBinaryPath, outputFormat string) []string {
	return []string{
		url,
		"--extract-audio",
		"--format", "bestaudio",
		"--no-continue",
		"--no-simulate",
		"--ffmpeg-location", ffmpegBinaryPath,
		"--progress", "--newline",
		"--progress-template",
		"@[progress] eta=%(progress.eta)d,elapsed=%(progress.elapsed)d," +
			"downloaded_bytes=%(progress.downloaded_bytes)d,total_bytes=%(progress.total_bytes)d," +
			"speed=%(progress.speed)d",
		"--output", outputFormat,
		"--print", "after_move:@[after-move-path] %(filename)s",
		"--verbose",
	}
}

func runDownload(ctx context.Context, id mediaid.ID, cell *cache.Cell[*DownloadState], deps DownloadDeps, runFn SupervisorRunFunc) (string, error) {
	systemLogPath := filepath.Join(deps.DownloadDir, id.String()+".system.log")
	stdoutLogPath := filepath.Join(deps.DownloadDir, id.String()+".stdout.log")
	stderrLogPath := filepath.Join(deps.DownloadDir, id.String()+".stderr.log")

	systemLog, err := os.Create(systemLogPath)
	if err != nil {
		deps.Logger.Error("failed to create system log", "id", id.String(), "error", err)
		return "", fmt.Errorf("create system log: %w", err)
	}
	defer systemLog.Close()

	cell.Lock()
	st := cell.State()
	st.SetStatus(mediaid.StatusRunning)
	cell.SetState(st)
	cell.Broadcast()
	cell.Unlock()

	if _, err := deps.Store.SelectAndModifyDownload(id, func(r *storage.DownloadRow) {
		r.Status = int(mediaid.StatusRunning)
		r.SystemLogPath = systemLogPath
		r.StdoutLogPath = stdoutLogPath
		r.StderrLogPath = stderrLogPath
	}); err != nil {
		return "", fmt.Errorf("mark running: %w", err)
	}

	outputTemplate := filepath.Join(deps.DownloadDir, "%(id)s.%(ext)s")
	url := "https://www.youtube.com/watch?v=" + id.String()
	args := downloaderArgs(url, deps.FFmpegBinaryPath, outputTemplate)

	var outputPath string
	result, runErr := runFn(ctx, supervisor.Spec{
		Binary:        deps.DownloaderBinaryPath,
		Args:          args,
		StdoutLogPath: stdoutLogPath,
		StderrLogPath: stderrLogPath,
		Limiter:       deps.Limiter,
		OnStdout: func(line string) error {
			ev, ok := parser.ParseDownloaderStdout(line)
			if !ok {
				return nil
			}
			switch e := ev.(type) {
			case parser.DownloadProgress:
				cell.Lock()
				cell.State().mergeProgress(e)
				cell.Broadcast()
				cell.Unlock()
			case parser.OutputPath:
				outputPath = string(e)
			}
			return nil
		},
		OnStderr: func(line string) error {
			ev, ok := parser.ParseDownloaderStderr(line)
			if !ok {
				return nil
			}
			switch e := ev.(type) {
			case parser.UsageError:
				return UsageError{Message: string(e)}
			case parser.MissingContent:
				return MissingContentError{ID: string(e)}
			}
			return nil
		},
	})
	if runErr != nil {
		fmt.Fprintf(systemLog, "[error] downloader worker failed: %v\n", runErr)
		return "", runErr
	}
	if !result.Success {
		fmt.Fprintf(systemLog, "[error] downloader exited with code %d\n", result.ExitCode)
		return "", fmt.Errorf("downloader exited with code %d", result.ExitCode)
	}
	if outputPath == "" {
		return "", ErrMissingOutputPath
	}
	if _, statErr := os.Stat(outputPath); statErr != nil {
		return "", MissingOutputFileError{Path: outputPath}
	}
	return outputPath, nil
}
