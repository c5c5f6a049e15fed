package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"clipforge/internal/cache"
	"clipforge/internal/config"
	"clipforge/internal/httpapi"
	"clipforge/internal/logger"
	"clipforge/internal/mediaid"
	"clipforge/internal/pool"
	"clipforge/internal/storage"
	"clipforge/internal/sysinfo"
	"clipforge/internal/worker"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		println("invalid configuration:", err.Error())
		os.Exit(1)
	}

	if err := cfg.SeedDirectories(); err != nil {
		println("failed to seed data directories:", err.Error())
		os.Exit(1)
	}

	log, err := logger.New(os.Stdout, filepath.Join(cfg.DataDir, "logs"))
	if err != nil {
		println("failed to initialize logger:", err.Error())
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		log.Error("failed to open index database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.BootCleanup(); err != nil {
		log.Error("failed to clean up stale rows at boot", "error", err)
		os.Exit(1)
	}

	downloadCache := cache.New[mediaid.ID, *worker.DownloadState](func() *worker.DownloadState { return worker.NewDownloadState() })
	transcodeCache := cache.New[worker.TranscodeKey, *worker.TranscodeState](func() *worker.TranscodeState { return worker.NewTranscodeState() })

	downloadPool := pool.New(cfg.WorkerThreadCount, log)
	defer func() {
		downloadPool.Close()
		downloadPool.Wait()
	}()
	transcodePool := pool.New(cfg.TranscodeThreadCount, log)
	defer func() {
		transcodePool.Close()
		transcodePool.Wait()
	}()

	// Politeness pacing for subprocess spawns against the same external
	// host: one new downloader process at most every two seconds.
	spawnLimiter := rate.NewLimiter(rate.Every(2*time.Second), 1)

	download := worker.NewDownload(worker.DownloadDeps{
		Cache:                downloadCache,
		Pool:                 downloadPool,
		Store:                store,
		Logger:               log,
		DownloaderBinaryPath: cfg.DownloaderBinaryPath,
		FFmpegBinaryPath:     cfg.FFmpegBinaryPath,
		DownloadDir:          cfg.DownloadDir,
		Limiter:              spawnLimiter,
	})
	transcode := worker.NewTranscode(worker.TranscodeDeps{
		Cache:                transcodeCache,
		DownloadCache:        downloadCache,
		Pool:                 transcodePool,
		Store:                store,
		Logger:               log,
		TranscoderBinaryPath: cfg.FFmpegBinaryPath,
		TranscodeDir:         cfg.TranscodeDir,
		ThreadCount:          cfg.TranscodeThreadCount,
	})

	server := httpapi.NewServer(httpapi.Deps{
		Download:      download,
		Transcode:     transcode,
		Store:         store,
		Logger:        log,
		DownloadPool:  downloadPool,
		TranscodePool: transcodePool,
		Sysinfo:       sysinfo.NewReporter(cfg.DataDir),
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.URL, cfg.Port),
		Handler: server.Router(),
	}

	go func() {
		log.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
		}
	}()

	waitForSignal()
	log.Info("shutting down")
	_ = httpServer.Close()
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}
