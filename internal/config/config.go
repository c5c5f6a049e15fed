// Package config parses process start-up flags into the settings the
// server daemon needs to seed its data directories and bind its listener.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds every setting the daemon needs before it can start serving.
type Config struct {
	URL  string
	Port int

	WorkerThreadCount    int
	TranscodeThreadCount int

	DownloaderBinaryPath string
	FFmpegBinaryPath     string

	DataDir      string
	DownloadDir  string
	TranscodeDir string
}

// Default returns the configuration a bare invocation (no flags) produces.
func Default() Config {
	root := "."
	data := filepath.Join(root, "data")
	return Config{
		URL:                  "0.0.0.0",
		Port:                 8080,
		WorkerThreadCount:    runtime.NumCPU(),
		TranscodeThreadCount: runtime.NumCPU(),
		DownloaderBinaryPath: filepath.Join(root, "bin", "yt-dlp"),
		FFmpegBinaryPath:     filepath.Join(root, "bin", "ffmpeg"),
		DataDir:              data,
		DownloadDir:          filepath.Join(data, "downloads"),
		TranscodeDir:         filepath.Join(data, "transcode"),
	}
}

// Load reads args (typically os.Args[1:]) into a Config, starting from
// Default() and overriding whatever flags are present. A worker or
// transcode thread count of 0 resolves to the host's available
// parallelism, matching an unset count rather than a literal zero pool.
func Load(args []string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("clipforge", flag.ContinueOnError)
	fs.StringVar(&cfg.URL, "url", cfg.URL, "address to bind the HTTP server to")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "port to bind the HTTP server to")
	fs.IntVar(&cfg.WorkerThreadCount, "total-worker-threads", 0, "download worker pool size (0 = available parallelism)")
	fs.IntVar(&cfg.TranscodeThreadCount, "total-transcode-threads", 0, "transcode worker pool size (0 = available parallelism)")
	ytdlpPath := fs.String("ytdlp-binary-path", "", "override the yt-dlp binary path")
	ffmpegPath := fs.String("ffmpeg-binary-path", "", "override the ffmpeg binary path")
	dataDir := fs.String("data-dir", "", "override the root data directory")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.WorkerThreadCount == 0 {
		cfg.WorkerThreadCount = runtime.NumCPU()
	}
	if cfg.TranscodeThreadCount == 0 {
		cfg.TranscodeThreadCount = runtime.NumCPU()
	}
	if *ytdlpPath != "" {
		cfg.DownloaderBinaryPath = *ytdlpPath
	}
	if *ffmpegPath != "" {
		cfg.FFmpegBinaryPath = *ffmpegPath
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
		cfg.DownloadDir = filepath.Join(*dataDir, "downloads")
		cfg.TranscodeDir = filepath.Join(*dataDir, "transcode")
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}

	return cfg, nil
}

// SeedDirectories creates the data, download, and transcode directories if
// they don't already exist.
func (c Config) SeedDirectories() error {
	for _, dir := range []string{c.DataDir, c.DownloadDir, c.TranscodeDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("seed directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath is the sqlite index file's path under the data directory.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "index.db")
}
