// Package sysinfo reports host resource usage and on-demand network
// throughput for the diagnostics endpoints.
package sysinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/showwin/speedtest-go/speedtest"
)

// Health is a point-in-time snapshot of host resource usage plus process
// uptime.
type Health struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsedBytes  uint64  `json:"mem_used_bytes"`
	MemTotalBytes uint64  `json:"mem_total_bytes"`
	DiskUsedBytes uint64  `json:"disk_used_bytes"`
	DiskFreeBytes uint64  `json:"disk_free_bytes"`
}

// Reporter builds Health snapshots relative to a fixed process start time
// and reports disk usage for one fixed volume (the data directory's).
type Reporter struct {
	startedAt time.Time
	volume    string
}

// NewReporter returns a Reporter measuring uptime from now and disk usage
// for the volume containing dataDir.
func NewReporter(dataDir string) *Reporter {
	return &Reporter{startedAt: time.Now(), volume: dataDir}
}

// Snapshot reports current host resource usage.
func (r *Reporter) Snapshot() (Health, error) {
	h := Health{UptimeSeconds: time.Since(r.startedAt).Seconds()}

	percents, err := cpu.Percent(200*time.Millisecond, false)
	if err == nil && len(percents) > 0 {
		h.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		h.MemUsedBytes = vm.Used
		h.MemTotalBytes = vm.Total
	}

	if du, err := disk.Usage(r.volume); err == nil {
		h.DiskUsedBytes = du.Used
		h.DiskFreeBytes = du.Free
	}

	return h, nil
}

// SpeedTestResult is the outcome of an on-demand network throughput probe.
type SpeedTestResult struct {
	DownloadMbps float64 `json:"download_mbps"`
	UploadMbps   float64 `json:"upload_mbps"`
	PingMs       int64   `json:"ping_ms"`
	ServerName   string  `json:"server_name"`
	ISP          string  `json:"isp"`
}

// RunSpeedTest probes throughput against the nearest available server.
// Useful for telling apart a network-bound download from a target-bound
// one when a pipeline stage runs slower than expected.
func RunSpeedTest(ctx context.Context) (SpeedTestResult, error) {
	user, err := speedtest.FetchUserInfo()
	if err != nil {
		return SpeedTestResult{}, fmt.Errorf("no internet connection: %w", err)
	}

	serverList, err := speedtest.FetchServers()
	if err != nil {
		return SpeedTestResult{}, fmt.Errorf("fetch speed test servers: %w", err)
	}

	targets, err := serverList.FindServer([]int{})
	if err != nil || len(targets) == 0 {
		return SpeedTestResult{}, fmt.Errorf("no speed test servers available")
	}
	server := targets[0]

	if err := server.PingTestContext(ctx, nil); err != nil {
		return SpeedTestResult{}, fmt.Errorf("ping test: %w", err)
	}
	if err := server.DownloadTestContext(ctx); err != nil {
		return SpeedTestResult{}, fmt.Errorf("download test: %w", err)
	}
	if err := server.UploadTestContext(ctx); err != nil {
		return SpeedTestResult{}, fmt.Errorf("upload test: %w", err)
	}

	return SpeedTestResult{
		DownloadMbps: float64(server.DLSpeed) / 1000 / 1000 * 8,
		UploadMbps:   float64(server.ULSpeed) / 1000 / 1000 * 8,
		PingMs:       server.Latency.Milliseconds(),
		ServerName:   server.Name,
		ISP:          user.Isp,
	}, nil
}
