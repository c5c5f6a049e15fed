package httpapi

import (
	"net/http"

	"clipforge/internal/sysinfo"
)

type healthResponse struct {
	UptimeSeconds       float64 `json:"uptime_seconds,omitempty"`
	CPUPercent          float64 `json:"cpu_percent,omitempty"`
	MemUsedBytes        uint64  `json:"mem_used_bytes,omitempty"`
	MemTotalBytes       uint64  `json:"mem_total_bytes,omitempty"`
	DiskUsedBytes       uint64  `json:"disk_used_bytes,omitempty"`
	DiskFreeBytes       uint64  `json:"disk_free_bytes,omitempty"`
	DownloadQueueDepth  int     `json:"download_queue_depth"`
	TranscodeQueueDepth int     `json:"transcode_queue_depth"`
}

func (s *Server) handleDiagnosticsHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{}
	if s.sysinfo != nil {
		snap, err := s.sysinfo.Snapshot()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "host snapshot: %v", err)
			return
		}
		resp.UptimeSeconds = snap.UptimeSeconds
		resp.CPUPercent = snap.CPUPercent
		resp.MemUsedBytes = snap.MemUsedBytes
		resp.MemTotalBytes = snap.MemTotalBytes
		resp.DiskUsedBytes = snap.DiskUsedBytes
		resp.DiskFreeBytes = snap.DiskFreeBytes
	}
	if s.downloadPool != nil {
		resp.DownloadQueueDepth = s.downloadPool.QueueLen()
	}
	if s.transcodePool != nil {
		resp.TranscodeQueueDepth = s.transcodePool.QueueLen()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDiagnosticsSpeedTest(w http.ResponseWriter, r *http.Request) {
	result, err := sysinfo.RunSpeedTest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "speed test: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
