package storage

import (
	"encoding/json"

	"clipforge/internal/mediaid"
)

// DownloadRow is the Stage-1 persisted record: primary key = identifier.
type DownloadRow struct {
	ID            string `gorm:"column:id;primaryKey" json:"id"`
	Status        int    `gorm:"column:status;default:0" json:"-"`
	UnixTime      int64  `gorm:"column:unix_time" json:"unix_time"`
	AudioPath     string `gorm:"column:audio_path" json:"audio_path,omitempty"`
	StdoutLogPath string `gorm:"column:stdout_log_path" json:"stdout_log_path,omitempty"`
	StderrLogPath string `gorm:"column:stderr_log_path" json:"stderr_log_path,omitempty"`
	SystemLogPath string `gorm:"column:system_log_path" json:"system_log_path,omitempty"`
}

// TableName pins the table name so a Go-side rename of the type doesn't migrate
// the schema.
func (DownloadRow) TableName() string { return "download_rows" }

// WorkerStatus decodes the persisted status column.
func (r DownloadRow) WorkerStatus() mediaid.WorkerStatus { return mediaid.WorkerStatus(r.Status) }

// MarshalJSON renders the row with its status as the canonical string rather
// than the raw persisted int.
func (r DownloadRow) MarshalJSON() ([]byte, error) {
	type alias DownloadRow
	return json.Marshal(struct {
		alias
		Status string `json:"status"`
	}{alias: alias(r), Status: r.WorkerStatus().String()})
}

// TranscodeRow is the Stage-2 persisted record: primary key = (identifier, format).
type TranscodeRow struct {
	ID            string `gorm:"column:id;primaryKey" json:"id"`
	Format        string `gorm:"column:format;primaryKey" json:"format"`
	Status        int    `gorm:"column:status;default:0" json:"-"`
	UnixTime      int64  `gorm:"column:unix_time" json:"unix_time"`
	AudioPath     string `gorm:"column:audio_path" json:"audio_path,omitempty"`
	StdoutLogPath string `gorm:"column:stdout_log_path" json:"stdout_log_path,omitempty"`
	StderrLogPath string `gorm:"column:stderr_log_path" json:"stderr_log_path,omitempty"`
	SystemLogPath string `gorm:"column:system_log_path" json:"system_log_path,omitempty"`
}

// TableName pins the table name so a Go-side rename of the type doesn't migrate
// the schema.
func (TranscodeRow) TableName() string { return "transcode_rows" }

// WorkerStatus decodes the persisted status column.
func (r TranscodeRow) WorkerStatus() mediaid.WorkerStatus { return mediaid.WorkerStatus(r.Status) }

// MarshalJSON renders the row with its status as the canonical string rather
// than the raw persisted int.
func (r TranscodeRow) MarshalJSON() ([]byte, error) {
	type alias TranscodeRow
	return json.Marshal(struct {
		alias
		Status string `json:"status"`
	}{alias: alias(r), Status: r.WorkerStatus().String()})
}

// AppSetting stores key-value application settings that outlive process
// restarts.
type AppSetting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// TableName specifies the table name for AppSetting.
func (AppSetting) TableName() string { return "app_settings" }
