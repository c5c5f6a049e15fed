package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clipforge/internal/mediaid"
)

// Store is the embedded single-file relational index: two tables, one per
// stage, opened through gorm over a pure-Go SQLite driver (no cgo).
type Store struct {
	DB *gorm.DB
}

// Open opens (creating if necessary) the index database at path and migrates
// both stage tables plus the settings table.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL;")
	if err := db.AutoMigrate(&DownloadRow{}, &TranscodeRow{}, &AppSetting{}); err != nil {
		return nil, fmt.Errorf("migrate index db: %w", err)
	}
	return &Store{DB: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- Stage-1 (download) operations ---

// InsertDownload creates or overwrites a Queued row for id (INSERT OR REPLACE
// semantics, matching insert_ytdlp_entry).
func (s *Store) InsertDownload(id mediaid.ID) error {
	row := DownloadRow{
		ID:       id.String(),
		Status:   int(mediaid.StatusQueued),
		UnixTime: nowUnix(),
	}
	return s.DB.Save(&row).Error
}

// UpdateDownload writes the full row back (no partial-column update).
func (s *Store) UpdateDownload(row DownloadRow) error {
	return s.DB.Save(&row).Error
}

// SelectDownload returns the row for id, or (zero, false) if absent.
func (s *Store) SelectDownload(id mediaid.ID) (DownloadRow, bool, error) {
	var row DownloadRow
	err := s.DB.First(&row, "id = ?", id.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DownloadRow{}, false, nil
	}
	if err != nil {
		return DownloadRow{}, false, err
	}
	return row, true, nil
}

// SelectAllDownloads returns every Stage-1 row.
func (s *Store) SelectAllDownloads() ([]DownloadRow, error) {
	var rows []DownloadRow
	err := s.DB.Find(&rows).Error
	return rows, err
}

// DeleteDownload removes the row for id, returning the number of rows deleted.
func (s *Store) DeleteDownload(id mediaid.ID) (int64, error) {
	res := s.DB.Delete(&DownloadRow{}, "id = ?", id.String())
	return res.RowsAffected, res.Error
}

// SelectAndModifyDownload reads the row for id, applies mutate in-process, and
// writes it back. No SQL-level atomicity beyond the single UPDATE; callers
// needing mutual exclusion hold the cache cell's lock.
func (s *Store) SelectAndModifyDownload(id mediaid.ID, mutate func(*DownloadRow)) (int64, error) {
	row, ok, err := s.SelectDownload(id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	mutate(&row)
	row.UnixTime = nowUnix()
	if err := s.UpdateDownload(row); err != nil {
		return 0, err
	}
	return 1, nil
}

// --- Stage-2 (transcode) operations ---

// InsertTranscode creates or overwrites a Queued row for (id, format).
func (s *Store) InsertTranscode(id mediaid.ID, format mediaid.Format) error {
	row := TranscodeRow{
		ID:       id.String(),
		Format:   format.String(),
		Status:   int(mediaid.StatusQueued),
		UnixTime: nowUnix(),
	}
	return s.DB.Save(&row).Error
}

// UpdateTranscode writes the full row back.
func (s *Store) UpdateTranscode(row TranscodeRow) error {
	return s.DB.Save(&row).Error
}

// SelectTranscode returns the row for (id, format), or (zero, false) if absent.
func (s *Store) SelectTranscode(id mediaid.ID, format mediaid.Format) (TranscodeRow, bool, error) {
	var row TranscodeRow
	err := s.DB.First(&row, "id = ? AND format = ?", id.String(), format.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TranscodeRow{}, false, nil
	}
	if err != nil {
		return TranscodeRow{}, false, err
	}
	return row, true, nil
}

// SelectAllTranscodes returns every Stage-2 row.
func (s *Store) SelectAllTranscodes() ([]TranscodeRow, error) {
	var rows []TranscodeRow
	err := s.DB.Find(&rows).Error
	return rows, err
}

// DeleteTranscode removes the row for (id, format), returning rows deleted.
func (s *Store) DeleteTranscode(id mediaid.ID, format mediaid.Format) (int64, error) {
	res := s.DB.Delete(&TranscodeRow{}, "id = ? AND format = ?", id.String(), format.String())
	return res.RowsAffected, res.Error
}

// SelectAndModifyTranscode reads the row for (id, format), applies mutate
// in-process, and writes it back.
func (s *Store) SelectAndModifyTranscode(id mediaid.ID, format mediaid.Format, mutate func(*TranscodeRow)) (int64, error) {
	row, ok, err := s.SelectTranscode(id, format)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	mutate(&row)
	row.UnixTime = nowUnix()
	if err := s.UpdateTranscode(row); err != nil {
		return 0, err
	}
	return 1, nil
}

// --- settings ---

// GetString returns a stored setting, or "" if unset.
func (s *Store) GetString(key string) (string, error) {
	var setting AppSetting
	err := s.DB.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// SetString stores or overwrites a setting.
func (s *Store) SetString(key, value string) error {
	return s.DB.Save(&AppSetting{Key: key, Value: value}).Error
}

// BootCleanup rewrites any row still in Queued or Running to None. Those
// states cannot have survived a process restart honestly: their worker
// bodies died with the old process, so they are stale rather than resumable
// (spec §9 open question, resolved in favor of carrying this step).
func (s *Store) BootCleanup() error {
	now := time.Now().Unix()
	if err := s.DB.Model(&DownloadRow{}).
		Where("status IN ?", []int{int(mediaid.StatusQueued), int(mediaid.StatusRunning)}).
		Updates(map[string]any{"status": int(mediaid.StatusNone), "unix_time": now}).Error; err != nil {
		return fmt.Errorf("cleanup download rows: %w", err)
	}
	if err := s.DB.Model(&TranscodeRow{}).
		Where("status IN ?", []int{int(mediaid.StatusQueued), int(mediaid.StatusRunning)}).
		Updates(map[string]any{"status": int(mediaid.StatusNone), "unix_time": now}).Error; err != nil {
		return fmt.Errorf("cleanup transcode rows: %w", err)
	}
	return nil
}

func nowUnix() int64 { return time.Now().Unix() }
