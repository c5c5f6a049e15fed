package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clipforge/internal/cache"
	"clipforge/internal/mediaid"
	"clipforge/internal/pool"
	"clipforge/internal/storage"
	"clipforge/internal/supervisor"
	"clipforge/internal/worker"
)

func setupTestStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&storage.DownloadRow{}, &storage.TranscodeRow{}, &storage.AppSetting{}))
	return &storage.Store{DB: db}
}

// noopRunSupervisor is a fake supervisor run func that immediately succeeds
// without spawning any subprocess. Handler tests only exercise the
// synchronous start protocol, never the worker body's eventual outcome, so
// the worker body's own post-queue failure (no output path) never surfaces
// before the response is recorded.
func noopRunSupervisor(ctx context.Context, spec supervisor.Spec) (supervisor.Result, error) {
	return supervisor.Result{}, nil
}

func newTestServer(t *testing.T) (*Server, *storage.Store, string) {
	t.Helper()
	store := setupTestStore(t)
	dir := t.TempDir()

	downloadPool := pool.New(1, nil)
	transcodePool := pool.New(1, nil)
	t.Cleanup(func() {
		downloadPool.Close()
		transcodePool.Close()
	})

	downloadCache := cache.New[mediaid.ID, *worker.DownloadState](func() *worker.DownloadState { return worker.NewDownloadState() })
	transcodeCache := cache.New[worker.TranscodeKey, *worker.TranscodeState](func() *worker.TranscodeState { return worker.NewTranscodeState() })

	download := worker.NewDownload(worker.DownloadDeps{
		Cache:         downloadCache,
		Pool:          downloadPool,
		Store:         store,
		DownloadDir:   dir,
		RunSupervisor: noopRunSupervisor,
	})
	transcode := worker.NewTranscode(worker.TranscodeDeps{
		Cache:         transcodeCache,
		DownloadCache: downloadCache,
		Pool:          transcodePool,
		Store:         store,
		TranscodeDir:  dir,
		RunSupervisor: noopRunSupervisor,
	})

	s := NewServer(Deps{
		Download:  download,
		Transcode: transcode,
		Store:     store,
	})
	return s, store, dir
}

func mustID(t *testing.T, raw string) mediaid.ID {
	t.Helper()
	id, err := mediaid.ParseID(raw)
	require.NoError(t, err)
	return id
}

func TestGetDownloadsEmpty(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/get_downloads", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []storage.DownloadRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Empty(t, rows)
}

func TestGetDownloadNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/get_download/abcdefghijk", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDownloadInvalidIDReturnsErrorEnvelope(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/get_download/short", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.StatusCode)
	assert.NotEmpty(t, body.Error)
}

func TestGetDownloadStateNotFoundWhenUntouched(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/get_download_state/abcdefghijk", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDownloadNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/delete_download/abcdefghijk", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDownloadRemovesRowAndFiles(t *testing.T) {
	s, store, dir := newTestServer(t)
	id := mustID(t, "abcdefghijk")
	require.NoError(t, store.InsertDownload(id))

	audioPath := filepath.Join(dir, "abcdefghijk.m4a")
	require.NoError(t, os.WriteFile(audioPath, []byte("audio"), 0o644))
	_, err := store.SelectAndModifyDownload(id, func(r *storage.DownloadRow) {
		r.Status = int(mediaid.StatusFinished)
		r.AudioPath = audioPath
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/delete_download/abcdefghijk", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body deleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Type)
	require.Len(t, body.Paths, 1)
	assert.Equal(t, "success", body.Paths[0].Type)
	assert.Equal(t, audioPath, body.Paths[0].Filename)

	_, err = os.Stat(audioPath)
	assert.True(t, os.IsNotExist(err))

	_, found, err := store.SelectDownload(id)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetDownloadLinkServesTranscodeArtifact(t *testing.T) {
	s, store, dir := newTestServer(t)
	id := mustID(t, "abcdefghijk")
	require.NoError(t, store.InsertTranscode(id, mediaid.FormatMP3))

	audioPath := filepath.Join(dir, "abcdefghijk.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("mp3-bytes"), 0o644))
	_, err := store.SelectAndModifyTranscode(id, mediaid.FormatMP3, func(r *storage.TranscodeRow) {
		r.Status = int(mediaid.StatusFinished)
		r.AudioPath = audioPath
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/get_download_link/abcdefghijk/mp3?name=song.mp3", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="song.mp3"`)
	assert.Equal(t, "mp3-bytes", rec.Body.String())
}

func TestRequestTranscodeQueuesBothStages(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/request_transcode/abcdefghijk/mp3", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		DownloadStatus  string `json:"download_status"`
		TranscodeStatus string `json:"transcode_status"`
		IsSkipTranscode bool   `json:"is_skip_transcode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "queued", body.DownloadStatus)
	assert.Equal(t, "queued", body.TranscodeStatus)
	assert.False(t, body.IsSkipTranscode)
}
