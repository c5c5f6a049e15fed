package mediaid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_RoundTrip(t *testing.T) {
	all := []Format{FormatM4A, FormatAAC, FormatMP3, FormatWEBM}
	for _, f := range all {
		parsed, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
}

func TestParseFormat_Invalid(t *testing.T) {
	_, err := ParseFormat("flac")
	require.Error(t, err)
	var fmtErr ErrInvalidFormat
	require.ErrorAs(t, err, &fmtErr)
}

func TestFormat_CanEmbedThumbnail(t *testing.T) {
	assert.True(t, FormatMP3.CanEmbedThumbnail())
	assert.False(t, FormatM4A.CanEmbedThumbnail())
	assert.False(t, FormatAAC.CanEmbedThumbnail())
	assert.False(t, FormatWEBM.CanEmbedThumbnail())
}

func TestWorkerStatus_IsBusy(t *testing.T) {
	busy := map[WorkerStatus]bool{
		StatusNone:     false,
		StatusQueued:   true,
		StatusRunning:  true,
		StatusFinished: false,
		StatusFailed:   false,
	}
	for status, want := range busy {
		assert.Equal(t, want, status.IsBusy(), status.String())
	}
}
