package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSuccessCapturesOutput(t *testing.T) {
	dir := t.TempDir()

	var stdoutLines []string
	result, err := Run(context.Background(), Spec{
		Binary:        "/bin/sh",
		Args:          []string{"-c", "echo line-one; echo line-two 1>&2; exit 0"},
		StdoutLogPath: filepath.Join(dir, "stdout.log"),
		StderrLogPath: filepath.Join(dir, "stderr.log"),
		OnStdout: func(line string) error {
			stdoutLines = append(stdoutLines, line)
			return nil
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, []string{"line-one"}, stdoutLines)

	stdoutLog, readErr := os.ReadFile(filepath.Join(dir, "stdout.log"))
	require.NoError(t, readErr)
	assert.Contains(t, string(stdoutLog), "line-one")

	stderrLog, readErr := os.ReadFile(filepath.Join(dir, "stderr.log"))
	require.NoError(t, readErr)
	assert.Contains(t, string(stderrLog), "line-two")
}

func TestRunNonzeroExit(t *testing.T) {
	dir := t.TempDir()

	result, err := Run(context.Background(), Spec{
		Binary:        "/bin/sh",
		Args:          []string{"-c", "exit 7"},
		StdoutLogPath: filepath.Join(dir, "stdout.log"),
		StderrLogPath: filepath.Join(dir, "stderr.log"),
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 7, result.ExitCode)
}

var errHandlerFatal = errors.New("fatal handler event")

func TestRunHandlerFatalOverridesZeroExit(t *testing.T) {
	dir := t.TempDir()

	result, err := Run(context.Background(), Spec{
		Binary:        "/bin/sh",
		Args:          []string{"-c", "echo ERROR: boom; exit 0"},
		StdoutLogPath: filepath.Join(dir, "stdout.log"),
		StderrLogPath: filepath.Join(dir, "stderr.log"),
		OnStdout: func(line string) error {
			if line == "ERROR: boom" {
				return errHandlerFatal
			}
			return nil
		},
	})
	require.ErrorIs(t, err, errHandlerFatal)
	assert.False(t, result.Success)
}

func TestRunMissingBinary(t *testing.T) {
	dir := t.TempDir()

	_, err := Run(context.Background(), Spec{
		Binary:        filepath.Join(dir, "does-not-exist"),
		StdoutLogPath: filepath.Join(dir, "stdout.log"),
		StderrLogPath: filepath.Join(dir, "stderr.log"),
	})
	assert.Error(t, err)
}

func TestCRLFReaderNormalizesLoneCarriageReturn(t *testing.T) {
	src := fakeReader{data: []byte("a\rb\r\nc\r")}
	r := newCRLFReader(&src)
	buf := make([]byte, 64)
	n, _ := r.Read(buf)
	assert.Equal(t, "a\nb\r\nc\n", string(buf[:n]))
}

type fakeReader struct {
	data []byte
	read bool
}

func (f *fakeReader) Read(p []byte) (int, error) {
	if f.read {
		return 0, os.ErrClosed
	}
	f.read = true
	n := copy(p, f.data)
	return n, nil
}
