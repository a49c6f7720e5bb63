package clipboard

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubClipboard(t *testing.T, isUnsupported bool, write func(string) error) {
	t.Helper()
	origWrite, origUnsupported := writeAll, unsupported
	writeAll = write
	unsupported = func() bool { return isUnsupported }
	t.Cleanup(func() {
		writeAll, unsupported = origWrite, origUnsupported
	})
}

func TestCopy(t *testing.T) {
	var got string
	stubClipboard(t, false, func(s string) error {
		got = s
		return nil
	})

	msg, err := CopyWithFallback("Summarize the filing.")
	require.NoError(t, err)
	assert.Equal(t, "Copied to clipboard!", msg)
	assert.Equal(t, "Summarize the filing.", got)
	assert.True(t, IsClipboardAvailable())
}

func TestCopyUnsupported(t *testing.T) {
	stubClipboard(t, true, func(string) error {
		t.Fatal("write must not be called")
		return nil
	})

	err := Copy("text")
	var clipErr *ClipboardError
	require.ErrorAs(t, err, &clipErr)
	assert.Equal(t, runtime.GOOS, clipErr.OS)
	assert.False(t, IsClipboardAvailable())
}

func TestCopyWriteFailure(t *testing.T) {
	boom := errors.New("xclip exited 1")
	stubClipboard(t, false, func(string) error { return boom })

	_, err := CopyWithFallback("text")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to copy to clipboard")
}

func TestGetInstallInstructions(t *testing.T) {
	instructions := GetInstallInstructions()
	require.NotEmpty(t, instructions)

	switch runtime.GOOS {
	case "linux":
		assert.Contains(t, instructions, "xclip")
	case "darwin":
		assert.Contains(t, instructions, "pbcopy")
	case "windows":
		assert.Contains(t, instructions, "clip")
	}
}
