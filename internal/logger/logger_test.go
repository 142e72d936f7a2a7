package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetTimestamps(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Debug("test message %s", "arg")
	Info("info message %d", 42)
	Warn("warning message")

	assert.Equal(t, "[DEBUG] test message arg\n[INFO] info message 42\n[WARN] warning message\n", buf.String())
}

func TestLevels_WhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")

	assert.Zero(t, buf.Len())
}

func TestError_AlwaysPrinted(t *testing.T) {
	buf := capture(t, false)

	Error("model failed: %v", "boom")

	assert.Equal(t, "[ERROR] model failed: boom\n", buf.String())
}

func TestSection(t *testing.T) {
	buf := capture(t, true)

	Section("Test Section")

	assert.Equal(t, "\n=== Test Section ===\n", buf.String())
}

func TestTimestamps(t *testing.T) {
	buf := capture(t, true)
	now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	defer func() { now = time.Now }()

	SetTimestamps(true)
	Info("ready")

	assert.Equal(t, "2026-01-02T03:04:05Z [INFO] ready\n", buf.String())
}

func TestWriter(t *testing.T) {
	buf := capture(t, false)
	assert.Same(t, buf, Writer())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(true)
			Debug("concurrent %d", i)
			IsVerbose()
			SetVerbose(false)
		}()
	}
	wg.Wait()
}
