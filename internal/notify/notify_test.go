package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureLogger) record(prefix, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, prefix+msg)
}

func (c *captureLogger) Info(msg string, args ...any)  { c.record("INFO ", msg) }
func (c *captureLogger) Warn(msg string, args ...any)  { c.record("WARN ", msg) }
func (c *captureLogger) Error(msg string, args ...any) { c.record("ERROR ", msg) }

func TestRecorder_ForwardsAndCollects(t *testing.T) {
	log := &captureLogger{}
	rec := NewRecorder(NewLogReporter(log))

	rec.Report(LevelError, "Failed to load components")
	rec.Report(LevelWarning, "Sync failed")
	rec.Report(LevelSuccess, "Saved")

	assert.Equal(t, []Notice{
		{Level: LevelError, Message: "Failed to load components"},
		{Level: LevelWarning, Message: "Sync failed"},
		{Level: LevelSuccess, Message: "Saved"},
	}, rec.Notices())
	assert.Equal(t, []string{"ERROR Failed to load components", "WARN Sync failed", "INFO Saved"}, log.lines)
}

func TestRecorder_Concurrent(t *testing.T) {
	rec := NewRecorder(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Report(LevelInfo, "checked")
		}()
	}
	wg.Wait()
	assert.Len(t, rec.Notices(), 50)
}
