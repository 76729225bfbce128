package fs

import (
	"context"
	"fmt"
	"os"
	"time"
)

// WaitForFile polls until path exists and is non-empty, backing off from
// 50ms up to 500ms between checks.
func WaitForFile(ctx context.Context, path string, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	delay := 50 * time.Millisecond
	for {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for file %s after %v", path, maxWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > 500*time.Millisecond {
			delay = 500 * time.Millisecond
		}
	}
}
