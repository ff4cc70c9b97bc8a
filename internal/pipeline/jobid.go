package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// newJobID returns "job_" + unix millis + "_" + 8 hex random chars.
// nowMillis is injected so tests can pin the timestamp component.
func newJobID(nowMillis int64) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("pipeline: failed to generate job id: %w", err)
	}
	return fmt.Sprintf("job_%d_%s", nowMillis, hex.EncodeToString(buf)), nil
}
