// Package uploads stores image artifacts submitted for analysis. The files
// live alongside the conversation log and are purged together with it.
package uploads

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Save writes image bytes into dir under a unique, timestamped name and
// returns the full path.
func Save(dir string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf(
		"mammogram_%s_%s.png",
		time.Now().UTC().Format("20060102_150405"),
		uuid.New().String()[:8],
	)

	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	return path, nil
}
