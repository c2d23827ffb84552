package extract

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/book-expert/audiobook-service/internal/core"
)

const batchFilePermissions = 0o600

// WriteBatch persists ordered chapter records as a JSON batch file, the
// interchange format between extraction and narration.
func WriteBatch(path string, chapters []core.ChapterRecord) error {
	if len(chapters) == 0 {
		return ErrNoChapters
	}

	data, err := json.MarshalIndent(chapters, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode chapter batch: %w", err)
	}

	err = os.WriteFile(path, data, batchFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to write chapter batch: %w", err)
	}

	return nil
}

// ReadBatch loads a chapter batch file from disk.
func ReadBatch(path string) ([]core.ChapterRecord, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator input.
	if err != nil {
		return nil, fmt.Errorf("failed to read chapter batch: %w", err)
	}

	return DecodeBatch(data)
}

// DecodeBatch parses chapter records from raw JSON batch data.
func DecodeBatch(data []byte) ([]core.ChapterRecord, error) {
	var chapters []core.ChapterRecord

	err := json.Unmarshal(data, &chapters)
	if err != nil {
		return nil, fmt.Errorf("failed to decode chapter batch: %w", err)
	}

	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}

	return chapters, nil
}
