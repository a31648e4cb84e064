package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"BuffonBet/internal/model"
)

// WriteReport writes the session summary to a JSON file, creating parent
// directories as needed.
func WriteReport(filePath string, report *model.SessionReport) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(filePath, data, 0644)
}
