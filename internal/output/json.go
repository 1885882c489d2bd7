package output

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/map-harvest/harvest/pkg/models"
)

// SaveJSON writes an indented JSON export of the places, creating parent
// directories as needed.
func SaveJSON(places []models.Place, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	content, err := json.MarshalIndent(places, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}
