// Package output holds the thin file-writer and summary collaborators that
// consume the finished record collection.
package output

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/map-harvest/harvest/pkg/models"
)

// SaveCSV writes places to a CSV file in the stable field order, creating
// parent directories as needed.
func SaveCSV(places []models.Place, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(models.CSVHeaders()); err != nil {
		return err
	}
	for i := range places {
		if err := writer.Write(places[i].CSVRow()); err != nil {
			return err
		}
	}
	return writer.Error()
}
