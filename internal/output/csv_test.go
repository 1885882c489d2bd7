package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/map-harvest/harvest/pkg/models"
)

func samplePlaces() []models.Place {
	full := models.Place{
		Name:         "Green Acres Sod Farm",
		Address:      "1 Farm Rd",
		Phone:        "+1 555 0100",
		Website:      "https://example.com",
		ImageURL:     "https://lh3.googleusercontent.com/p/X=s800",
		ReviewsCount: 210,
	}
	full.SetRating(4.5)
	full.SetCoordinates(37.422, -122.084)

	sparse := models.Place{Name: "Corner Store"}
	return []models.Place{full, sparse}
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "places.csv")
	require.NoError(t, SaveCSV(samplePlaces(), path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, models.CSVHeaders(), rows[0])
	assert.Equal(t, []string{
		"Green Acres Sod Farm", "1 Farm Rd", "+1 555 0100",
		"https://example.com", "https://lh3.googleusercontent.com/p/X=s800",
		"4.5", "210", "37.422", "-122.084",
	}, rows[1])
	// Unset optional fields render as empty cells, not zeros.
	assert.Equal(t, []string{"Corner Store", "", "", "", "", "", "", "", ""}, rows[2])
}

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.json")
	require.NoError(t, SaveJSON(samplePlaces(), path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &got))
	require.Len(t, got, 2)

	assert.Equal(t, "Green Acres Sod Farm", got[0]["name"])
	assert.Equal(t, 4.5, got[0]["rating"])
	assert.Equal(t, 37.422, got[0]["latitude"])
	// omitempty keeps sparse records small.
	assert.Equal(t, "Corner Store", got[1]["name"])
	assert.NotContains(t, got[1], "website")
	assert.NotContains(t, got[1], "rating")
}
