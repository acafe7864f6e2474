package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/Kavousi-ar/ForecastNetEval/internal/evaluate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifest = `
threshold = 0.5
dates     = ["2021-01-01", "2021-01-02"]

band "0-500" {
  left_km  = 0
  right_km = 500
}

band "500-1000" {
  left_km  = 500
  right_km = 1000
}
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(validManifest), "analysis.hcl")
	require.NoError(t, err)

	assert.InDelta(t, 0.5, m.Threshold, 1e-12)
	assert.Equal(t, []string{"2021-01-01", "2021-01-02"}, m.Dates)
	assert.Equal(t, []domain.Role{domain.RoleReference, domain.RolePredicted}, m.Roles)
	assert.Equal(t, evaluate.UniverseFull, m.Universe)
	assert.Nil(t, m.Filter)
	assert.Equal(t, []domain.Band{
		{Name: "0-500", LeftKm: 0, RightKm: 500},
		{Name: "500-1000", LeftKm: 500, RightKm: 1000},
	}, m.Bands)

	b, ok := m.Band("500-1000")
	require.True(t, ok)
	assert.InDelta(t, 1000.0, b.RightKm, 0)
	_, ok = m.Band("missing")
	assert.False(t, ok)
}

func TestParseManifest_Optional(t *testing.T) {
	src := validManifest + `
roles    = ["predicted"]
universe = "upper"

filter {
  min_km = 100
  max_km = 2000
}
`
	m, err := ParseManifest([]byte(src), "analysis.hcl")
	require.NoError(t, err)

	assert.Equal(t, []domain.Role{domain.RolePredicted}, m.Roles)
	assert.Equal(t, evaluate.UniverseUpper, m.Universe)
	require.NotNil(t, m.Filter)
	assert.Equal(t, domain.NewBand(100, 2000), *m.Filter)
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.hcl")
	require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o600))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Len(t, m.Bands, 2)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)
}

func TestParseManifest_Invalid(t *testing.T) {
	band := "\nband \"a\" {\n  left_km  = 0\n  right_km = 10\n}\n"

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"syntax", "threshold = ", "parse"},
		{"missing threshold", "dates = [\"d\"]" + band, "threshold"},
		{"missing dates", "threshold = 0.5" + band, "dates"},
		{"no bands", "threshold = 0.5\ndates = [\"d\"]\n", "Bands"},
		{"empty dates", "threshold = 0.5\ndates = []" + band, "Dates"},
		{"threshold out of range", "threshold = 1.5\ndates = [\"d\"]" + band, "Threshold"},
		{"duplicate dates", "threshold = 0.5\ndates = [\"d\", \"d\"]" + band, "Dates"},
		{"date with separator", "threshold = 0.5\ndates = [\"a/b\"]" + band, "Dates"},
		{"unknown role", "threshold = 0.5\ndates = [\"d\"]\nroles = [\"observed\"]" + band, "Roles"},
		{"unknown universe", "threshold = 0.5\ndates = [\"d\"]\nuniverse = \"lower\"" + band, "universe"},
		{"duplicate band", "threshold = 0.5\ndates = [\"d\"]" + band + band, "Bands"},
		{"inverted band", "threshold = 0.5\ndates = [\"d\"]\nband \"x\" {\n  left_km  = 10\n  right_km = 0\n}\n", "band"},
		{"negative band", "threshold = 0.5\ndates = [\"d\"]\nband \"x\" {\n  left_km  = -1\n  right_km = 0\n}\n", "band"},
		{"band name with separator", "threshold = 0.5\ndates = [\"d\"]\nband \"a/b\" {\n  left_km  = 0\n  right_km = 1\n}\n", "file name"},
		{"inverted filter", "threshold = 0.5\ndates = [\"d\"]" + band + "filter {\n  min_km = 5\n  max_km = 1\n}\n", "filter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.src), "analysis.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
