package schemas_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/jobni/internal/schemas"
	rootschemas "github.com/jonathan/jobni/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestSeedSchema_ValidJSON(t *testing.T) {
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(rootschemas.Seed, &v))
	assert.Equal(t, "http://json-schema.org/draft-07/schema#", v["$schema"])
}

func TestSeedSchema_Compiles(t *testing.T) {
	_, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(rootschemas.Seed))
	assert.NoError(t, err)
}

func TestSeedSchema_EmbeddedMatchesFile(t *testing.T) {
	data, err := os.ReadFile("seed.schema.json")
	require.NoError(t, err)
	assert.Equal(t, data, rootschemas.Seed)
}

func TestSeedFixtures(t *testing.T) {
	tests := []struct {
		file  string
		valid bool
	}{
		{"seed_valid.json", true},
		{"seed_invalid.json", false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("testdata", tt.file))
			require.NoError(t, err)
			err = schemas.ValidateSeed(data)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
