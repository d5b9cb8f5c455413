package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/facture/internal/store"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(t.TempDir())
	require.NoError(t, err)

	return s
}

func TestLoad(t *testing.T) {
	def := record{Name: "default", Count: 1}

	type testCase struct {
		name    string
		content *string
		want    record
	}

	valid := `{"name": "stored", "count": 7}`
	corrupt := `{"name": "stor`
	empty := ``

	tests := []testCase{
		{name: "Missing", content: nil, want: def},
		{name: "Valid", content: &valid, want: record{Name: "stored", Count: 7}},
		{name: "Corrupt", content: &corrupt, want: def},
		{name: "Empty", content: &empty, want: def},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			path := filepath.Join(s.Dir(), "record.json")

			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			got := store.Load(s, "record.json", def)
			assert.Equal(t, tt.want, got)

			// The backing file always holds valid JSON after a load.
			data, err := os.ReadFile(path)
			require.NoError(t, err)

			var onDisk record
			require.NoError(t, json.Unmarshal(data, &onDisk))
			assert.Equal(t, tt.want, onDisk)
		})
	}
}

func TestSave_OverwritesWholesale(t *testing.T) {
	s := newStore(t)

	require.True(t, s.Save("data.json", map[string]any{"a": 1, "b": 2}))
	require.True(t, s.Save("data.json", map[string]any{"c": 3}))

	got := store.Load(s, "data.json", map[string]int{})
	assert.Equal(t, map[string]int{"c": 3}, got)
}

func TestSave_Format(t *testing.T) {
	s := newStore(t)

	require.True(t, s.Save("settings.json", map[string]string{"from": "Café <Montréal>"}))

	data, err := os.ReadFile(filepath.Join(s.Dir(), "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"from\": \"Café <Montréal>\"\n}\n", string(data))
}

func TestSave_FailureIsNotFatal(t *testing.T) {
	s := newStore(t)

	// A directory in place of the record makes the rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "blocked.json"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "blocked.json", "x"), []byte("x"), 0o644))

	assert.False(t, s.Save("blocked.json", record{Name: "x"}))

	got := store.Load(s, "blocked.json", record{Name: "fallback"})
	assert.Equal(t, record{Name: "fallback"}, got)
}

func TestLoad_BOMPrefixedFile(t *testing.T) {
	s := newStore(t)
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"name": "bom", "count": 2}`)...)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "bom.json"), content, 0o644))

	got := store.Load(s, "bom.json", record{})
	assert.Equal(t, record{Name: "bom", Count: 2}, got)
}
