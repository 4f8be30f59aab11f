package processors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/vendasbanco/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestCanonicalName(t *testing.T) {
	t.Run("maps known names regardless of casing and whitespace", func(t *testing.T) {
		assert.Equal(t, "Imersão Evolution", CanonicalName(" Imersão Evolution "))
		assert.Equal(t, "Imersão Evolution", CanonicalName("IMERSÃO EVOLUTION JULHO 2024"))
		assert.Equal(t, "LS Club", CanonicalName("ls club"))
		assert.Equal(t, "Rota do Conhecimento", CanonicalName("Rota do Conhecimento - Ouro"))
	})

	t.Run("unknown names fall back to trimmed original with casing preserved", func(t *testing.T) {
		assert.Equal(t, "Curso Novo", CanonicalName("  Curso Novo  "))
		assert.Equal(t, "outro produto", CanonicalName("outro produto"))
	})
}

func TestCanonicalProducts(t *testing.T) {
	names := CanonicalProducts()
	assert.Contains(t, names, "Imersão Evolution")
	assert.Contains(t, names, "Evolution Online")

	// Distinct canonical values only, sorted.
	seen := make(map[string]bool)
	for _, name := range names {
		assert.False(t, seen[name], "duplicate canonical name %q", name)
		seen[name] = true
	}
	assert.IsIncreasing(t, names)
}

func TestLoadProductMap(t *testing.T) {
	original := productMap
	t.Cleanup(func() { productMap = original })

	t.Run("missing file keeps defaults", func(t *testing.T) {
		require.NoError(t, LoadProductMap(filepath.Join(t.TempDir(), "absent.json")))
		assert.Equal(t, "LS Club", CanonicalName("ls club"))
	})

	t.Run("loads and normalizes keys from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "map.json")
		require.NoError(t, os.WriteFile(path, []byte(`{" Produto X ": "Produto X Oficial"}`), 0o600))

		require.NoError(t, LoadProductMap(path))
		assert.Equal(t, "Produto X Oficial", CanonicalName("produto x"))
		// Defaults were replaced by the file content.
		assert.Equal(t, "ls club", CanonicalName("ls club"))
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))
		assert.Error(t, LoadProductMap(path))
	})
}
