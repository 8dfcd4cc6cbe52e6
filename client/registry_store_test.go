package client_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oguzkagan/beyanname-takip/client"
	"github.com/oguzkagan/beyanname-takip/models"
)

func TestTypeRegistryPersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.json")

	reg := client.NewTypeRegistry(path)
	assert.Empty(t, reg.Custom())

	assert.NoError(t, reg.Add("Turizm Payı"))
	assert.NoError(t, reg.Add("Turizm Payı")) // mükerrer ekleme sessiz
	assert.NoError(t, reg.Add("Konaklama"))
	assert.Equal(t, []string{"Turizm Payı", "Konaklama"}, reg.Custom())

	// yeniden açılış dosyadan okur
	reloaded := client.NewTypeRegistry(path)
	assert.Equal(t, []string{"Turizm Payı", "Konaklama"}, reloaded.Custom())

	assert.NoError(t, reloaded.Remove("Konaklama"))
	assert.Equal(t, []string{"Turizm Payı"}, client.NewTypeRegistry(path).Custom())
}

func TestTypeRegistryIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.json")
	assert.NoError(t, os.WriteFile(path, []byte("{bozuk"), 0o644))

	reg := client.NewTypeRegistry(path)
	assert.Empty(t, reg.Custom())
}

func TestTypeRegistryTypesMergesAllSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.json")
	reg := client.NewTypeRegistry(path)
	assert.NoError(t, reg.Add("Turizm Payı"))

	types := reg.Types([]string{"KDV", "Özel Tür"})

	assert.Contains(t, types, "Turizm Payı")
	assert.Contains(t, types, "Özel Tür")
	for _, def := range models.DefaultDeclarationTypes {
		assert.Contains(t, types, def)
	}
	// tekil ve sıralı
	seen := map[string]bool{}
	for i, ty := range types {
		assert.False(t, seen[ty], "duplicate type %q", ty)
		seen[ty] = true
		if i > 0 {
			assert.Less(t, types[i-1], ty)
		}
	}
}
