package client

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/oguzkagan/beyanname-takip/models"
)

// TypeRegistry kullanıcının eklediği özel beyanname türlerini yerel bir
// JSON dosyasında saklar ve varsayılanlar ile sunucuda görülen türlerle
// birleştirilmiş listeyi üretir. Liste, arayüzü doldurmak içindir;
// referans bütünlüğü kısıtı değildir.
type TypeRegistry struct {
	path string

	mu     sync.Mutex
	custom []string
}

// NewTypeRegistry kayıtlı özel türleri dosyadan yükler. Dosya yoksa veya
// okunamıyorsa boş başlanır.
func NewTypeRegistry(path string) *TypeRegistry {
	r := &TypeRegistry{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return r
	}
	var custom []string
	if err := json.Unmarshal(data, &custom); err != nil {
		return r
	}
	r.custom = custom
	return r
}

// Add özel bir tür ekler ve kalıcılaştırır. Zaten varsa dosyaya dokunulmaz.
func (r *TypeRegistry) Add(declType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.custom {
		if t == declType {
			return nil
		}
	}
	r.custom = append(r.custom, declType)
	return r.save()
}

// Remove özel bir türü siler ve kalıcılaştırır.
func (r *TypeRegistry) Remove(declType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.custom[:0]
	for _, t := range r.custom {
		if t != declType {
			kept = append(kept, t)
		}
	}
	r.custom = kept
	return r.save()
}

// Custom kayıtlı özel türlerin kopyasını döner.
func (r *TypeRegistry) Custom() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.custom))
	copy(out, r.custom)
	return out
}

// Types varsayılanları, sunucuda görülen türleri ve özel türleri tek bir
// tekil, sıralı listede birleştirir.
func (r *TypeRegistry) Types(observed []string) []string {
	r.mu.Lock()
	custom := make([]string, len(r.custom))
	copy(custom, r.custom)
	r.mu.Unlock()
	return models.MergeDeclarationTypes(models.DefaultDeclarationTypes, observed, custom)
}

// çağıranın kilidi tutması gerekir
func (r *TypeRegistry) save() error {
	data, err := json.Marshal(r.custom)
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}
