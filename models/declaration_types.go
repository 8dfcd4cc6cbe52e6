package models

import (
	"sort"
	"strings"
)

// Varsayılan beyanname türleri
var DefaultDeclarationTypes = []string{
	"KDV", "Muhtasar", "Geçici Vergi", "Yıllık Gelir", "Kurumlar", "Ba-Bs", "Damga", "Diğer",
}

// MergeDeclarationTypes birden fazla kaynaktan (varsayılanlar, sunucuda
// görülen türler, kullanıcının eklediği özel türler) gelen listeleri tek
// bir tekilleştirilmiş ve sıralı listede birleştirir. Boş girdiler atılır.
func MergeDeclarationTypes(sources ...[]string) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0)
	for _, src := range sources {
		for _, t := range src {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			merged = append(merged, t)
		}
	}
	sort.Strings(merged)
	return merged
}
