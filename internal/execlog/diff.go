package execlog

import (
	"reflect"
	"sort"

	"github.com/mkovrov/scenarist/internal/domain"
)

// ComputeDiff вычисляет изменения ключей контекста между двумя снимками.
// Списки ключей отсортированы для детерминированного вывода.
func ComputeDiff(before, after map[string]any) *domain.ContextDiff {
	diff := &domain.ContextDiff{}

	for key, afterValue := range after {
		beforeValue, existed := before[key]
		if !existed {
			diff.Added = append(diff.Added, key)
			continue
		}
		if !reflect.DeepEqual(beforeValue, afterValue) {
			diff.Modified = append(diff.Modified, key)
		}
	}

	for key := range before {
		if _, exists := after[key]; !exists {
			diff.Removed = append(diff.Removed, key)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Modified)
	sort.Strings(diff.Removed)

	return diff
}
