package usecase

import (
	"fmt"

	"github.com/cadastral-search/internal/domain"
)

const syntheticKeyPrefix = "object_"

// Deduplicate схлопывает объекты по кадастровому номеру: побеждает первый,
// порядок первых вхождений сохраняется. Объекты без номера получают
// синтетический ключ object_<n> и никогда не сливаются друг с другом.
func Deduplicate(features []domain.CanonicalFeature) []domain.CanonicalFeature {
	out, _ := deduplicateKeyed(features)
	return out
}

// deduplicateKeyed возвращает также ключи, под которыми объекты попали в результат
func deduplicateKeyed(features []domain.CanonicalFeature) ([]domain.CanonicalFeature, []string) {
	seen := make(map[string]struct{}, len(features))
	out := make([]domain.CanonicalFeature, 0, len(features))
	keys := make([]string, 0, len(features))

	for _, f := range features {
		if f.ID == "" {
			// синтетические ключи живут отдельно от номеров и не проверяются на повтор
			keys = append(keys, fmt.Sprintf("%s%d", syntheticKeyPrefix, len(out)))
			out = append(out, f)
			continue
		}
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		keys = append(keys, f.ID)
		out = append(out, f)
	}

	return out, keys
}
