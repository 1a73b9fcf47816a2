package extract

import (
	"github.com/parkatlas/parkatlas/internal/fields"
	"github.com/parkatlas/parkatlas/internal/model"
)

// FindMissing returns the backfillable field keys whose value equals the
// field's not-found sentinel, in canonical order. officialWebsite is never
// returned: it has no backfill path.
func FindMissing(rec model.Record) []string {
	var missing []string
	for _, key := range fields.BackfillKeys() {
		spec, ok := fields.Get(key)
		if !ok {
			continue
		}
		if spec.IsSentinel(rec.Value(key)) {
			missing = append(missing, key)
		}
	}
	return missing
}
