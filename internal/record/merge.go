package record

// Merge applies a partial-update map to base and returns the result as
// a new map. For each key in changes: a non-empty value overwrites, a
// nil or empty value deletes the key. Keys absent from changes are
// preserved verbatim. base is never mutated.
//
// Total over well-formed inputs: there are no error conditions.
func Merge(base map[string]string, changes map[string]*string) map[string]string {
	merged := make(map[string]string, len(base)+len(changes))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range changes {
		if v == nil || *v == "" {
			delete(merged, k)
			continue
		}
		merged[k] = *v
	}
	return merged
}

// Creation returns the non-deletion subset of changes as a plain data
// map. The API layer uses this when an upsert falls through to create:
// deletions in the body are meaningless for a record that does not
// exist yet.
func Creation(changes map[string]*string) map[string]string {
	data := make(map[string]string, len(changes))
	for k, v := range changes {
		if v != nil && *v != "" {
			data[k] = *v
		}
	}
	return data
}
