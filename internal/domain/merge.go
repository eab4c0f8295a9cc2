package domain

// MergeResult summarises a reconcile of a remote batch into the collection.
type MergeResult struct {
	// Quotes is the merged collection.
	Quotes []Quote

	// Added counts batch records whose id was new.
	Added int

	// Conflicts counts batch records that replaced an existing record.
	Conflicts int
}

// Merge folds batch into existing. A batch record whose id is already present
// replaces that record wholesale at the same position, and counts as a
// conflict. Any other record is appended in batch order. Later records in the
// same batch see earlier ones, so a repeated id inside one batch replaces its
// predecessor and counts as a conflict too.
//
// existing is not modified.
func Merge(existing, batch []Quote) MergeResult {
	merged := make([]Quote, len(existing), len(existing)+len(batch))
	copy(merged, existing)

	index := make(map[int64]int, len(merged))
	for i := len(merged) - 1; i >= 0; i-- {
		// first occurrence wins when the collection already holds duplicates
		index[merged[i].ID] = i
	}

	result := MergeResult{}

	for _, candidate := range batch {
		if pos, ok := index[candidate.ID]; ok {
			merged[pos] = candidate
			result.Conflicts++

			continue
		}

		index[candidate.ID] = len(merged)
		merged = append(merged, candidate)
		result.Added++
	}

	result.Quotes = merged

	return result
}
