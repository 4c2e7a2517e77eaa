package ad

// DedupeLastWins collapses duplicate ad ids keeping the last
// occurrence of each, preserving order otherwise. The same ad can
// legitimately surface twice, once from the page cache and once live.
func DedupeLastWins(records []Record) []Record {
	if len(records) < 2 {
		return records
	}
	position := make(map[int64]int, len(records))
	out := make([]Record, 0, len(records))
	for _, record := range records {
		if idx, ok := position[record.AdID]; ok {
			out[idx] = record
			continue
		}
		position[record.AdID] = len(out)
		out = append(out, record)
	}
	return out
}
