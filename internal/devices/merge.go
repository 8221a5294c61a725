package devices

import (
	"maps"
)

// mergeSources merges cached source data into a device record with prefixes.
//
// Sources are visited in cache order, which is configuration order. For each
// source with a lookup_field, the match key comes from the accumulating
// record when match_from is set (so an earlier source can supply the key for
// a later one) and from the original record otherwise. Matched fields are
// overlaid as "<source>_<field>"; sources without a match contribute
// nothing. The input record is never mutated.
func (r *Reader) mergeSources(device Record) Record {
	merged := maps.Clone(device)

	for _, entry := range r.cache.Entries() {
		cfg := entry.Config

		if cfg.LookupField == "" {
			continue
		}

		var matchValue any
		if cfg.MatchFrom != "" {
			matchValue = merged[cfg.MatchFrom]
		} else {
			matchValue = device[cfg.LookupField]
		}

		if absentValue(matchValue) {
			continue
		}

		match, ok := r.cache.Lookup(entry.Name, cfg.LookupField, matchValue)
		if !ok {
			continue
		}

		for field, value := range match {
			merged[entry.Name+"_"+field] = value
		}
	}

	return merged
}

// absentValue reports whether a match key value counts as absent. Empty
// strings, zero numbers, false, and empty collections all skip the source,
// matching how upstream device catalogs leave unset fields.
func absentValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}
