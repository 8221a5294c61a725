// Package extract projects raw JSON payloads into normalized device records
// using a schema descriptor.
//
// A schema is a plain YAML/JSON value loaded from configuration:
//   - a mapping of output field name to a gjson path selects fields from the
//     payload; nested mappings produce nested records
//   - a sequence whose first element is a mapping describes a homogeneous
//     list, with the mapping applied to each payload item
//
// Paths follow gjson syntax, so "specs.ram" or "releases.0.version" work as
// expected.
package extract

import (
	"github.com/tidwall/gjson"
)

// Record is one projected record.
type Record = map[string]any

// Project applies schema to the given payload and returns the projected
// value: a Record for mapping schemas, a []Record for sequence schemas
// applied to array payloads, or nil when the schema selects nothing.
func Project(raw gjson.Result, schema any) any {
	switch s := schema.(type) {
	case nil:
		// No schema means pass the payload through untouched.
		return raw.Value()
	case map[string]any:
		return projectRecord(raw, s)
	case []any:
		if len(s) == 0 {
			return nil
		}
		if raw.IsArray() {
			return ProjectList(raw, s[0])
		}
		return Project(raw, s[0])
	default:
		return nil
	}
}

// ProjectList applies the per-item schema to every element of an array
// payload.
func ProjectList(raw gjson.Result, itemSchema any) []Record {
	items := raw.Array()
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if rec, ok := Project(item, itemSchema).(Record); ok {
			records = append(records, rec)
		}
	}
	return records
}

// projectRecord builds a Record from a mapping schema. Fields whose path
// does not exist in the payload are omitted rather than set to nil.
func projectRecord(raw gjson.Result, schema map[string]any) Record {
	record := make(Record, len(schema))
	for field, sel := range schema {
		switch v := sel.(type) {
		case string:
			if res := raw.Get(v); res.Exists() {
				record[field] = res.Value()
			}
		case map[string]any:
			nested := projectRecord(raw, v)
			if len(nested) > 0 {
				record[field] = nested
			}
		}
	}
	return record
}
