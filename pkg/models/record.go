package models

import (
	"fmt"
	"strconv"

	"github.com/cochinpm/client/pkg/constants"
)

// Record represents one row in a user-defined table. Values are keyed by
// field slug. Two wire shapes exist: direct properties on the object, and a
// legacy `values` array of {field_slug, value} pairs; reads go through
// ExtractValue so consumers never see the difference.
type Record map[string]interface{}

// legacyValuesKey holds the legacy representation when present
const legacyValuesKey = "values"

// ID returns the record identifier as a string
func (r Record) ID() string {
	return Stringify(r[constants.ColumnID])
}

// Get returns the raw value for a key
func (r Record) Get(key string) interface{} {
	return r[key]
}

// GetString returns the value for key when it is stored as a string
func (r Record) GetString(key string) string {
	if val, ok := r[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetBool returns the value for key coerced to a boolean. The wire carries
// booleans as "true"/"false" strings.
func (r Record) GetBool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// ExtractValue returns the first non-empty direct property among the
// candidate slugs; failing that, the first non-empty legacy value whose
// field_slug is in the candidate set; failing that, the empty string.
func (r Record) ExtractValue(candidates ...string) string {
	for _, key := range candidates {
		if val, ok := r[key]; ok {
			if s := Stringify(val); s != "" {
				return s
			}
		}
	}
	return r.legacyValue(candidates, func(v interface{}) string { return Stringify(v) })
}

// RawString behaves like ExtractValue but only considers values that are
// stored as strings. Foreign-key option derivation uses it so numeric ids
// never leak as display labels.
func (r Record) RawString(candidates ...string) string {
	for _, key := range candidates {
		if val, ok := r[key]; ok {
			if s, ok := val.(string); ok && s != "" {
				return s
			}
		}
	}
	return r.legacyValue(candidates, func(v interface{}) string {
		if s, ok := v.(string); ok {
			return s
		}
		return ""
	})
}

func (r Record) legacyValue(candidates []string, conv func(interface{}) string) string {
	raw, ok := r[legacyValuesKey]
	if !ok {
		return ""
	}
	entries, ok := raw.([]interface{})
	if !ok {
		return ""
	}
	wanted := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		wanted[c] = true
	}
	for _, e := range entries {
		pair, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		slug, _ := pair["field_slug"].(string)
		if !wanted[slug] {
			continue
		}
		if s := conv(pair["value"]); s != "" {
			return s
		}
	}
	return ""
}

// Stringify converts a wire value to its canonical string form: booleans to
// "true"/"false", numbers without exponent notation, nil to the empty string.
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", val)
	}
}
