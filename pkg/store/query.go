package store

import "encoding/json"

// matches compares every queried field with strict equality. Only scalar
// values (string, number, bool, null) can match; objects and arrays never do.
func matches(element any, query Query) bool {
	if len(query) == 0 {
		return true
	}

	fields, err := toFields(element)
	if err != nil {
		return false
	}

	wanted, err := toFields(map[string]any(query))
	if err != nil {
		return false
	}

	for key, want := range wanted {
		got, ok := fields[key]
		if !ok || !isScalar(want) || !isScalar(got) || got != want {
			return false
		}
	}

	return true
}

func toFields(value any) (map[string]any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	return fields, nil
}

func isScalar(value any) bool {
	switch value.(type) {
	case nil, string, float64, bool:
		return true
	default:
		return false
	}
}
