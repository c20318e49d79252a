package store

import (
	"encoding/json"

	"github.com/gravitational/trace"
)

// encodeData serializes a record's data map to the TEXT blob stored in
// the data column. JSON round-trips a string-to-string map exactly: no
// type coercion of values, keys sorted for stable output.
func encodeData(data map[string]string) (string, error) {
	if len(data) == 0 {
		return "{}", nil
	}
	blob, err := json.Marshal(data)
	if err != nil {
		return "", trace.Wrap(err, "encode record data")
	}
	return string(blob), nil
}

// decodeData parses a stored data blob back into a map.
func decodeData(blob string) (map[string]string, error) {
	if blob == "" || blob == "{}" {
		return map[string]string{}, nil
	}
	var data map[string]string
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return nil, trace.Wrap(err, "decode record data")
	}
	return data, nil
}
