package storage

import (
	"encoding/json"
	"time"
)

// Timestamps are stored as ISO-8601 (RFC 3339) strings in every backend so
// records stay round-trippable across drivers and inspectable by hand.
const timeLayout = time.RFC3339Nano

// EncodeTime formats a timestamp for storage.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// DecodeTime parses a stored timestamp. An empty or malformed value decodes
// to the zero time; persistence is fail-open by design.
func DecodeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// EncodeJSON marshals a collection field (map or slice) to its TEXT column
// representation. A nil value encodes as "null", which DecodeJSON maps back
// to the zero value.
func EncodeJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// DecodeJSON unmarshals a TEXT column into the destination collection.
// Malformed values leave the destination untouched.
func DecodeJSON(data string, dest interface{}) {
	if data == "" {
		return
	}
	_ = json.Unmarshal([]byte(data), dest)
}
