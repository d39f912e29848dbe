package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var envelopeKeys = []string{"data", "results", "items", "students", "payments", "users", "niveles"}

// decodeList accepts a bare JSON array or an object wrapping one under a
// common envelope key. null and empty bodies decode to an empty list.
func decodeList[T any](raw json.RawMessage, out *[]T) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*out = []T{}
		return nil
	}

	switch raw[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("decode list: %w", err)
		}
		if items == nil {
			items = []T{}
		}
		*out = items
		return nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return fmt.Errorf("decode envelope: %w", err)
		}
		for _, key := range envelopeKeys {
			if inner, ok := envelope[key]; ok {
				return decodeList(inner, out)
			}
		}
	}
	return fmt.Errorf("decode list: unexpected payload")
}

// decodeOne decodes an object, unwrapping a "data" envelope when present.
func decodeOne[T any](raw json.RawMessage, out *T) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if inner, ok := envelope["data"]; ok && len(bytes.TrimSpace(inner)) > 0 && bytes.TrimSpace(inner)[0] == '{' {
			raw = inner
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode object: %w", err)
	}
	return nil
}
