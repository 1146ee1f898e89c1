package leaderboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedDocument is matched by every *MalformedError.
var ErrMalformedDocument = errors.New("malformed leaderboard document")

// MalformedError describes the field of the document that could not be
// normalized.
type MalformedError struct {
	Field  string
	Value  string
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%v: %s: %s", ErrMalformedDocument, e.Field, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s (got %s)", ErrMalformedDocument, e.Field, e.Reason, e.Value)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedDocument
}

const maxSnippetLen = 64

// decodeInt accepts an integer encoded either as a JSON number or as a JSON
// string of decimal digits. Every dual-encoded field goes through here.
func decodeInt(field string, raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, &MalformedError{Field: field, Reason: "missing value"}
	}

	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, &MalformedError{Field: field, Value: snippet(raw), Reason: "invalid string"}
		}
		if !isDecimal(s) {
			return 0, &MalformedError{Field: field, Value: snippet(raw), Reason: "expected numeric string"}
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, &MalformedError{Field: field, Value: snippet(raw), Reason: "integer out of range"}
		}
		return n, nil

	case c == '-' || (c >= '0' && c <= '9'):
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return 0, &MalformedError{Field: field, Value: snippet(raw), Reason: "invalid number"}
		}
		n, err := strconv.Atoi(num.String())
		if err != nil {
			return 0, &MalformedError{Field: field, Value: snippet(raw), Reason: "expected integer"}
		}
		return n, nil

	default:
		return 0, &MalformedError{Field: field, Value: snippet(raw), Reason: "expected number or numeric string"}
	}
}

// decodeKey parses an object key that names a member id or a day. Keys must
// be in canonical form so that no two keys of one object name the same number.
func decodeKey(field, key string) (int, error) {
	if !isDecimal(key) {
		return 0, &MalformedError{Field: field, Value: strconv.Quote(key), Reason: "expected numeric key"}
	}
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, &MalformedError{Field: field, Value: strconv.Quote(key), Reason: "integer out of range"}
	}
	if strconv.Itoa(n) != key {
		return 0, &MalformedError{Field: field, Value: strconv.Quote(key), Reason: "non-canonical numeric key"}
	}
	return n, nil
}

func decodeObject(field string, raw json.RawMessage) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, &MalformedError{Field: field, Value: snippet(raw), Reason: "expected object"}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &MalformedError{Field: field, Value: snippet(raw), Reason: "expected object"}
	}
	return obj, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isDecimal(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func snippet(raw json.RawMessage) string {
	if len(raw) > maxSnippetLen {
		return string(raw[:maxSnippetLen]) + "..."
	}
	return string(raw)
}
