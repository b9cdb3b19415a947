package jsonrpc

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Params is the named parameter object of a request.
type Params map[string]json.RawMessage

// ParseParams decodes raw request params. Absent or null params yield an
// empty set; anything other than an object is an invalid-params error.
func ParseParams(raw json.RawMessage) (Params, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Params{}, nil
	}
	if raw[0] != '{' {
		return nil, Errorf(CodeInvalidParams, "params must be an object")
	}
	var p Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Errorf(CodeInvalidParams, "invalid params: %v", err)
	}
	if p == nil {
		p = Params{}
	}
	return p, nil
}

// Has reports whether name is present.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// String returns name as text: strings are unquoted, other JSON values are
// returned as their literal text and null as "". ok is false when name is
// absent.
func (p Params) String(name string) (value string, ok bool) {
	raw, ok := p[name]
	if !ok {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
	}
	if bytes.Equal(raw, []byte("null")) {
		return "", true
	}
	return strings.TrimSpace(string(raw)), true
}

// Decode unmarshals name into v.
func (p Params) Decode(name string, v any) error {
	raw, ok := p[name]
	if !ok {
		return Errorf(CodeInvalidParams, "missing parameter %q", name)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return Errorf(CodeInvalidParams, "parameter %q: %v", name, err)
	}
	return nil
}
