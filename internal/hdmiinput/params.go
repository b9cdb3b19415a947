package hdmiinput

import (
	"errors"
	"strconv"

	"github.com/smazurov/hdmiinput/internal/jsonrpc"
)

var errNoDigits = errors.New("no digits")

// stoi parses the leading integer of s: optional whitespace, an optional
// sign and at least one digit. Trailing characters are ignored. Values
// outside the int32 range are an error.
func stoi(s string) (int, error) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, errNoDigits
	}
	n, err := strconv.ParseInt(s[start:i], 10, 32)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// intParam reads name as text and parses it with stoi. ok is false when the
// parameter is missing; err is set when it does not parse.
func intParam(p jsonrpc.Params, name string) (value int, ok bool, err error) {
	s, ok := p.String(name)
	if !ok {
		return 0, false, nil
	}
	n, err := stoi(s)
	return n, true, err
}
