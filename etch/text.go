package etch

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Wire type tags.
const (
	TagBool   = "BOOL"
	TagChar   = "CHAR"
	TagUchar  = "UCHAR"
	TagShort  = "SHORT"
	TagUshort = "USHORT"
	TagInt    = "INT"
	TagUint   = "UINT"
	TagLong   = "LONG"
	TagUlong  = "ULONG"
	TagFloat  = "FLOAT"
	TagDouble = "DOUBLE"
	TagString = "STRING"
	TagEnum   = "ENUM"

	TagObject = "OBJECT"
	TagPtr    = "PTR"
)

// Entities for characters that would break the line grammar inside string
// values.
const (
	entQuote   = "&quot;"
	entNewline = "&newline;"
)

// Every conversion below is canonical: parsing accepts exactly the text that
// formatting produces, so a value can be checked by re-formatting it. This is
// what turns "007" into a type error instead of a silent 7.

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func parseBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errors.Wrapf(ErrTypecheck, "%q is not a boolean", s)
}

func formatSigned(v int64) string {
	return strconv.FormatInt(v, 10)
}

func parseSigned(s string, bits int) (int64, error) {
	v, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return 0, errors.Wrapf(ErrTypecheck, "%q is not a %d-bit signed value", s, bits)
	}
	if formatSigned(v) != s {
		return 0, errors.Wrapf(ErrTypecheck, "%q is not canonical", s)
	}
	return v, nil
}

func formatUnsigned(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseUnsigned(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, errors.Wrapf(ErrTypecheck, "%q is not a %d-bit unsigned value", s, bits)
	}
	if formatUnsigned(v) != s {
		return 0, errors.Wrapf(ErrTypecheck, "%q is not canonical", s)
	}
	return v, nil
}

func formatFloat(v float64, bits int) string {
	s := strconv.FormatFloat(v, 'f', -1, bits)
	// The grammar requires a decimal point; NaN and infinities stay as-is
	// and fail validation, which is the intended outcome.
	if !strings.Contains(s, ".") && !strings.ContainsAny(s, "NI") {
		s += ".0"
	}
	return s
}

func parseFloat(s string, bits int) (float64, error) {
	v, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return 0, errors.Wrapf(ErrTypecheck, "%q is not a %d-bit float value", s, bits)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrTypecheck, "%q is not finite", s)
	}
	if formatFloat(v, bits) != s {
		return 0, errors.Wrapf(ErrTypecheck, "%q is not canonical", s)
	}
	return v, nil
}

// quoteString wraps a string value in quotes, escaping the two characters
// that would break the grammar.
func quoteString(v string) string {
	safe := strings.ReplaceAll(v, `"`, entQuote)
	safe = strings.ReplaceAll(safe, "\n", entNewline)
	return `"` + safe + `"`
}

func unquoteString(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", errors.Wrapf(ErrTypecheck, "%q is not a quoted string", s)
	}
	unsafe := strings.ReplaceAll(s[1:len(s)-1], entNewline, "\n")
	unsafe = strings.ReplaceAll(unsafe, entQuote, `"`)
	if quoteString(unsafe) != s {
		return "", errors.Wrapf(ErrTypecheck, "%q is not canonical", s)
	}
	return unsafe, nil
}
