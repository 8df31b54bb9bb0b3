package etch

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Check validates that data is a well-formed ETCH document: exactly one
// top-level object, tab indentation matching nesting depth, and every line
// shaped as a known primitive, an object header, a reference, or a closing
// brace. Trailing data after the root object closes is rejected.
//
// Check never constructs a tree and never touches object state; Deserialize
// runs it before anything else.
func Check(data string) error {
	lines := strings.Split(data, "\n")
	depth := 0

	for i, line := range lines {
		// Closing brace of the enclosing object.
		if depth > 0 && line == strings.Repeat("\t", depth-1)+"}" {
			depth--
			if depth == 0 {
				if i != len(lines)-1 {
					return errors.Wrapf(ErrStructure, "line %d: data after root object close", i+2)
				}
				return nil
			}
			continue
		}

		// Each child line carries exactly its depth in tabs.
		if depth > 0 {
			prefix := strings.Repeat("\t", depth)
			if !strings.HasPrefix(line, prefix) {
				return errors.Wrapf(ErrStructure, "line %d: indentation does not match depth %d", i+1, depth)
			}
			line = line[depth:]
		}

		if strings.HasPrefix(line, TagObject+"<") {
			open, ok := matchObject(line)
			if !ok {
				return errors.Wrapf(ErrStructure, "line %d: malformed object header", i+1)
			}
			if open {
				depth++
				continue
			}
			// Inline-empty object. At the top level it is the whole document.
			if depth == 0 {
				if i != len(lines)-1 {
					return errors.Wrapf(ErrStructure, "line %d: data after root object close", i+2)
				}
				return nil
			}
			continue
		}

		if depth == 0 {
			return errors.Wrapf(ErrStructure, "line %d: expected top-level object", i+1)
		}

		if strings.HasPrefix(line, TagPtr+"<") {
			if !matchReference(line) {
				return errors.Wrapf(ErrStructure, "line %d: malformed reference", i+1)
			}
			continue
		}

		if !matchPrimitive(line) {
			return errors.Wrapf(ErrStructure, "line %d: unrecognized line shape", i+1)
		}
	}

	return errors.Wrap(ErrStructure, "root object not closed")
}

// ============================================================
// Line shape matchers
// ============================================================

// matchObject matches `OBJECT<CLASS> NAME = ID {` or the inline-empty
// `OBJECT<CLASS> NAME = ID {}`. open reports whether a body follows.
func matchObject(line string) (open, ok bool) {
	var body string
	switch {
	case strings.HasSuffix(line, " {"):
		body, open = line[:len(line)-2], true
	case strings.HasSuffix(line, " {}"):
		body = line[:len(line)-3]
	default:
		return false, false
	}
	return open, matchHeader(body, TagObject)
}

// matchReference matches `PTR<CLASS> NAME = ID`.
func matchReference(line string) bool {
	return matchHeader(line, TagPtr)
}

// matchHeader matches `KEYWORD<CLASS> NAME = ID`. The last ` = ` delimits the
// name, so names containing ` = ` stay unambiguous: the identity on the right
// is always plain digits.
func matchHeader(body, keyword string) bool {
	rest, found := strings.CutPrefix(body, keyword+"<")
	if !found {
		return false
	}
	gt := strings.Index(rest, ">")
	if gt <= 0 || !isDigits(rest[:gt]) {
		return false
	}
	rest, found = strings.CutPrefix(rest[gt+1:], " ")
	if !found {
		return false
	}
	eq := strings.LastIndex(rest, " = ")
	if eq < 0 {
		return false
	}
	return isName(rest[:eq]) && isDigits(rest[eq+3:])
}

// matchPrimitive matches `TAG NAME = VALUE` with a tag-appropriate value
// shape.
func matchPrimitive(line string) bool {
	sp := strings.Index(line, " ")
	if sp <= 0 {
		return false
	}
	tag := line[:sp]

	// STRING values are quote-delimited and their payload carries no raw
	// quotes, so the last ` = "` is always the value anchor even when the
	// name itself contains quotes or ` = `.
	if tag == TagString {
		if !strings.HasSuffix(line, `"`) {
			return false
		}
		anchor := strings.LastIndex(line, ` = "`)
		if anchor <= sp {
			return false
		}
		value := line[anchor+3:]
		if len(value) < 2 || strings.Contains(value[1:len(value)-1], `"`) {
			return false
		}
		return isName(line[sp+1 : anchor])
	}

	eq := strings.LastIndex(line, " = ")
	if eq <= sp {
		return false
	}
	name, value := line[sp+1:eq], line[eq+3:]
	if !isName(name) {
		return false
	}

	switch tag {
	case TagBool:
		return value == "true" || value == "false"
	case TagChar, TagShort, TagInt, TagLong:
		return isSigned(value)
	case TagUchar, TagUshort, TagUint, TagUlong, TagEnum:
		return isDigits(value)
	case TagFloat, TagDouble:
		return isFloating(value)
	default:
		return false
	}
}

// ============================================================
// Value shape predicates
// ============================================================

func isName(s string) bool {
	return s != "" && !strings.Contains(s, "\n")
}

func isDigits(s string) bool {
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

func isSigned(s string) bool {
	return isDigits(strings.TrimPrefix(s, "-"))
}

func isFloating(s string) bool {
	point := strings.Index(s, ".")
	if point < 0 {
		return false
	}
	return isSigned(s[:point]) && isDigits(s[point+1:])
}
