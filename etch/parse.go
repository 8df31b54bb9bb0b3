package etch

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Parse builds a serial tree from ETCH text. It splits on the overall line
// structure only; run Check first to reject malformed documents, Parse does
// not re-validate value shapes.
func Parse(data string) (*Node, error) {
	p := &parser{lines: strings.Split(data, "\n")}
	return p.node(0)
}

type parser struct {
	lines []string
	pos   int
}

func (p *parser) node(depth int) (*Node, error) {
	if p.pos >= len(p.lines) {
		return nil, errors.Wrapf(ErrStructure, "line %d: unexpected end of document", p.pos+1)
	}
	line := p.lines[p.pos]
	if depth > 0 {
		prefix := strings.Repeat("\t", depth)
		if !strings.HasPrefix(line, prefix) {
			return nil, errors.Wrapf(ErrStructure, "line %d: indentation does not match depth %d", p.pos+1, depth)
		}
		line = line[depth:]
	}

	switch {
	case strings.HasPrefix(line, TagObject+"<"):
		return p.object(line, depth)
	case strings.HasPrefix(line, TagPtr+"<"):
		return p.reference(line)
	default:
		return p.primitive(line)
	}
}

func (p *parser) object(line string, depth int) (*Node, error) {
	var body string
	var open bool
	switch {
	case strings.HasSuffix(line, " {"):
		body, open = line[:len(line)-2], true
	case strings.HasSuffix(line, " {}"):
		body = line[:len(line)-3]
	default:
		return nil, errors.Wrapf(ErrStructure, "line %d: malformed object header", p.pos+1)
	}

	classTag, name, wire, err := p.header(body, TagObject)
	if err != nil {
		return nil, err
	}
	n := NewObject(name, classTag, -1)
	n.wire = wire
	p.pos++

	if !open {
		return n, nil
	}
	closing := strings.Repeat("\t", depth) + "}"
	for {
		if p.pos >= len(p.lines) {
			return nil, errors.Wrapf(ErrStructure, "line %d: object %q not closed", p.pos+1, name)
		}
		if p.lines[p.pos] == closing {
			p.pos++
			return n, nil
		}
		child, err := p.node(depth + 1)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
}

func (p *parser) reference(line string) (*Node, error) {
	classTag, name, wire, err := p.header(line, TagPtr)
	if err != nil {
		return nil, err
	}
	n := NewReference(name, classTag, -1)
	n.wire = wire
	p.pos++
	return n, nil
}

func (p *parser) primitive(line string) (*Node, error) {
	sp := strings.Index(line, " ")
	if sp <= 0 {
		return nil, errors.Wrapf(ErrStructure, "line %d: unrecognized line shape", p.pos+1)
	}
	tag := line[:sp]

	var cut int
	if tag == TagString {
		cut = strings.LastIndex(line, ` = "`)
	} else {
		cut = strings.LastIndex(line, " = ")
	}
	if cut <= sp {
		return nil, errors.Wrapf(ErrStructure, "line %d: unrecognized line shape", p.pos+1)
	}
	n := NewPrimitive(tag, line[sp+1:cut], line[cut+3:])
	p.pos++
	return n, nil
}

// header splits `KEYWORD<CLASS> NAME = ID` using the last ` = ` as the name
// delimiter.
func (p *parser) header(body, keyword string) (classTag uint32, name string, wire uint64, err error) {
	rest, found := strings.CutPrefix(body, keyword+"<")
	gt := strings.Index(rest, ">")
	if !found || gt <= 0 || gt+1 >= len(rest) || rest[gt+1] != ' ' {
		return 0, "", 0, errors.Wrapf(ErrStructure, "line %d: malformed %s header", p.pos+1, keyword)
	}
	class, cerr := strconv.ParseUint(rest[:gt], 10, 32)
	if cerr != nil {
		return 0, "", 0, errors.Wrapf(ErrStructure, "line %d: bad class tag", p.pos+1)
	}
	rest = rest[gt+2:]
	eq := strings.LastIndex(rest, " = ")
	if eq <= 0 {
		return 0, "", 0, errors.Wrapf(ErrStructure, "line %d: malformed %s header", p.pos+1, keyword)
	}
	id, ierr := strconv.ParseUint(rest[eq+3:], 10, 64)
	if ierr != nil {
		return 0, "", 0, errors.Wrapf(ErrStructure, "line %d: bad identity", p.pos+1)
	}
	return uint32(class), rest[:eq], id, nil
}
