package etch

import (
	"strconv"
	"strings"
)

// Emit renders a serial tree as ETCH text. Object and reference nodes must
// already carry their virtual identities.
func Emit(n *Node) string {
	var e emitter
	e.emit(n, 0)
	return e.sb.String()
}

type emitter struct {
	sb strings.Builder
}

func (e *emitter) emit(n *Node, depth int) {
	switch n.kind {
	case KindPrimitive:
		e.sb.WriteString(n.tag)
		e.sb.WriteString(" ")
		e.sb.WriteString(n.name)
		e.sb.WriteString(" = ")
		e.sb.WriteString(n.value)

	case KindReference:
		e.header(TagPtr, n)

	case KindObject:
		e.header(TagObject, n)
		e.sb.WriteString(" {\n")
		for _, c := range n.children {
			e.indent(depth + 1)
			e.emit(c, depth+1)
			e.sb.WriteString("\n")
		}
		e.indent(depth)
		e.sb.WriteString("}")
	}
}

// header writes `KEYWORD<CLASS> NAME = ID`, shared by object and reference
// nodes.
func (e *emitter) header(keyword string, n *Node) {
	e.sb.WriteString(keyword)
	e.sb.WriteString("<")
	e.sb.WriteString(strconv.FormatUint(uint64(n.classTag), 10))
	e.sb.WriteString("> ")
	e.sb.WriteString(n.name)
	e.sb.WriteString(" = ")
	e.sb.WriteString(strconv.FormatUint(n.wire, 10))
}

func (e *emitter) indent(depth int) {
	for i := 0; i < depth; i++ {
		e.sb.WriteString("\t")
	}
}
