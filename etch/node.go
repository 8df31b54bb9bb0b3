package etch

// Kind discriminates the three node variants of a serial tree.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindObject
	KindReference
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindObject:
		return "object"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Node is one node of a serial tree, the intermediate form between live
// objects and wire text. A tree is built fresh for every call and discarded
// afterwards.
type Node struct {
	kind Kind
	name string

	// Primitive
	tag   string // wire type tag, e.g. "INT"
	value string // literal text value

	// Object and reference
	classTag uint32
	id       int    // arena handle of the producing/target object, -1 if parsed
	wire     uint64 // virtual identity as it appears in text

	// Object children, in declaration order, names unique
	children []*Node
}

// NewPrimitive creates a primitive node.
func NewPrimitive(tag, name, value string) *Node {
	return &Node{kind: KindPrimitive, tag: tag, name: name, value: value, id: -1}
}

// NewObject creates an empty object node for the arena handle of the object
// producing it.
func NewObject(name string, classTag uint32, handle int) *Node {
	return &Node{kind: KindObject, name: name, classTag: classTag, id: handle}
}

// NewReference creates a reference node targeting an arena handle.
func NewReference(name string, classTag uint32, handle int) *Node {
	return &Node{kind: KindReference, name: name, classTag: classTag, id: handle}
}

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the field name.
func (n *Node) Name() string { return n.name }

// Tag returns the primitive wire type tag.
func (n *Node) Tag() string { return n.tag }

// Value returns the primitive literal text.
func (n *Node) Value() string { return n.value }

// ClassTag returns the class tag of an object or reference node.
func (n *Node) ClassTag() uint32 { return n.classTag }

// Wire returns the virtual identity carried in text.
func (n *Node) Wire() uint64 { return n.wire }

// IsObject reports whether the node is an object with the given class tag.
func (n *Node) IsObject(classTag uint32) bool {
	return n != nil && n.kind == KindObject && n.classTag == classTag
}

// IsReference reports whether the node is a reference with the given class
// tag.
func (n *Node) IsReference(classTag uint32) bool {
	return n != nil && n.kind == KindReference && n.classTag == classTag
}

// Child returns the child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Children returns the child nodes in declaration order.
func (n *Node) Children() []*Node { return n.children }

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// AddChild appends a child node, replacing any existing child of the same
// name.
func (n *Node) AddChild(c *Node) {
	for i := range n.children {
		if n.children[i].name == c.name {
			n.children[i] = c
			return
		}
	}
	n.children = append(n.children, c)
}
