// Package ast defines the arena-indexed syntax tree the inliner works on.
//
// The tree is designed to be:
// - Flat: every node lives in one slice owned by a Tree
// - Index-linked: parent and child edges are NodeIDs, never pointers
// - Transformable: all mutation goes through edge operations that keep
//   parent links and child lists consistent
package ast

import (
	"fmt"
	"slices"
)

// ----------------------------------------------------------------------------
// Node Identifiers
// ----------------------------------------------------------------------------

// NodeID is an index into a Tree's node arena. The zero value is the invalid
// sentinel.
type NodeID uint32

// InvalidNode is the sentinel for "no node".
const InvalidNode NodeID = 0

// IsValid returns true if the ID refers to a node.
func (id NodeID) IsValid() bool {
	return id != InvalidNode
}

// ----------------------------------------------------------------------------
// Node Kinds
// ----------------------------------------------------------------------------

// Kind is the closed set of node kinds.
type Kind uint8

const (
	KindInvalid Kind = iota

	// Statements
	KindScript     // statements...
	KindBlock      // statements...
	KindLabel      // Str = label; [body]
	KindExprResult // [expr]
	KindVar        // Name declarations, each with an optional initializer child
	KindFunction   // Str = name (may be empty); [ParamList, Block]
	KindParamList  // Name...
	KindReturn     // [expr?]
	KindIf         // [cond, then, else?]
	KindWhile      // [cond, body]
	KindDoWhile    // [body, cond]
	KindFor        // [init, cond, update, body]; missing parts are Empty
	KindBreak      // Str = label (may be empty)
	KindContinue   // Str = label (may be empty)
	KindEmpty

	// Expressions
	KindName    // Str = identifier
	KindThis    //
	KindNumber  // Str = source text
	KindString  // Str = unescaped value
	KindTrue    //
	KindFalse   //
	KindNull    //
	KindCall    // [callee, args...]
	KindNew     // [callee, args...]
	KindGetProp // Str = property; [object]
	KindGetElem // [object, index]
	KindAssign  // Str = operator ("=", "+=", ...); [target, value]
	KindBinary  // Str = operator; [left, right]
	KindAnd     // [left, right]
	KindOr      // [left, right]
	KindHook    // [cond, then, else]
	KindUnary   // Str = operator ("!", "-", "+", "~", "typeof", "void", "delete"); [operand]
	KindUpdate  // Str = "++" or "--"; FlagPostfix; [operand]
	KindComma   // [left, right]
	KindArray   // elements...
	KindObject  // ObjectProp...
	KindObjectProp // Str = key; [value]

	kindCount
)

var kindNames = [...]string{
	KindInvalid:    "Invalid",
	KindScript:     "Script",
	KindBlock:      "Block",
	KindLabel:      "Label",
	KindExprResult: "ExprResult",
	KindVar:        "Var",
	KindFunction:   "Function",
	KindParamList:  "ParamList",
	KindReturn:     "Return",
	KindIf:         "If",
	KindWhile:      "While",
	KindDoWhile:    "DoWhile",
	KindFor:        "For",
	KindBreak:      "Break",
	KindContinue:   "Continue",
	KindEmpty:      "Empty",
	KindName:       "Name",
	KindThis:       "This",
	KindNumber:     "Number",
	KindString:     "String",
	KindTrue:       "True",
	KindFalse:      "False",
	KindNull:       "Null",
	KindCall:       "Call",
	KindNew:        "New",
	KindGetProp:    "GetProp",
	KindGetElem:    "GetElem",
	KindAssign:     "Assign",
	KindBinary:     "Binary",
	KindAnd:        "And",
	KindOr:         "Or",
	KindHook:       "Hook",
	KindUnary:      "Unary",
	KindUpdate:     "Update",
	KindComma:      "Comma",
	KindArray:      "Array",
	KindObject:     "Object",
	KindObjectProp: "ObjectProp",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsLoop returns true for the loop statement kinds.
func (k Kind) IsLoop() bool {
	return k == KindWhile || k == KindDoWhile || k == KindFor
}

// ----------------------------------------------------------------------------
// Flags and Locations
// ----------------------------------------------------------------------------

// NodeFlags are bitflags for node properties.
type NodeFlags uint8

const (
	// FlagConstant marks a name that is never reassigned after declaration.
	FlagConstant NodeFlags = 1 << iota

	// FlagPostfix marks a postfix update expression (x++).
	FlagPostfix
)

// Has returns true if the flag is set.
func (f NodeFlags) Has(flag NodeFlags) bool {
	return (f & flag) != 0
}

// Loc represents a location in source code.
type Loc struct {
	Start int32 // Byte offset of start
}

// ----------------------------------------------------------------------------
// Nodes and Trees
// ----------------------------------------------------------------------------

// Node is one arena entry. Edges are maintained by Tree; callers only read
// Kind, Str, Flags and Loc through the Tree accessors.
type Node struct {
	Kind  Kind
	Str   string
	Flags NodeFlags
	Loc   Loc

	parent   NodeID
	children []NodeID
}

// Tree owns every node of one compilation unit.
type Tree struct {
	nodes      []Node
	Root       NodeID
	normalized bool
}

// NewTree creates an empty tree with a Script root.
func NewTree() *Tree {
	t := &Tree{nodes: make([]Node, 1, 64)}
	t.Root = t.NewNode(KindScript, "")
	return t
}

// Len returns the number of arena slots, including detached nodes.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

// MarkNormalized records that every declared name in the tree is unique.
func (t *Tree) MarkNormalized() {
	t.normalized = true
}

// IsNormalized reports whether MarkNormalized has been called.
func (t *Tree) IsNormalized() bool {
	return t.normalized
}

func (t *Tree) node(id NodeID) *Node {
	if !id.IsValid() || int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("ast: invalid node id %d", id))
	}
	return &t.nodes[id]
}

// NewNode allocates a node and adopts the given children, which must be
// detached.
func (t *Tree) NewNode(kind Kind, str string, children ...NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{Kind: kind, Str: str})
	for _, c := range children {
		t.AddChildToBack(id, c)
	}
	return id
}

// Kind returns the node's kind.
func (t *Tree) Kind(id NodeID) Kind { return t.node(id).Kind }

// Str returns the node's string payload.
func (t *Tree) Str(id NodeID) string { return t.node(id).Str }

// SetStr replaces the node's string payload.
func (t *Tree) SetStr(id NodeID, s string) { t.node(id).Str = s }

// Flags returns the node's flags.
func (t *Tree) Flags(id NodeID) NodeFlags { return t.node(id).Flags }

// SetFlags replaces the node's flags.
func (t *Tree) SetFlags(id NodeID, f NodeFlags) { t.node(id).Flags = f }

// Loc returns the node's source location.
func (t *Tree) Loc(id NodeID) Loc { return t.node(id).Loc }

// SetLoc records the node's source location.
func (t *Tree) SetLoc(id NodeID, loc Loc) { t.node(id).Loc = loc }

// Is reports whether id is valid and of the given kind.
func (t *Tree) Is(id NodeID, kind Kind) bool {
	return id.IsValid() && t.node(id).Kind == kind
}

// ----------------------------------------------------------------------------
// Navigation
// ----------------------------------------------------------------------------

// Parent returns the node's parent, or InvalidNode for roots and detached
// nodes.
func (t *Tree) Parent(id NodeID) NodeID { return t.node(id).parent }

// Children returns the node's child list. The slice is owned by the tree and
// must be copied before the tree is mutated.
func (t *Tree) Children(id NodeID) []NodeID { return t.node(id).children }

// ChildCount returns the number of children.
func (t *Tree) ChildCount(id NodeID) int { return len(t.node(id).children) }

// Child returns the i-th child, or InvalidNode when out of range.
func (t *Tree) Child(id NodeID, i int) NodeID {
	children := t.node(id).children
	if i < 0 || i >= len(children) {
		return InvalidNode
	}
	return children[i]
}

// FirstChild returns the first child or InvalidNode.
func (t *Tree) FirstChild(id NodeID) NodeID { return t.Child(id, 0) }

// LastChild returns the last child or InvalidNode.
func (t *Tree) LastChild(id NodeID) NodeID {
	return t.Child(id, len(t.node(id).children)-1)
}

// IndexInParent returns the node's position among its siblings, or -1.
func (t *Tree) IndexInParent(id NodeID) int {
	p := t.node(id).parent
	if !p.IsValid() {
		return -1
	}
	return slices.Index(t.node(p).children, id)
}

// Next returns the following sibling or InvalidNode.
func (t *Tree) Next(id NodeID) NodeID {
	i := t.IndexInParent(id)
	if i < 0 {
		return InvalidNode
	}
	return t.Child(t.node(id).parent, i+1)
}

// Prev returns the preceding sibling or InvalidNode.
func (t *Tree) Prev(id NodeID) NodeID {
	i := t.IndexInParent(id)
	if i <= 0 {
		return InvalidNode
	}
	return t.Child(t.node(id).parent, i-1)
}

// IsAncestor reports whether anc is id or one of its ancestors.
func (t *Tree) IsAncestor(anc, id NodeID) bool {
	for n := id; n.IsValid(); n = t.Parent(n) {
		if n == anc {
			return true
		}
	}
	return false
}

// IsAttached reports whether the node is reachable from the root.
func (t *Tree) IsAttached(id NodeID) bool {
	return t.IsAncestor(t.Root, id)
}

// Walk visits the subtree rooted at id in pre-order. Children are skipped
// when visit returns false. The child list is snapshotted per node so visit
// may edit the node it is given.
func (t *Tree) Walk(id NodeID, visit func(NodeID) bool) {
	if !visit(id) {
		return
	}
	for _, c := range slices.Clone(t.node(id).children) {
		t.Walk(c, visit)
	}
}

// ----------------------------------------------------------------------------
// Edge Operations
// ----------------------------------------------------------------------------

func (t *Tree) adopt(parent, child NodeID) {
	n := t.node(child)
	if n.parent.IsValid() {
		panic(fmt.Sprintf("ast: %v node %d already has a parent", n.Kind, child))
	}
	if child == t.Root {
		panic("ast: cannot adopt the root")
	}
	n.parent = parent
}

// AddChildToBack appends child to parent's children.
func (t *Tree) AddChildToBack(parent, child NodeID) {
	t.adopt(parent, child)
	p := t.node(parent)
	p.children = append(p.children, child)
}

// AddChildToFront prepends child to parent's children.
func (t *Tree) AddChildToFront(parent, child NodeID) {
	t.insertAt(parent, 0, child)
}

// AddChildBefore inserts child as the sibling immediately before ref.
func (t *Tree) AddChildBefore(child, ref NodeID) {
	i := t.IndexInParent(ref)
	if i < 0 {
		panic("ast: reference node is detached")
	}
	t.insertAt(t.Parent(ref), i, child)
}

// AddChildAfter inserts child as the sibling immediately after ref.
func (t *Tree) AddChildAfter(child, ref NodeID) {
	i := t.IndexInParent(ref)
	if i < 0 {
		panic("ast: reference node is detached")
	}
	t.insertAt(t.Parent(ref), i+1, child)
}

func (t *Tree) insertAt(parent NodeID, i int, child NodeID) {
	t.adopt(parent, child)
	p := t.node(parent)
	p.children = slices.Insert(p.children, i, child)
}

// ReplaceChild swaps old, a child of parent, for the detached node repl.
// old is left detached.
func (t *Tree) ReplaceChild(parent, old, repl NodeID) {
	p := t.node(parent)
	i := slices.Index(p.children, old)
	if i < 0 {
		panic(fmt.Sprintf("ast: node %d is not a child of %d", old, parent))
	}
	t.adopt(parent, repl)
	p.children[i] = repl
	t.node(old).parent = InvalidNode
}

// Replace swaps an attached node for the detached node repl.
func (t *Tree) Replace(old, repl NodeID) {
	parent := t.Parent(old)
	if !parent.IsValid() {
		panic("ast: cannot replace a detached node")
	}
	t.ReplaceChild(parent, old, repl)
}

// RemoveChild detaches child from parent.
func (t *Tree) RemoveChild(parent, child NodeID) {
	p := t.node(parent)
	i := slices.Index(p.children, child)
	if i < 0 {
		panic(fmt.Sprintf("ast: node %d is not a child of %d", child, parent))
	}
	p.children = slices.Delete(p.children, i, i+1)
	t.node(child).parent = InvalidNode
}

// Detach removes the node from its parent, if any, and returns it.
func (t *Tree) Detach(id NodeID) NodeID {
	if parent := t.Parent(id); parent.IsValid() {
		t.RemoveChild(parent, id)
	}
	return id
}

// DetachChildren removes and returns all children of id.
func (t *Tree) DetachChildren(id NodeID) []NodeID {
	n := t.node(id)
	children := n.children
	n.children = nil
	for _, c := range children {
		t.node(c).parent = InvalidNode
	}
	return children
}

// CloneTree returns a detached deep copy of the subtree rooted at id.
func (t *Tree) CloneTree(id NodeID) NodeID {
	src := *t.node(id)
	clone := t.NewNode(src.Kind, src.Str)
	t.node(clone).Flags = src.Flags
	t.node(clone).Loc = src.Loc
	for _, c := range src.children {
		t.AddChildToBack(clone, t.CloneTree(c))
	}
	return clone
}

// ----------------------------------------------------------------------------
// Constructors
// ----------------------------------------------------------------------------

// NewName creates a name reference.
func (t *Tree) NewName(name string) NodeID {
	return t.NewNode(KindName, name)
}

// NewNumber creates a numeric literal from its source text.
func (t *Tree) NewNumber(text string) NodeID {
	return t.NewNode(KindNumber, text)
}

// NewUndefined creates "void 0".
func (t *Tree) NewUndefined() NodeID {
	return t.NewNode(KindUnary, "void", t.NewNumber("0"))
}

// NewVar creates "var name = init;". init may be InvalidNode.
func (t *Tree) NewVar(name string, init NodeID) NodeID {
	n := t.NewName(name)
	if init.IsValid() {
		t.AddChildToBack(n, init)
	}
	return t.NewNode(KindVar, "", n)
}

// NewExprResult wraps an expression into a statement.
func (t *Tree) NewExprResult(expr NodeID) NodeID {
	return t.NewNode(KindExprResult, "", expr)
}

// NewAssign creates "target = value".
func (t *Tree) NewAssign(target, value NodeID) NodeID {
	return t.NewNode(KindAssign, "=", target, value)
}

// NewBlock creates a block holding the given statements.
func (t *Tree) NewBlock(stmts ...NodeID) NodeID {
	return t.NewNode(KindBlock, "", stmts...)
}

// NewLabel creates "label: body".
func (t *Tree) NewLabel(label string, body NodeID) NodeID {
	return t.NewNode(KindLabel, label, body)
}

// NewBreak creates "break label;" (label may be empty).
func (t *Tree) NewBreak(label string) NodeID {
	return t.NewNode(KindBreak, label)
}
