package reveal

// elementIDCounter is a plain counter (no atomic; documents are single-threaded).
var elementIDCounter uint32

func nextElementID() uint32 {
	elementIDCounter++
	return elementIDCounter
}

// Element is a visual element in a Document. Identity is the pointer: two
// elements with equal fields are still different elements.
//
// Layout fields (X, Y, Width, Height, Offset) are owned by the application.
// Attributes and the inline Style written by the reveal engine are owned by
// the engine.
type Element struct {
	// Identity
	ID      uint32
	Name    string
	Classes []string

	// Hierarchy
	Parent   *Element
	children []*Element

	// Layout box relative to the parent.
	X, Y, Width, Height float64

	// Offset is a hand-authored positional offset (the equivalent of an
	// explicit top/left on a relatively positioned box). A non-zero component
	// means the application placed the element deliberately along that axis.
	Offset Vec2

	// Color is the fill used by Document.Draw.
	Color Color

	attrs map[string]string

	// Inline style written through SetStyle, and the value currently shown
	// (differs from style while a transition or animation runs).
	style       Style
	styleSet    bool
	computed    Style
	styleWrites int

	transition *Transition
	running    *runningTransition
	animations []*Animation

	doc      *Document // non-nil only on a document root
	disposed bool
}

// NewElement creates a detached element with the given name and classes.
func NewElement(name string, classes ...string) *Element {
	return &Element{
		ID:       nextElementID(),
		Name:     name,
		Classes:  classes,
		Color:    ColorWhite,
		computed: NeutralStyle(),
	}
}

// NewBox creates a detached element with a layout box.
func NewBox(name string, x, y, w, h float64, classes ...string) *Element {
	e := NewElement(name, classes...)
	e.X, e.Y, e.Width, e.Height = x, y, w, h
	return e
}

// --- Tree manipulation ---

// AddChild appends child to this element's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this element (cycle).
func (e *Element) AddChild(child *Element) {
	if child == nil {
		panic("reveal: cannot add nil child")
	}
	if isAncestor(child, e) {
		panic("reveal: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = e
	e.children = append(e.children, child)
}

// RemoveChild detaches child from this element. If the element was part of
// a document, the document's removal observers are notified on the next frame.
// Panics if child.Parent != e.
func (e *Element) RemoveChild(child *Element) {
	if child.Parent != e {
		panic("reveal: child's parent is not this element")
	}
	doc := e.Document()
	e.removeChildByPtr(child)
	child.Parent = nil
	if doc != nil {
		doc.noteRemoved(child)
	}
}

// RemoveFromParent detaches this element from its parent.
// No-op if this element has no parent.
func (e *Element) RemoveFromParent() {
	if e.Parent == nil {
		return
	}
	e.Parent.RemoveChild(e)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (e *Element) Children() []*Element {
	return e.children
}

// NumChildren returns the number of children.
func (e *Element) NumChildren() int {
	return len(e.children)
}

// Dispose removes this element from its parent, marks it as disposed,
// and recursively disposes all descendants.
func (e *Element) Dispose() {
	if e.disposed {
		return
	}
	e.RemoveFromParent()
	e.dispose()
}

func (e *Element) dispose() {
	e.disposed = true
	for _, child := range e.children {
		child.Parent = nil
		child.dispose()
	}
	e.children = nil
	e.Parent = nil
	e.running = nil
	e.animations = nil
	e.transition = nil
}

// IsDisposed returns true if this element has been disposed.
func (e *Element) IsDisposed() bool {
	return e.disposed
}

// Document returns the document this element is attached to, or nil.
func (e *Element) Document() *Document {
	root := e
	for root.Parent != nil {
		root = root.Parent
	}
	return root.doc
}

// Connected reports whether the element is attached to a document.
func (e *Element) Connected() bool {
	return !e.disposed && e.Document() != nil
}

// --- Classes and attributes ---

// HasClass reports whether the element carries the class.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends classes that are not already present.
func (e *Element) AddClass(classes ...string) {
	for _, c := range classes {
		if !e.HasClass(c) {
			e.Classes = append(e.Classes, c)
		}
	}
}

// SetAttr sets an attribute value.
func (e *Element) SetAttr(name, value string) {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
}

// Attr returns an attribute value and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.attrs[name]
	return ok
}

// RemoveAttr deletes an attribute. No-op when absent.
func (e *Element) RemoveAttr(name string) {
	delete(e.attrs, name)
}

// --- Geometry ---

// Bounds returns the element's layout box in document coordinates: the sum
// of its own and its ancestors' positions plus hand-authored offsets.
// Engine-applied transforms are not included.
func (e *Element) Bounds() Rect {
	x, y := 0.0, 0.0
	for p := e; p != nil; p = p.Parent {
		x += p.X + p.Offset.X
		y += p.Y + p.Offset.Y
	}
	return Rect{X: x, Y: y, Width: e.Width, Height: e.Height}
}

// Geometry returns a snapshot of the element's hand-authored positioning.
func (e *Element) Geometry() Geometry {
	return Geometry{OffsetX: e.Offset.X, OffsetY: e.Offset.Y}
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of el.
func isAncestor(candidate, el *Element) bool {
	for p := el; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from e.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (e *Element) removeChildByPtr(child *Element) {
	for i, c := range e.children {
		if c == child {
			copy(e.children[i:], e.children[i+1:])
			e.children[len(e.children)-1] = nil
			e.children = e.children[:len(e.children)-1]
			return
		}
	}
}

// walk visits e and its descendants in document order.
func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.children {
		c.walk(fn)
	}
}
