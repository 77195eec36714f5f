package dom

import (
	"fmt"

	"golang.org/x/net/html"
)

// Mutation is a single planned change to a document
type Mutation interface {
	Apply() error
	String() string
}

// AddClassMutation adds a class name to an element
type AddClassMutation struct {
	Node  *html.Node
	Class string
}

func (m AddClassMutation) Apply() error {
	if m.Node == nil || m.Node.Type != html.ElementNode {
		return fmt.Errorf("add class %q: not an element", m.Class)
	}
	AddClass(m.Node, m.Class)
	return nil
}

func (m AddClassMutation) String() string {
	return fmt.Sprintf("add-class %s on <%s>", m.Class, nodeName(m.Node))
}

// SetStyleMutation sets one inline style property on an element
type SetStyleMutation struct {
	Node     *html.Node
	Property string
	Value    string
}

func (m SetStyleMutation) Apply() error {
	if m.Node == nil || m.Node.Type != html.ElementNode {
		return fmt.Errorf("set style %s: not an element", m.Property)
	}
	current, _ := Attr(m.Node, "style")
	SetAttr(m.Node, "style", SetStyleProperty(current, m.Property, m.Value))
	return nil
}

func (m SetStyleMutation) String() string {
	return fmt.Sprintf("set-style %s=%s on <%s>", m.Property, m.Value, nodeName(m.Node))
}

// AppendMutation appends detached nodes as the last children of Parent
type AppendMutation struct {
	Parent   *html.Node
	Children []*html.Node
}

func (m AppendMutation) Apply() error {
	if m.Parent == nil {
		return fmt.Errorf("append: no parent")
	}
	for _, c := range m.Children {
		if c.Parent != nil {
			return fmt.Errorf("append <%s>: node already attached", nodeName(c))
		}
		m.Parent.AppendChild(c)
	}
	return nil
}

func (m AppendMutation) String() string {
	return fmt.Sprintf("append %d node(s) to <%s>", len(m.Children), nodeName(m.Parent))
}

func nodeName(n *html.Node) string {
	if n == nil {
		return "nil"
	}
	if n.Type == html.DocumentNode {
		return "#document"
	}
	return n.Data
}
