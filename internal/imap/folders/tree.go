package folders

import (
	"strings"
)

// Node is one entry of a mailbox hierarchy. Delimiter is the separator the
// server reported for the node and joins it to its parent's path.
type Node[N any] interface {
	Name() string
	Delimiter() string
	Children() []N
}

// Flatten walks the hierarchy depth first and returns full paths, parents
// before children, siblings in their stored order. A path seen twice is
// emitted once.
func Flatten[N Node[N]](roots []N) []string {
	type frame struct {
		node   N
		prefix string
	}

	out := []string{}
	seen := map[string]bool{}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: roots[i]})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		path := top.node.Name()
		if top.prefix != "" {
			path = top.prefix + top.node.Delimiter() + path
		}
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}

		children := top.node.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], prefix: path})
		}
	}
	return out
}

// Mailbox is the hierarchy built from a flat LIST response.
type Mailbox struct {
	name     string
	delim    string
	children []*Mailbox
	index    map[string]*Mailbox
}

func (m *Mailbox) Name() string         { return m.name }
func (m *Mailbox) Delimiter() string    { return m.delim }
func (m *Mailbox) Children() []*Mailbox { return m.children }

func (m *Mailbox) child(name, delim string) *Mailbox {
	if m.index == nil {
		m.index = map[string]*Mailbox{}
	}
	if existing, ok := m.index[name]; ok {
		return existing
	}
	node := &Mailbox{name: name, delim: delim}
	m.index[name] = node
	m.children = append(m.children, node)
	return node
}

// Entry is one mailbox as reported by LIST. A zero Delim means the server
// has no hierarchy.
type Entry struct {
	Name  string
	Delim rune
}

// BuildTree nests flat LIST entries by their delimiter. Parents that the
// server did not list on their own are created in place so that every
// listed path is reachable.
func BuildTree(entries []Entry) []*Mailbox {
	root := &Mailbox{}
	for _, entry := range entries {
		if entry.Name == "" {
			continue
		}
		if entry.Delim == 0 {
			root.child(entry.Name, "")
			continue
		}

		delim := string(entry.Delim)
		node := root
		for _, part := range strings.Split(entry.Name, delim) {
			node = node.child(part, delim)
		}
	}
	return root.children
}
