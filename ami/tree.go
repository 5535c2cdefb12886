// Package ami models IBIS-AMI parameter trees and their textual wire form.
//
// A parameter tree is an ordered mapping of names to either leaf values
// (int, float64, string) or nested subtrees. The textual form is the
// parenthesized, whitespace-delimited format that AMI_Init consumes and
// returns, e.g. (example_tx (tx_tap_units 27) (tx_tap_np1 0)).
package ami

import "fmt"

// Tree is an ordered mapping of parameter names to leaves or subtrees.
// A name holds either a leaf value or a subtree, never both.
type Tree struct {
	names []string
	nodes map[string]any
}

// Root is the single named subtree at the top of every parameter tree.
// Name must match the model's declared root name (e.g. "example_tx").
type Root struct {
	Name   string
	Params *Tree
}

func NewTree() *Tree {
	return &Tree{nodes: make(map[string]any)}
}

// Set stores a leaf value or subtree under name. Replacing an existing
// entry keeps its position; a new name is appended. Accepted value types
// are int, float64, string and *Tree.
func (t *Tree) Set(name string, value any) error {
	switch v := value.(type) {
	case int, float64, string:
	case *Tree:
		if v == nil {
			return fmt.Errorf("ami: nil subtree for %q", name)
		}
	default:
		return fmt.Errorf("ami: unsupported value type %T for %q", value, name)
	}
	if t.nodes == nil {
		t.nodes = make(map[string]any)
	}
	if _, ok := t.nodes[name]; !ok {
		t.names = append(t.names, name)
	}
	t.nodes[name] = value
	return nil
}

// Get returns the node stored under name.
func (t *Tree) Get(name string) (any, bool) {
	if t == nil || t.nodes == nil {
		return nil, false
	}
	v, ok := t.nodes[name]
	return v, ok
}

// Names returns the entry names in insertion order.
func (t *Tree) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Clone returns a deep copy.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	out := NewTree()
	for _, name := range t.names {
		v := t.nodes[name]
		if sub, ok := v.(*Tree); ok {
			v = sub.Clone()
		}
		out.names = append(out.names, name)
		out.nodes[name] = v
	}
	return out
}

// Merge overlays src onto t in place. Leaves replace leaves, subtrees merge
// recursively, and a leaf/subtree mismatch replaces the existing entry.
// Names new to t are appended in src order.
func (t *Tree) Merge(src *Tree) {
	if t == nil || src == nil {
		return
	}
	for _, name := range src.names {
		sv := src.nodes[name]
		dv, ok := t.nodes[name]
		if ok {
			dsub, dIsTree := dv.(*Tree)
			ssub, sIsTree := sv.(*Tree)
			if dIsTree && sIsTree {
				dsub.Merge(ssub)
				continue
			}
		}
		if sub, isTree := sv.(*Tree); isTree {
			sv = sub.Clone()
		}
		_ = t.Set(name, sv)
	}
}

// Equal reports whether two trees hold the same entries in the same order.
func (t *Tree) Equal(o *Tree) bool {
	if t.Len() != o.Len() {
		return false
	}
	if t == nil || o == nil {
		return true
	}
	for i, name := range t.names {
		if o.names[i] != name {
			return false
		}
		a := t.nodes[name]
		b := o.nodes[name]
		asub, aIsTree := a.(*Tree)
		bsub, bIsTree := b.(*Tree)
		if aIsTree != bIsTree {
			return false
		}
		if aIsTree {
			if !asub.Equal(bsub) {
				return false
			}
			continue
		}
		if a != b {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the root and its parameters.
func (r *Root) Clone() *Root {
	if r == nil {
		return nil
	}
	return &Root{Name: r.Name, Params: r.Params.Clone()}
}

// Equal reports whether two roots carry the same name and parameters.
func (r *Root) Equal(o *Root) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Name == o.Name && r.Params.Equal(o.Params)
}
