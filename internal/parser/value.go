package parser

import "strings"

// Kind distinguishes the two shapes a frontmatter value can take.
type Kind int

const (
	KindScalar Kind = iota
	KindList
)

func (k Kind) String() string {
	if k == KindList {
		return "list"
	}
	return "scalar"
}

// Value is a frontmatter value: either a single string or an ordered list of strings.
type Value struct {
	kind   Kind
	scalar string
	items  []string
}

// Scalar returns a single-string value.
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// List returns a list value. The result is never nil-backed, so an empty
// list stays distinguishable from an absent key.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, items: cp}
}

// Kind reports whether v is a scalar or a list.
func (v Value) Kind() Kind { return v.kind }

// IsList reports whether v holds a list.
func (v Value) IsList() bool { return v.kind == KindList }

// String returns the scalar text, or the list items joined by ", ".
func (v Value) String() string {
	if v.kind == KindList {
		return strings.Join(v.items, ", ")
	}
	return v.scalar
}

// Items returns a copy of the list items, or nil for a scalar.
func (v Value) Items() []string {
	if v.kind != KindList {
		return nil
	}
	cp := make([]string, len(v.items))
	copy(cp, v.items)
	return cp
}

// Equal reports whether v and o have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindScalar {
		return v.scalar == o.scalar
	}
	if len(v.items) != len(o.items) {
		return false
	}
	for i := range v.items {
		if v.items[i] != o.items[i] {
			return false
		}
	}
	return true
}
