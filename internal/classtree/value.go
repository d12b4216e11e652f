package classtree

import "fmt"

// FieldIdentity names a scored database field. All three parts take part in equality.
type FieldIdentity struct {
	Database string
	Table    string
	Field    string
}

// String renders the identity as "database-table-field".
func (f FieldIdentity) String() string {
	return f.Database + "-" + f.Table + "-" + f.Field
}

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindRoot Kind = iota
	KindClass
	KindLeaf
)

// Value is the payload of a tree node: the root marker, a classification
// label, or a field identity. Values are comparable with ==.
type Value struct {
	kind  Kind
	label string
	field FieldIdentity
}

// RootValue returns the value held by the single root node.
func RootValue() Value {
	return Value{kind: KindRoot}
}

// Class returns a classification value for label.
func Class(label string) Value {
	return Value{kind: KindClass, label: label}
}

// Leaf returns a field value.
func Leaf(f FieldIdentity) Value {
	return Value{kind: KindLeaf, field: f}
}

func (v Value) Kind() Kind { return v.kind }

// Label returns the classification label; empty for non-class values.
func (v Value) Label() string { return v.label }

// Field returns the field identity; zero for non-leaf values.
func (v Value) Field() FieldIdentity { return v.field }

func (v Value) String() string {
	switch v.kind {
	case KindRoot:
		return "root"
	case KindClass:
		return fmt.Sprintf("class(%s)", v.label)
	case KindLeaf:
		return fmt.Sprintf("field(%s)", v.field)
	default:
		return fmt.Sprintf("unknown(%d)", v.kind)
	}
}
