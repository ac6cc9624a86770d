package colinfo

import "strings"

// Declared schema types with special handling.
const (
	DeclaredDateTime = "dt"
	DeclaredFlag     = "bool_flag"
)

// Kind classifies a normalized type tag.
type Kind int

const (
	// KindPassthrough casts with the cast primitive named by TypeTag.Name.
	KindPassthrough Kind = iota
	// KindDateTime parses the column as date/time.
	KindDateTime
	// KindBoolean casts the column to bool. Flag columns normalize to this.
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindDateTime:
		return "datetime"
	case KindBoolean:
		return "boolean"
	default:
		return "passthrough"
	}
}

// TypeTag is the normalized coercion for a column.
type TypeTag struct {
	Kind Kind
	Name string
}

// ParseTypeTag normalizes a declared schema type. dt and bool_flag are
// special-cased; every other value is passed through verbatim.
func ParseTypeTag(declared string) TypeTag {
	declared = strings.TrimSpace(declared)
	switch declared {
	case DeclaredDateTime:
		return TypeTag{Kind: KindDateTime, Name: "dt"}
	case DeclaredFlag:
		return TypeTag{Kind: KindBoolean, Name: "bool"}
	default:
		return TypeTag{Kind: KindPassthrough, Name: declared}
	}
}

// String returns the normalized tag: "dt", "bool", or the passthrough name.
func (t TypeTag) String() string { return t.Name }
