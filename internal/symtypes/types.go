// Package symtypes holds the value types shared by every layer of the
// symbol graph engine: positions, ranges, symbols, and the closed
// enumerations for symbol and edge kinds.
package symtypes

import "fmt"

// Position is a zero-based line/column location inside a file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Less reports whether p sorts lexicographically before o.
func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// Range is an ordered pair of positions. Start must sort no later than
// End; callers that build a Range from untrusted input should use
// NewRange rather than a struct literal.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// NewRange returns a Range with start and end ordered so Start <= End.
func NewRange(a, b Position) Range {
	if b.Less(a) {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

// Contains reports whether p falls within r, inclusive at both ends.
func (r Range) Contains(p Position) bool {
	return !p.Less(r.Start) && !r.End.Less(p)
}

// SymbolKind is the closed tagged enumeration of symbol kinds an
// extractor may attach to a Symbol.
type SymbolKind uint8

const (
	KindUnknown SymbolKind = iota
	KindFile
	KindModule
	KindNamespace
	KindPackage
	KindClass
	KindMethod
	KindProperty
	KindField
	KindConstructor
	KindEnum
	KindInterface
	KindFunction
	KindVariable
	KindConstant
	KindString
	KindNumber
	KindBoolean
	KindArray
	KindObject
	KindKey
	KindNull
	KindEnumMember
	KindStruct
	KindEvent
	KindOperator
	KindTypeParameter
	KindParameter
	KindReference
	KindTrait
	KindTypeAlias
)

var symbolKindNames = [...]string{
	KindUnknown:       "unknown",
	KindFile:          "file",
	KindModule:        "module",
	KindNamespace:     "namespace",
	KindPackage:       "package",
	KindClass:         "class",
	KindMethod:        "method",
	KindProperty:      "property",
	KindField:         "field",
	KindConstructor:   "constructor",
	KindEnum:          "enum",
	KindInterface:     "interface",
	KindFunction:      "function",
	KindVariable:      "variable",
	KindConstant:      "constant",
	KindString:        "string",
	KindNumber:        "number",
	KindBoolean:       "boolean",
	KindArray:         "array",
	KindObject:        "object",
	KindKey:           "key",
	KindNull:          "null",
	KindEnumMember:    "enum_member",
	KindStruct:        "struct",
	KindEvent:         "event",
	KindOperator:      "operator",
	KindTypeParameter: "type_parameter",
	KindParameter:     "parameter",
	KindReference:     "reference",
	KindTrait:         "trait",
	KindTypeAlias:     "type_alias",
}

// String implements fmt.Stringer.
func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) && symbolKindNames[k] != "" {
		return symbolKindNames[k]
	}
	return "unknown"
}

// IsTypeLike reports whether the kind is a "type-like" symbol for the
// purposes of type-relations and type-hierarchy traversal.
func (k SymbolKind) IsTypeLike() bool {
	switch k {
	case KindClass, KindInterface, KindEnum, KindModule, KindNamespace, KindStruct, KindTrait:
		return true
	default:
		return false
	}
}

// IsCallable reports whether the kind participates in call-hierarchy
// traversal as a node that can be called.
func (k SymbolKind) IsCallable() bool {
	return k == KindFunction || k == KindMethod || k == KindConstructor
}

// EdgeKind is the closed enumeration of relation kinds between two
// symbols in the graph.
type EdgeKind uint8

const (
	EdgeDefinition EdgeKind = iota
	EdgeReference
	EdgeTypeDefinition
	EdgeImplementation
	EdgeOverride
	EdgeImport
	EdgeExport
	EdgeContains
)

var edgeKindNames = [...]string{
	EdgeDefinition:     "definition",
	EdgeReference:      "reference",
	EdgeTypeDefinition: "type_definition",
	EdgeImplementation: "implementation",
	EdgeOverride:       "override",
	EdgeImport:         "import",
	EdgeExport:         "export",
	EdgeContains:       "contains",
}

// String implements fmt.Stringer.
func (k EdgeKind) String() string {
	if int(k) < len(edgeKindNames) {
		return edgeKindNames[k]
	}
	return "unknown"
}

// Symbol is a named source-code entity with a location.
//
// ID follows the canonical form "<file>#<line>:<character>:<name>".
// CanonicalID reconstructs it from the other fields so callers that
// received a non-conforming ID from an extractor can be normalized.
type Symbol struct {
	ID            string     `json:"id"`
	Kind          SymbolKind `json:"kind"`
	Name          string     `json:"name"`
	FilePath      string     `json:"file_path"`
	Range         Range      `json:"range"`
	Documentation string     `json:"documentation,omitempty"`
	Detail        string     `json:"detail,omitempty"`
}

// CanonicalID returns the canonical id for the symbol's current
// file/range/name, independent of whatever value is in s.ID.
func (s Symbol) CanonicalID() string {
	return fmt.Sprintf("%s#%d:%d:%s", s.FilePath, s.Range.Start.Line, s.Range.Start.Column, s.Name)
}

// Normalize returns a copy of s with ID set to its canonical form when
// the stored ID does not already match it. This is used by the graph
// store to absorb extractor output that used a non-conforming id.
func (s Symbol) Normalize() Symbol {
	if s.ID != s.CanonicalID() {
		s.ID = s.CanonicalID()
	}
	return s
}

// Equal reports whether two symbols have identical fields other than
// ID, used by the incremental index to detect "modified" vs
// "unchanged" within an id-matched pair.
func (s Symbol) Equal(o Symbol) bool {
	return s.Kind == o.Kind &&
		s.Name == o.Name &&
		s.FilePath == o.FilePath &&
		s.Range == o.Range &&
		s.Documentation == o.Documentation &&
		s.Detail == o.Detail
}

// Direction selects which incident edges neighbors() enumerates.
type Direction uint8

const (
	DirOutgoing Direction = iota
	DirIncoming
	DirBoth
)
