package sdkgen

import (
	"strings"

	genspec "github.com/mark3labs/openapi2sdk/internal/spec"
)

// TypeKind tags the two forms a synthesized type can take.
type TypeKind int

const (
	// KindRef names a definition from components.schemas.
	KindRef TypeKind = iota
	// KindInline is a synthesized object with one field per parameter.
	KindInline
)

// TypeExpr is either Ref(Name) or Inline(Object).
type TypeExpr struct {
	Kind   TypeKind
	Name   string        // KindRef
	Object *InlineObject // KindInline

	// Param and Required describe the parameter a KindRef came from. Refs to
	// scalar definitions are emitted as a named field rather than merged.
	Param    string
	Required bool
}

// InlineObject is a closed object type: the listed fields and nothing else.
type InlineObject struct {
	Fields []Field
}

// Field is one member of an InlineObject, in declaration order.
type Field struct {
	Name        string
	Required    bool
	Description string
	// Schema is the parameter's own schema; nil means unconstrained.
	Schema *genspec.SchemaOrRef
}

// Composite is the intersection of its members. A nil or empty Composite is
// absent: the caller omits the slot.
type Composite []TypeExpr

func (c Composite) IsEmpty() bool { return len(c) == 0 }

// Refs returns the referenced definition names in order.
func (c Composite) Refs() []string {
	var out []string
	for _, t := range c {
		if t.Kind == KindRef {
			out = append(out, t.Name)
		}
	}
	return out
}

// Fields returns the inline fields, or nil.
func (c Composite) Fields() []Field {
	for _, t := range c {
		if t.Kind == KindInline && t.Object != nil {
			return t.Object.Fields
		}
	}
	return nil
}

// SingleRef reports whether c is exactly one named reference.
func (c Composite) SingleRef() (string, bool) {
	if len(c) == 1 && c[0].Kind == KindRef {
		return c[0].Name, true
	}
	return "", false
}

// String renders c in a neutral notation, e.g. "Paging & {id: string; q?: any}".
// It is stable for a given input and is what idempotence checks compare.
func (c Composite) String() string {
	parts := make([]string, 0, len(c))
	for _, t := range c {
		switch t.Kind {
		case KindRef:
			parts = append(parts, t.Name)
		case KindInline:
			fields := make([]string, 0, len(t.Object.Fields))
			for _, f := range t.Object.Fields {
				opt := "?"
				if f.Required {
					opt = ""
				}
				fields = append(fields, f.Name+opt+": "+schemaLabel(f.Schema))
			}
			parts = append(parts, "{"+strings.Join(fields, "; ")+"}")
		}
	}
	return strings.Join(parts, " & ")
}

func schemaLabel(sor *genspec.SchemaOrRef) string {
	switch {
	case sor == nil:
		return "any"
	case sor.Ref != nil:
		return sor.Ref.Name()
	case sor.Schema == nil || sor.Schema.Type == "":
		return "any"
	case sor.Schema.Type == "array":
		return schemaLabel(sor.Schema.Items) + "[]"
	default:
		return sor.Schema.Type
	}
}

// Synthesize turns the parameters of one location into a Composite. Named
// references are intersected in order; every other parameter becomes a field
// of a single inline object, in declaration order. If both forms are present
// the refs come first, followed by the inline object.
func Synthesize(params []genspec.ParameterModel) Composite {
	var refs Composite
	var fields []Field
	for _, p := range params {
		if p.Schema != nil && p.Schema.Ref != nil {
			refs = append(refs, TypeExpr{Kind: KindRef, Name: p.Schema.Ref.Name(), Param: p.Name, Required: p.Required})
			continue
		}
		fields = append(fields, Field{
			Name:        p.Name,
			Required:    p.Required,
			Description: p.Description,
			Schema:      p.Schema,
		})
	}
	if len(fields) == 0 {
		return refs
	}
	return append(refs, TypeExpr{Kind: KindInline, Object: &InlineObject{Fields: fields}})
}
