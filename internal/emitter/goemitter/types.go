package goemitter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/openapi2sdk/internal/sdkgen"
	genspec "github.com/mark3labs/openapi2sdk/internal/spec"
)

// defKind is the Go shape chosen for a components.schemas entry.
type defKind int

const (
	kindAny    defKind = iota // type X = any
	kindStruct                // type X struct{...}
	kindMap                   // type X map[string]V
	kindSlice                 // type X []E
	kindScalar                // type X string|int64|...
	kindEnum                  // type X string plus constants
	kindRaw                   // type X = json.RawMessage (oneOf/anyOf)
	kindAlias                 // type X = Y (a $ref alias)
)

type definition struct {
	SchemaName string
	GoName     string
	Kind       defKind
	Schema     genspec.Schema
}

// typeIndex resolves schema names to generated Go types.
type typeIndex struct {
	defs  map[string]*definition
	order []string // schema names, sorted
}

func newTypeIndex(sm *genspec.ServiceModel) (*typeIndex, error) {
	idx := &typeIndex{defs: map[string]*definition{}}
	owners := map[string]string{}
	for _, name := range sm.SchemaNames {
		s := sm.Schemas[name]
		goName := exportedName(name)
		if goName == "" {
			goName = "Schema"
		}
		if prev, dup := owners[goName]; dup {
			return nil, &sdkgen.ConfigError{
				Code:    sdkgen.DuplicateName,
				Message: fmt.Sprintf("schemas %q and %q both map to Go type %s", prev, name, goName),
			}
		}
		owners[goName] = name
		idx.defs[name] = &definition{SchemaName: name, GoName: goName, Kind: classify(s), Schema: s}
		idx.order = append(idx.order, name)
	}
	return idx, nil
}

func classify(s genspec.Schema) defKind {
	switch {
	case len(s.OneOf) > 0 || len(s.AnyOf) > 0:
		return kindRaw
	case len(s.AllOf) == 1 && s.AllOf[0] != nil && s.AllOf[0].Ref != nil && len(s.Properties) == 0:
		return kindAlias
	case len(s.AllOf) > 0 || len(s.Properties) > 0:
		return kindStruct
	case s.Type == "object":
		return kindMap
	case s.Type == "array":
		return kindSlice
	case s.Type == "string" && len(s.Enum) > 0:
		return kindEnum
	case s.Type == "string" || s.Type == "integer" || s.Type == "number" || s.Type == "boolean":
		return kindScalar
	}
	return kindAny
}

func (idx *typeIndex) lookup(schemaName string) *definition {
	return idx.defs[schemaName]
}

// isStruct reports whether schemaName names a struct, following aliases.
func (idx *typeIndex) isStruct(schemaName string) bool {
	seen := map[string]bool{}
	for d := idx.lookup(schemaName); d != nil && !seen[d.SchemaName]; {
		seen[d.SchemaName] = true
		switch d.Kind {
		case kindStruct:
			return true
		case kindAlias:
			d = idx.lookup(d.Schema.AllOf[0].Ref.Name())
		default:
			return false
		}
	}
	return false
}

// refType is the Go type for a $ref, qualified with pkg ("" inside the
// definitions package). Unknown references degrade to any.
func (idx *typeIndex) refType(name, pkg string) string {
	d := idx.lookup(name)
	if d == nil {
		return "any"
	}
	if pkg == "" {
		return d.GoName
	}
	return pkg + "." + d.GoName
}

// goType maps a schema to a Go type expression.
func (idx *typeIndex) goType(sor *genspec.SchemaOrRef, pkg string) string {
	if sor == nil {
		return "any"
	}
	if sor.Ref != nil {
		return idx.refType(sor.Ref.Name(), pkg)
	}
	s := sor.Schema
	if s == nil {
		return "any"
	}
	switch {
	case len(s.OneOf) > 0 || len(s.AnyOf) > 0:
		return "json.RawMessage"
	case len(s.AllOf) == 1 && len(s.Properties) == 0:
		return idx.goType(s.AllOf[0], pkg)
	}
	switch s.Type {
	case "string":
		return "string"
	case "integer":
		if s.Format == "int32" {
			return "int32"
		}
		return "int64"
	case "number":
		if s.Format == "float" {
			return "float32"
		}
		return "float64"
	case "boolean":
		return "bool"
	case "array":
		return "[]" + idx.goType(s.Items, pkg)
	case "object":
		if s.AdditionalProperties != nil && len(s.Properties) == 0 {
			return "map[string]" + idx.goType(s.AdditionalProperties, pkg)
		}
		return "map[string]any"
	}
	return "any"
}

// optionalType adds a pointer where the zero value cannot mean "absent".
func optionalType(typ string) string {
	for _, prefix := range []string{"*", "[]", "map[", "any", "json.RawMessage"} {
		if strings.HasPrefix(typ, prefix) {
			return typ
		}
	}
	return "*" + typ
}

func jsonTag(name string, required bool) string {
	if required {
		return fmt.Sprintf("`json:%q`", name)
	}
	return fmt.Sprintf("`json:%q`", name+",omitempty")
}

// reaches reports whether a required struct-valued field chain leads from
// schema from back to target. Such fields are emitted as pointers.
func (idx *typeIndex) reaches(from, target string, seen map[string]bool) bool {
	if from == target {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true
	d := idx.lookup(from)
	if d == nil || d.Kind != kindStruct {
		return false
	}
	for _, p := range d.Schema.Properties {
		if p.Schema == nil || p.Schema.Ref == nil || !d.Schema.IsRequired(p.Name) {
			continue
		}
		if idx.reaches(p.Schema.Ref.Name(), target, seen) {
			return true
		}
	}
	for _, a := range d.Schema.AllOf {
		if a != nil && a.Ref != nil && idx.reaches(a.Ref.Name(), target, seen) {
			return true
		}
	}
	return false
}

// Template views.

type fieldView struct {
	Name string
	Type string
	Tag  string
	Doc  string
}

type structView struct {
	Name   string
	Doc    string
	Embeds []string
	Fields []fieldView
}

type constView struct {
	Name  string
	Value string
}

type defView struct {
	Name       string
	Doc        string
	Decl       string // "struct", "alias", "named"
	Underlying string
	Struct     structView
	Consts     []constView
}

func (idx *typeIndex) definitionViews() []defView {
	out := make([]defView, 0, len(idx.order))
	for _, name := range idx.order {
		d := idx.defs[name]
		v := defView{Name: d.GoName, Doc: definitionDoc(d)}
		s := d.Schema
		switch d.Kind {
		case kindStruct:
			v.Decl = "struct"
			v.Struct = idx.structFromSchema(d)
			v.Struct.Doc = v.Doc
		case kindAlias:
			v.Decl = "alias"
			v.Underlying = idx.refType(s.AllOf[0].Ref.Name(), "")
		case kindRaw:
			v.Decl = "alias"
			v.Underlying = "json.RawMessage"
		case kindAny:
			v.Decl = "alias"
			v.Underlying = "any"
		case kindEnum:
			v.Decl = "named"
			v.Underlying = "string"
			v.Consts = enumConsts(d.GoName, s.Enum)
		default:
			v.Decl = "named"
			v.Underlying = idx.goType(&genspec.SchemaOrRef{Schema: &s}, "")
		}
		out = append(out, v)
	}
	return out
}

func definitionDoc(d *definition) string {
	doc := fmt.Sprintf("%s is the %s schema.", d.GoName, d.SchemaName)
	if desc := strings.TrimSpace(d.Schema.Description); desc != "" {
		doc += "\n\n" + desc
	}
	return doc
}

// structFromSchema flattens allOf members into one struct: struct refs are
// embedded, inline members contribute their properties.
func (idx *typeIndex) structFromSchema(d *definition) structView {
	sv := structView{Name: d.GoName}
	names := uniqueNamer{}
	var props []genspec.Property
	required := map[string]bool{}
	for _, r := range d.Schema.Required {
		required[r] = true
	}
	for _, a := range d.Schema.AllOf {
		switch {
		case a == nil:
		case a.Ref != nil:
			if idx.isStruct(a.Ref.Name()) {
				typ := idx.refType(a.Ref.Name(), "")
				names.next(typ)
				sv.Embeds = append(sv.Embeds, typ)
			}
		case a.Schema != nil:
			props = append(props, a.Schema.Properties...)
			for _, r := range a.Schema.Required {
				required[r] = true
			}
		}
	}
	props = append(props, d.Schema.Properties...)
	seenProp := map[string]bool{}
	for _, p := range props {
		if seenProp[p.Name] {
			continue
		}
		seenProp[p.Name] = true
		typ := idx.goType(p.Schema, "")
		req := required[p.Name]
		switch {
		case !req:
			typ = optionalType(typ)
		case p.Schema != nil && p.Schema.Ref != nil && idx.isStruct(p.Schema.Ref.Name()) &&
			idx.reaches(p.Schema.Ref.Name(), d.SchemaName, map[string]bool{}):
			typ = "*" + typ
		}
		goName := exportedName(p.Name)
		if goName == "" {
			goName = "Field"
		}
		var doc string
		if p.Schema != nil && p.Schema.Schema != nil {
			doc = p.Schema.Schema.Description
		}
		sv.Fields = append(sv.Fields, fieldView{
			Name: names.next(goName),
			Type: typ,
			Tag:  jsonTag(p.Name, req),
			Doc:  doc,
		})
	}
	return sv
}

func enumConsts(typeName string, values []any) []constView {
	names := uniqueNamer{}
	var out []constView
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		suffix := exportedName(s)
		if suffix == "" {
			suffix = "Value" + strconv.Itoa(i)
		}
		out = append(out, constView{Name: names.next(typeName + suffix), Value: strconv.Quote(s)})
	}
	return out
}
