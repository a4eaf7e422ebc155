package goemitter

import (
	"fmt"
	"strings"

	"github.com/mark3labs/openapi2sdk/internal/sdkgen"
)

// definitionsPkg is the package name generated controllers use to refer to
// schema types.
const definitionsPkg = "definitions"

type methodView struct {
	Name       string
	Doc        string
	Verb       string
	Path       string
	ParamsType string // empty when the method takes no parameter value
	ReturnType string
}

type controllerView struct {
	Module  string
	Name    string
	Field   string // facade field, lower-first
	File    string
	Doc     string
	Structs []structView
	Methods []methodView
}

// controllerNames maps every controller to its Go identifier and rejects two
// controllers that collapse onto the same identifier or file.
func controllerNames(ctrls []sdkgen.Controller) (map[string]string, error) {
	out := make(map[string]string, len(ctrls))
	owners := map[string]string{}
	files := map[string]string{}
	for _, c := range ctrls {
		goName := exportedName(c.Name)
		if goName == "" {
			return nil, &sdkgen.ConfigError{
				Code:    sdkgen.EmptyController,
				Message: fmt.Sprintf("controller %q has no usable Go name", c.Name),
			}
		}
		if prev, dup := owners[goName]; dup {
			return nil, &sdkgen.ConfigError{
				Code:    sdkgen.DuplicateName,
				Message: fmt.Sprintf("controllers %q and %q both map to Go type %s", prev, c.Name, goName),
			}
		}
		file := goFileName(fileName(goName))
		if prev, dup := files[file]; dup {
			return nil, &sdkgen.ConfigError{
				Code:    sdkgen.DuplicateName,
				Message: fmt.Sprintf("controllers %q and %q both map to file controllers/%s", prev, c.Name, file),
			}
		}
		owners[goName] = c.Name
		files[file] = c.Name
		out[c.Name] = goName
	}
	return out, nil
}

// checkPackageScope rejects two declarations of the controllers package that
// share an identifier: controller types, their constructors and the
// parameter structs of every method.
func checkPackageScope(views []controllerView) error {
	declared := map[string]string{}
	declare := func(ident, owner string) error {
		if prev, dup := declared[ident]; dup {
			return &sdkgen.ConfigError{
				Code:    sdkgen.DuplicateName,
				Message: fmt.Sprintf("%s and %s both declare controllers.%s", prev, owner, ident),
			}
		}
		declared[ident] = owner
		return nil
	}
	for _, v := range views {
		if err := declare(v.Name, "controller "+v.Name); err != nil {
			return err
		}
		if err := declare("New"+v.Name, "controller "+v.Name); err != nil {
			return err
		}
	}
	for _, v := range views {
		for _, st := range v.Structs {
			if err := declare(st.Name, "controller "+v.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildControllerView lays out one controller file. It is pure so controllers
// can be built in parallel.
func buildControllerView(idx *typeIndex, module, goName string, c sdkgen.Controller) (controllerView, error) {
	v := controllerView{
		Module: module,
		Name:   goName,
		Field:  lowerFirst(goName),
		File:   fileName(goName),
		Doc:    fmt.Sprintf("%s groups the operations of the %s controller.", goName, c.Name),
	}
	methodNames := map[string]sdkgen.Method{}
	for _, m := range c.Methods {
		name := exportedName(m.Name)
		if name == "Base" {
			// would collide with the embedded *sdkruntime.Base
			name = "BaseCall"
		}
		if name == "" {
			return controllerView{}, &sdkgen.ConfigError{
				Code:        sdkgen.EmptyMethod,
				Path:        m.PathTemplate,
				Method:      m.Verb,
				OperationID: m.OperationID,
				Message:     fmt.Sprintf("method %q has no usable Go name", m.Name),
			}
		}
		if prev, dup := methodNames[name]; dup {
			return controllerView{}, &sdkgen.ConfigError{
				Code:        sdkgen.DuplicateName,
				Path:        m.PathTemplate,
				Method:      m.Verb,
				OperationID: m.OperationID,
				Message:     fmt.Sprintf("methods %q and %q of %s both map to Go method %s", prev.OperationID, m.OperationID, goName, name),
			}
		}
		methodNames[name] = m

		mv := methodView{
			Name:       name,
			Doc:        methodDoc(name, m),
			Verb:       m.Verb,
			Path:       m.PathTemplate,
			ReturnType: payloadType(idx, m.Return),
		}
		if m.HasParameters() {
			structs := paramStructs(idx, goName+name, m)
			mv.ParamsType = structs[0].Name
			v.Structs = append(v.Structs, structs...)
		}
		v.Methods = append(v.Methods, mv)
	}
	return v, nil
}

func methodDoc(name string, m sdkgen.Method) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s calls %s %s.", name, m.Verb, m.PathTemplate)
	if s := strings.TrimSpace(m.Summary); s != "" {
		b.WriteString("\n\n" + s)
	}
	if d := strings.TrimSpace(m.Description); d != "" && d != strings.TrimSpace(m.Summary) {
		b.WriteString("\n\n" + d)
	}
	if m.Deprecated {
		b.WriteString("\n\nDeprecated: the API marks this operation as deprecated.")
	}
	return b.String()
}

func payloadType(idx *typeIndex, p sdkgen.Payload) string {
	if p.Unconstrained() {
		return "any"
	}
	return idx.refType(p.Ref, definitionsPkg)
}

// paramStructs returns the parameter struct of a method first, followed by
// the query and headers structs it refers to.
func paramStructs(idx *typeIndex, prefix string, m sdkgen.Method) []structView {
	params := structView{
		Name: prefix + "Params",
		Doc:  fmt.Sprintf("%sParams is the parameter value of %s %s.", prefix, m.Verb, m.PathTemplate),
	}
	names := uniqueNamer{"Query": 1, "Headers": 1, "Body": 1}
	embeds, fields := compositeMembers(idx, m.Path, names)
	params.Embeds = embeds
	params.Fields = fields

	extra := []structView{}
	if !m.Query.IsEmpty() {
		typ, sv := locationType(idx, prefix+"Query", "query", m.Query)
		params.Fields = append(params.Fields, fieldView{Name: "Query", Type: typ, Tag: jsonTag("query", true)})
		if sv != nil {
			extra = append(extra, *sv)
		}
	}
	if !m.Headers.IsEmpty() {
		typ, sv := locationType(idx, prefix+"Headers", "headers", m.Headers)
		params.Fields = append(params.Fields, fieldView{Name: "Headers", Type: typ, Tag: jsonTag("headers", true)})
		if sv != nil {
			extra = append(extra, *sv)
		}
	}
	if m.Body != nil {
		typ := payloadType(idx, *m.Body)
		params.Fields = append(params.Fields, fieldView{Name: "Body", Type: optionalType(typ), Tag: jsonTag("body", false)})
	}
	return append([]structView{params}, extra...)
}

// locationType is the Go type of a query or headers member. A single struct
// reference is used as is; anything else gets its own struct.
func locationType(idx *typeIndex, name, location string, c sdkgen.Composite) (string, *structView) {
	if ref, ok := c.SingleRef(); ok && idx.isStruct(ref) {
		return idx.refType(ref, definitionsPkg), nil
	}
	embeds, fields := compositeMembers(idx, c, uniqueNamer{})
	return name, &structView{
		Name:   name,
		Doc:    fmt.Sprintf("%s holds the %s parameters %s.", name, location, c.String()),
		Embeds: embeds,
		Fields: fields,
	}
}

// compositeMembers embeds struct references and turns scalar references and
// inline fields into named fields tagged with the parameter name.
func compositeMembers(idx *typeIndex, c sdkgen.Composite, names uniqueNamer) ([]string, []fieldView) {
	var embeds []string
	var fields []fieldView
	for _, t := range c {
		if t.Kind != sdkgen.KindRef {
			continue
		}
		typ := idx.refType(t.Name, definitionsPkg)
		if idx.isStruct(t.Name) {
			embeds = append(embeds, typ)
			names.next(idx.refType(t.Name, ""))
			continue
		}
		if !t.Required {
			typ = optionalType(typ)
		}
		fields = append(fields, fieldView{
			Name: names.next(fieldName(t.Param)),
			Type: typ,
			Tag:  jsonTag(t.Param, t.Required),
		})
	}
	for _, f := range c.Fields() {
		typ := idx.goType(f.Schema, definitionsPkg)
		if !f.Required {
			typ = optionalType(typ)
		}
		fields = append(fields, fieldView{
			Name: names.next(fieldName(f.Name)),
			Type: typ,
			Tag:  jsonTag(f.Name, f.Required),
			Doc:  f.Description,
		})
	}
	return embeds, fields
}

func fieldName(param string) string {
	if n := exportedName(param); n != "" {
		return n
	}
	return "Param"
}
