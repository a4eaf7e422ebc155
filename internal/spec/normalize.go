package spec

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// JSONMediaType is the only media type whose schemas reach the generator.
const JSONMediaType = "application/json"

// BuildOption configures how the ServiceModel is built from an OpenAPI doc.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// BuildServiceModel converts a loaded OpenAPI v3 document into the Internal
// Model (IM). Paths and verbs follow the document's declaration order when it
// is known; operation parameters keep their declaration order, with path-level
// parameters first and operation-level ones overriding them in place.
func BuildServiceModel(ctx context.Context, doc *Document, opts ...BuildOption) (*ServiceModel, error) {
	if doc == nil || doc.T == nil {
		return nil, fmt.Errorf("nil document")
	}
	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	t := doc.T
	sm := &ServiceModel{}
	if t.Info != nil {
		sm.Title = safeStr(t.Info.Title)
		sm.Version = safeStr(t.Info.Version)
		sm.Description = safeStr(t.Info.Description)
	}
	for _, s := range t.Servers {
		if s == nil {
			continue
		}
		sm.Servers = append(sm.Servers, Server{URL: safeStr(s.URL), Description: safeStr(s.Description)})
	}

	if t.Components != nil && len(t.Components.Schemas) > 0 {
		sm.Schemas = make(map[string]Schema, len(t.Components.Schemas))
		for name, ref := range t.Components.Schemas {
			sor := toSchemaOrRef(ref)
			if sor == nil {
				continue
			}
			if sor.Ref != nil {
				// An alias to another component: keep it as allOf of the target.
				sm.Schemas[name] = Schema{Name: name, AllOf: []*SchemaOrRef{sor}}
				continue
			}
			schema := *sor.Schema
			schema.Name = name
			sm.Schemas[name] = schema
		}
		sm.SchemaNames = make([]string, 0, len(sm.Schemas))
		for name := range sm.Schemas {
			sm.SchemaNames = append(sm.SchemaNames, name)
		}
		sort.Strings(sm.SchemaNames)
	}

	for _, p := range orderedPaths(t, doc.Order) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := t.Paths[p]
		if item == nil {
			continue
		}
		pm := PathModel{Path: p}
		declared := 0
		for _, m := range orderedMethods(item, doc.Order, p) {
			op := operationFor(item, m)
			declared++
			if !allowByTags(op.Tags, cfg) {
				continue
			}
			pm.Operations = append(pm.Operations, toOperationModel(p, m, item, op))
		}
		// A path whose operations were all filtered out disappears; a path
		// that never declared any stays so the grouper can reject it.
		if declared > 0 && len(pm.Operations) == 0 {
			continue
		}
		sm.Paths = append(sm.Paths, pm)
	}

	return sm, nil
}

func orderedPaths(t *openapi3.T, order *DeclarationOrder) []string {
	seen := make(map[string]struct{}, len(t.Paths))
	var out []string
	if order != nil {
		for _, p := range order.Paths {
			if _, ok := t.Paths[p]; !ok {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	var rest []string
	for p := range t.Paths {
		if _, ok := seen[p]; !ok {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func orderedMethods(item *openapi3.PathItem, order *DeclarationOrder, path string) []HttpMethod {
	candidates := StandardMethods
	if order != nil {
		if ms, ok := order.Methods[path]; ok {
			candidates = ms
		}
	}
	var out []HttpMethod
	for _, m := range candidates {
		if operationFor(item, m) != nil {
			out = append(out, m)
		}
	}
	return out
}

func operationFor(item *openapi3.PathItem, m HttpMethod) *openapi3.Operation {
	switch m {
	case GET:
		return item.Get
	case POST:
		return item.Post
	case PUT:
		return item.Put
	case PATCH:
		return item.Patch
	case DELETE:
		return item.Delete
	case OPTIONS:
		return item.Options
	case HEAD:
		return item.Head
	}
	return nil
}

func toOperationModel(path string, m HttpMethod, item *openapi3.PathItem, op *openapi3.Operation) OperationModel {
	om := OperationModel{
		Method:      m,
		Path:        path,
		OperationID: strings.TrimSpace(op.OperationID),
		Summary:     safeStr(op.Summary),
		Description: safeStr(op.Description),
		Deprecated:  op.Deprecated,
		Parameters:  mergeParameters(item.Parameters, op.Parameters),
	}
	for _, tag := range op.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			om.Tags = append(om.Tags, tag)
		}
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		rb := op.RequestBody.Value
		if mt := rb.Content[JSONMediaType]; mt != nil {
			if sor := toSchemaOrRef(mt.Schema); !sor.IsEmpty() {
				om.RequestBody = &RequestBodyModel{Required: rb.Required, Schema: sor}
			}
		}
	}

	if len(op.Responses) > 0 {
		codes := make([]string, 0, len(op.Responses))
		for code := range op.Responses {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			rref := op.Responses[code]
			if rref == nil || rref.Value == nil {
				continue
			}
			rm := ResponseModel{Status: code}
			if rref.Value.Description != nil {
				rm.Description = safeStr(*rref.Value.Description)
			}
			if mt := rref.Value.Content[JSONMediaType]; mt != nil {
				if sor := toSchemaOrRef(mt.Schema); !sor.IsEmpty() {
					rm.Schema = sor
				}
			}
			om.Responses = append(om.Responses, rm)
		}
	}
	return om
}

// mergeParameters keeps declaration order: path-level parameters first, then
// operation-level ones, where an operation-level parameter with the same
// (in, name) replaces the path-level entry at its original position.
func mergeParameters(base, own openapi3.Parameters) []ParameterModel {
	var out []ParameterModel
	index := map[string]int{}
	add := func(refs openapi3.Parameters) {
		for _, pref := range refs {
			pm := toParameterModel(pref)
			if pm == nil {
				continue
			}
			key := paramKey(pm.In, pm.Name)
			if i, ok := index[key]; ok {
				out[i] = *pm
				continue
			}
			index[key] = len(out)
			out = append(out, *pm)
		}
	}
	add(base)
	add(own)
	return out
}

func allowByTags(tags []string, cfg *buildConfig) bool {
	if len(cfg.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := cfg.includeTags[strings.TrimSpace(t)]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := cfg.excludeTags[strings.TrimSpace(t)]; blocked {
			return false
		}
	}
	return true
}

func paramKey(in, name string) string { return in + ":" + name }

func safeStr(s string) string { return strings.TrimSpace(s) }

func toParameterModel(pref *openapi3.ParameterRef) *ParameterModel {
	if pref == nil || pref.Value == nil {
		return nil
	}
	p := pref.Value
	pm := &ParameterModel{
		Name:        safeStr(p.Name),
		In:          strings.ToLower(safeStr(p.In)),
		Required:    p.Required,
		Description: safeStr(p.Description),
	}
	if p.Schema != nil {
		pm.Schema = toSchemaOrRef(p.Schema)
	} else if mt := p.Content[JSONMediaType]; mt != nil {
		pm.Schema = toSchemaOrRef(mt.Schema)
	}
	return pm
}

func toSchemaOrRef(ref *openapi3.SchemaRef) *SchemaOrRef {
	if ref == nil {
		return nil
	}
	if ref.Ref != "" {
		return &SchemaOrRef{Ref: &SchemaRef{Ref: ref.Ref}}
	}
	if ref.Value == nil {
		return &SchemaOrRef{Schema: &Schema{}}
	}
	v := ref.Value
	s := &Schema{
		Type:        safeStr(v.Type),
		Format:      safeStr(v.Format),
		Description: safeStr(v.Description),
		Nullable:    v.Nullable,
		Required:    append([]string(nil), v.Required...),
	}
	if len(v.Enum) > 0 {
		s.Enum = append([]any(nil), v.Enum...)
	}
	if v.Items != nil {
		s.Items = toSchemaOrRef(v.Items)
	}
	if v.AdditionalProperties.Schema != nil {
		s.AdditionalProperties = toSchemaOrRef(v.AdditionalProperties.Schema)
	} else if v.AdditionalProperties.Has != nil && *v.AdditionalProperties.Has {
		s.AdditionalProperties = &SchemaOrRef{Schema: &Schema{}}
	}
	if len(v.Properties) > 0 {
		names := make([]string, 0, len(v.Properties))
		for name := range v.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s.Properties = append(s.Properties, Property{Name: name, Schema: toSchemaOrRef(v.Properties[name])})
		}
	}
	for _, r := range v.AllOf {
		s.AllOf = append(s.AllOf, toSchemaOrRef(r))
	}
	for _, r := range v.AnyOf {
		s.AnyOf = append(s.AnyOf, toSchemaOrRef(r))
	}
	for _, r := range v.OneOf {
		s.OneOf = append(s.OneOf, toSchemaOrRef(r))
	}
	return &SchemaOrRef{Schema: s}
}
