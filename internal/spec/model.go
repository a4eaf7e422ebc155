package spec

// Internal Model (IM) definitions consumed by the SDK generator.

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	DELETE  HttpMethod = "delete"
	PATCH   HttpMethod = "patch"
	HEAD    HttpMethod = "head"
	OPTIONS HttpMethod = "options"
)

// StandardMethods lists the verbs an operation may be declared under, in the
// fallback order used when the document's own declaration order is unknown.
var StandardMethods = []HttpMethod{GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD}

// IsStandardMethod reports whether m is one of the seven supported verbs.
func IsStandardMethod(m HttpMethod) bool {
	for _, s := range StandardMethods {
		if s == m {
			return true
		}
	}
	return false
}

type ServiceModel struct {
	Title       string
	Version     string
	Description string
	Servers     []Server
	// Paths keeps document declaration order.
	Paths []PathModel
	// Schemas holds components.schemas by name; SchemaNames is sorted.
	Schemas     map[string]Schema
	SchemaNames []string
}

// Operations flattens Paths into a single list, preserving order.
func (sm *ServiceModel) Operations() []OperationModel {
	var out []OperationModel
	for _, p := range sm.Paths {
		out = append(out, p.Operations...)
	}
	return out
}

type Server struct {
	URL         string
	Description string
}

type PathModel struct {
	Path       string
	Operations []OperationModel
}

type OperationModel struct {
	Method      HttpMethod
	Path        string
	OperationID string
	Summary     string
	Description string
	Deprecated  bool
	Tags        []string
	Parameters  []ParameterModel
	RequestBody *RequestBodyModel
	Responses   []ResponseModel
}

// Response returns the response declared for status, or nil.
func (o *OperationModel) Response(status string) *ResponseModel {
	for i := range o.Responses {
		if o.Responses[i].Status == status {
			return &o.Responses[i]
		}
	}
	return nil
}

type ParameterModel struct {
	Name        string
	In          string // path|query|header|cookie
	Required    bool
	Description string
	Schema      *SchemaOrRef
}

// RequestBodyModel carries the application/json schema only; other media
// types are not negotiated by the generated runtime.
type RequestBodyModel struct {
	Required bool
	Schema   *SchemaOrRef
}

type ResponseModel struct {
	Status      string // 200, 4xx, default
	Description string
	Schema      *SchemaOrRef // application/json schema, nil when absent
}

type Schema struct {
	Name        string
	Type        string
	Format      string
	Description string
	Nullable    bool
	// Properties are sorted by name; map order from the loader is not stable.
	Properties           []Property
	Required             []string
	Items                *SchemaOrRef
	AdditionalProperties *SchemaOrRef
	AllOf                []*SchemaOrRef
	AnyOf                []*SchemaOrRef
	OneOf                []*SchemaOrRef
	Enum                 []any
}

type Property struct {
	Name   string
	Schema *SchemaOrRef
}

// IsRequired reports whether name is listed in s.Required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the schema carries no structural information,
// i.e. it was written as {}.
func (s *Schema) IsEmpty() bool {
	return s.Type == "" && s.Format == "" && len(s.Properties) == 0 && s.Items == nil &&
		s.AdditionalProperties == nil && len(s.AllOf) == 0 && len(s.AnyOf) == 0 &&
		len(s.OneOf) == 0 && len(s.Enum) == 0
}

type SchemaRef struct{ Ref string }

// Name returns the last segment of the reference, e.g. "Pet" for
// "#/components/schemas/Pet".
func (r SchemaRef) Name() string {
	for i := len(r.Ref) - 1; i >= 0; i-- {
		if r.Ref[i] == '/' {
			return r.Ref[i+1:]
		}
	}
	return r.Ref
}

// SchemaOrRef is either a named reference or an inline schema, never both.
type SchemaOrRef struct {
	Schema *Schema
	Ref    *SchemaRef
}

// IsEmpty reports whether sor is nil or an inline {} schema.
func (sor *SchemaOrRef) IsEmpty() bool {
	if sor == nil {
		return true
	}
	if sor.Ref != nil {
		return false
	}
	return sor.Schema == nil || sor.Schema.IsEmpty()
}
