package sdkgen

import (
	"strings"

	genspec "github.com/mark3labs/openapi2sdk/internal/spec"
)

// reservedHeaders never reach generated parameter types; the runtime sets them.
var reservedHeaders = []string{"X-Api-Key", "Authorization"}

// Payload describes a request body or response type. Ref is the referenced
// definition name; an empty Ref means an unconstrained value.
type Payload struct {
	Ref string
}

func (p Payload) Unconstrained() bool { return p.Ref == "" }

// Method is everything the assembler needs to emit one controller method.
type Method struct {
	Controller   string
	Name         string
	Verb         string // upper-case HTTP verb
	PathTemplate string
	OperationID  string
	Summary      string
	Description  string
	Deprecated   bool

	Path    Composite // merged into the top level of the parameter type
	Query   Composite
	Headers Composite
	Body    *Payload // nil when the operation takes no JSON body

	Return Payload
}

// HasParameters reports whether the generated method accepts a parameter value.
func (m *Method) HasParameters() bool {
	return !m.Path.IsEmpty() || !m.Query.IsEmpty() || !m.Headers.IsEmpty() || m.Body != nil
}

// ParameterGroup is an operation's parameters split by location, with the
// reserved auth headers removed.
type ParameterGroup struct {
	Path   []genspec.ParameterModel
	Query  []genspec.ParameterModel
	Header []genspec.ParameterModel
}

// PartitionParameters splits params by location. Cookie parameters are dropped.
func PartitionParameters(params []genspec.ParameterModel) ParameterGroup {
	var g ParameterGroup
	for _, p := range params {
		if isReserved(p.Name) {
			continue
		}
		switch p.In {
		case "path":
			g.Path = append(g.Path, p)
		case "query":
			g.Query = append(g.Query, p)
		case "header":
			g.Header = append(g.Header, p)
		}
	}
	return g
}

func isReserved(name string) bool {
	for _, r := range reservedHeaders {
		if strings.EqualFold(name, r) {
			return true
		}
	}
	return false
}

// BuildMethod derives the generated method for one operation of controller.
func BuildMethod(controller string, op genspec.OperationModel) (Method, error) {
	if strings.TrimSpace(op.OperationID) == "" {
		return Method{}, missingOperationID(op)
	}
	name := MethodName(op.OperationID)
	if name == "" {
		return Method{}, &ConfigError{
			Code:        EmptyMethod,
			Path:        op.Path,
			Method:      strings.ToUpper(string(op.Method)),
			OperationID: op.OperationID,
			Message:     "operationId has no method segment (expected <Controller>.<Method>)",
		}
	}
	groups := PartitionParameters(op.Parameters)
	m := Method{
		Controller:   controller,
		Name:         name,
		Verb:         strings.ToUpper(string(op.Method)),
		PathTemplate: op.Path,
		OperationID:  op.OperationID,
		Summary:      op.Summary,
		Description:  op.Description,
		Deprecated:   op.Deprecated,
		Path:         Synthesize(groups.Path),
		Query:        Synthesize(groups.Query),
		Headers:      Synthesize(groups.Header),
	}
	if op.RequestBody != nil && !op.RequestBody.Schema.IsEmpty() {
		m.Body = &Payload{Ref: refName(op.RequestBody.Schema)}
	}
	if r := op.Response("200"); r != nil {
		m.Return = Payload{Ref: refName(r.Schema)}
	}
	return m, nil
}

func refName(sor *genspec.SchemaOrRef) string {
	if sor == nil || sor.Ref == nil {
		return ""
	}
	return sor.Ref.Name()
}

// Controller is a group with its methods built.
type Controller struct {
	Name    string
	Methods []Method
}

// BuildControllers groups the model and builds every method. It fails on the
// first configuration error, so a partial SDK is never produced.
func BuildControllers(sm *genspec.ServiceModel) ([]Controller, error) {
	groups, err := GroupOperations(sm)
	if err != nil {
		return nil, err
	}
	out := make([]Controller, 0, len(groups))
	for _, g := range groups {
		c := Controller{Name: g.Name}
		seen := map[string]genspec.OperationModel{}
		for _, op := range g.Operations {
			m, err := BuildMethod(g.Name, op)
			if err != nil {
				return nil, err
			}
			if prev, dup := seen[m.Name]; dup {
				return nil, &ConfigError{
					Code:        DuplicateMethod,
					Path:        op.Path,
					Method:      m.Verb,
					OperationID: op.OperationID,
					Message:     "method " + m.Name + " of controller " + g.Name + " is already used by " + strings.ToUpper(string(prev.Method)) + " " + prev.Path,
				}
			}
			seen[m.Name] = op
			c.Methods = append(c.Methods, m)
		}
		out = append(out, c)
	}
	return out, nil
}
