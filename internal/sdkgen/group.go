package sdkgen

import (
	"strings"

	genspec "github.com/mark3labs/openapi2sdk/internal/spec"
)

// ControllerGroup is every operation that shares one controller segment.
type ControllerGroup struct {
	Name       string
	Operations []genspec.OperationModel
}

// representativeOrder decides which operation of a path names its controller.
var representativeOrder = []genspec.HttpMethod{genspec.GET, genspec.POST, genspec.PATCH, genspec.PUT, genspec.DELETE}

// GroupOperations partitions the model's paths into controller groups. The
// controller of a path is read from one representative operation (GET, then
// POST, PATCH, PUT, DELETE); every operation of that path joins the group.
// Groups appear in the order their first path was declared.
func GroupOperations(sm *genspec.ServiceModel) ([]ControllerGroup, error) {
	var groups []ControllerGroup
	index := map[string]int{}
	for _, p := range sm.Paths {
		if len(p.Operations) == 0 {
			return nil, &ConfigError{Code: EmptyPath, Path: p.Path, Message: "path declares no operations"}
		}
		rep := representative(p.Operations)
		if rep == nil {
			return nil, &ConfigError{Code: EmptyController, Path: p.Path, Message: "path has no GET, POST, PATCH, PUT or DELETE operation to name its controller"}
		}
		if strings.TrimSpace(rep.OperationID) == "" {
			return nil, missingOperationID(*rep)
		}
		name := ControllerName(rep.OperationID)
		if name == "" {
			return nil, &ConfigError{
				Code:        EmptyController,
				Path:        p.Path,
				Method:      strings.ToUpper(string(rep.Method)),
				OperationID: rep.OperationID,
				Message:     "operationId must look like <Controller>.<Method>",
			}
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, ControllerGroup{Name: name})
		}
		for _, op := range p.Operations {
			if genspec.IsStandardMethod(op.Method) {
				groups[i].Operations = append(groups[i].Operations, op)
			}
		}
	}
	return groups, nil
}

func representative(ops []genspec.OperationModel) *genspec.OperationModel {
	for _, m := range representativeOrder {
		for i := range ops {
			if ops[i].Method == m {
				return &ops[i]
			}
		}
	}
	return nil
}

// ControllerName returns the text before the first "." of an operationId,
// without a trailing "Controller". It returns "" when there is no dot or the
// segment is empty.
func ControllerName(operationID string) string {
	head, _, found := strings.Cut(strings.TrimSpace(operationID), ".")
	if !found {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSpace(head), "Controller")
}

// MethodName returns the second dot segment of an operationId, or "".
func MethodName(operationID string) string {
	parts := strings.Split(strings.TrimSpace(operationID), ".")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
