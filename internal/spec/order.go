package spec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DeclarationOrder records the order in which paths, and the verbs under each
// path, appear in the source document.
type DeclarationOrder struct {
	Paths   []string
	Methods map[string][]HttpMethod
}

// ReadDeclarationOrder walks the raw YAML/JSON node tree of an OpenAPI
// document and captures path and verb declaration order.
func ReadDeclarationOrder(raw []byte) (*DeclarationOrder, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	order := &DeclarationOrder{Methods: map[string][]HttpMethod{}}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return order, nil
	}
	paths := mappingValue(root.Content[0], "paths")
	if paths == nil || paths.Kind != yaml.MappingNode {
		return order, nil
	}
	for i := 0; i+1 < len(paths.Content); i += 2 {
		path := paths.Content[i].Value
		order.Paths = append(order.Paths, path)
		item := paths.Content[i+1]
		if item.Kind != yaml.MappingNode {
			continue
		}
		var methods []HttpMethod
		for j := 0; j+1 < len(item.Content); j += 2 {
			m := HttpMethod(strings.ToLower(item.Content[j].Value))
			if IsStandardMethod(m) {
				methods = append(methods, m)
			}
		}
		order.Methods[path] = methods
	}
	return order, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
