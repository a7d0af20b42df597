package generate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stackforge/typesync/schema"
)

// operation is the slice of an OpenAPI path item the generators care about.
type operation struct {
	Method      string // upper-case HTTP method
	Path        string // e.g. "/users/{id}"
	OperationID string
	HasBody     bool
	PathParams  []string
}

var httpMethods = []string{"get", "put", "post", "delete", "patch"}

// listOperations walks doc.paths and returns operations sorted by
// operationId for deterministic output. Operations without an operationId
// get one derived from method and path.
func listOperations(doc schema.Document) []operation {
	paths, ok := doc["paths"].(map[string]interface{})
	if !ok {
		return nil
	}

	var ops []operation
	for path, rawItem := range paths {
		item, ok := rawItem.(map[string]interface{})
		if !ok {
			continue
		}
		for _, method := range httpMethods {
			rawOp, ok := item[method].(map[string]interface{})
			if !ok {
				continue
			}
			op := operation{
				Method:     strings.ToUpper(method),
				Path:       path,
				HasBody:    rawOp["requestBody"] != nil,
				PathParams: pathParams(path),
			}
			if id, ok := rawOp["operationId"].(string); ok && id != "" {
				op.OperationID = id
			} else {
				op.OperationID = deriveOperationID(method, path)
			}
			ops = append(ops, op)
		}
	}

	sort.Slice(ops, func(i, j int) bool { return ops[i].OperationID < ops[j].OperationID })
	return ops
}

// pathParams extracts {param} names from a path template in order.
func pathParams(path string) []string {
	var params []string
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			params = append(params, seg[1:len(seg)-1])
		}
	}
	return params
}

// deriveOperationID builds a camelCase identifier like getUsersById from a
// method and path when the schema omits operationId.
func deriveOperationID(method, path string) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(method))
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") {
			sb.WriteString("By")
			seg = strings.Trim(seg, "{}")
		}
		sb.WriteString(capitalize(seg))
	}
	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// componentSchemas returns doc.components.schemas names in sorted order plus
// the schema map itself.
func componentSchemas(doc schema.Document) ([]string, map[string]interface{}) {
	components, ok := doc["components"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	schemas, ok := components["schemas"].(map[string]interface{})
	if !ok {
		return nil, nil
	}

	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, schemas
}

// tsType converts an OpenAPI schema fragment to a TypeScript type string.
func tsType(raw interface{}) string {
	node, ok := raw.(map[string]interface{})
	if !ok {
		return "unknown"
	}

	if ref, ok := node["$ref"].(string); ok {
		parts := strings.Split(ref, "/")
		return parts[len(parts)-1]
	}

	if enum, ok := node["enum"].([]interface{}); ok && len(enum) > 0 {
		var parts []string
		for _, v := range enum {
			if s, ok := v.(string); ok {
				parts = append(parts, fmt.Sprintf("'%s'", s))
			} else {
				parts = append(parts, fmt.Sprintf("%v", v))
			}
		}
		return strings.Join(parts, " | ")
	}

	switch node["type"] {
	case "string":
		return "string"
	case "integer", "number":
		return "number"
	case "boolean":
		return "boolean"
	case "array":
		return tsType(node["items"]) + "[]"
	case "object":
		if props, ok := node["properties"].(map[string]interface{}); ok && len(props) > 0 {
			return inlineObjectType(node, props)
		}
		return "Record<string, unknown>"
	default:
		return "unknown"
	}
}

// inlineObjectType renders an anonymous object schema inline.
func inlineObjectType(node map[string]interface{}, props map[string]interface{}) string {
	required := requiredSet(node)

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		optional := ""
		if !required[name] {
			optional = "?"
		}
		parts = append(parts, fmt.Sprintf("%s%s: %s", name, optional, tsType(props[name])))
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

func requiredSet(node map[string]interface{}) map[string]bool {
	required := make(map[string]bool)
	if list, ok := node["required"].([]interface{}); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				required[s] = true
			}
		}
	}
	return required
}
