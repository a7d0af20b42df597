// Package schema handles the interface-description documents extracted from
// a backend service: parsing, normalization, fingerprinting, and change
// detection.
//
// A document is treated as opaque structured JSON (in practice an OpenAPI
// document). It is immutable once extracted for a sync cycle.
package schema

import (
	"encoding/json"
	"reflect"

	"github.com/stackforge/typesync/errors"
)

// Document is a parsed interface-description document.
type Document map[string]interface{}

// ParseDocument decodes a JSON schema document.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse schema document")
	}
	return doc, nil
}

// Bytes serializes the document back to JSON. Map keys are emitted in sorted
// order, so the output is deterministic for a given document.
func (d Document) Bytes() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize schema document")
	}
	return data, nil
}

// Title returns info.title when present, for logging.
func (d Document) Title() string {
	info, ok := d["info"].(map[string]interface{})
	if !ok {
		return ""
	}
	title, _ := info["title"].(string)
	return title
}

// Clone returns a deep copy of the document. The copy shares no mutable
// state with the original, so normalization can edit it freely.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return deepCopyMap(d)
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return deepCopyMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		// JSON scalars (string, float64, bool, nil) are immutable
		return val
	}
}

// HasChanges reports whether two documents differ structurally. It is a
// caching decision only, not a semantic API-compatibility check.
func HasChanges(prev, next Document) bool {
	return !reflect.DeepEqual(prev, next)
}
