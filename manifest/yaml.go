package manifest

import (
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/iockit/errors"
)

// DecodeYAML decodes a YAML manifest.
//
//	namespace: services
//	modules:
//	  - key: mailer
//	    dependencies: [config]
//	    factory: mailer
//	  - key: retries
//	    value: 3
func DecodeYAML(src []byte, filename string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, errors.InvalidInput("manifest", fmt.Sprintf("parsing %s: %v", filename, err)).
			WithDetail("file", filename).
			WithCause(err)
	}
	for i := range doc.Modules {
		doc.Modules[i].Value = normalizeYAML(doc.Modules[i].Value)
	}
	return &doc, nil
}

// normalizeYAML turns the map[any]any nodes yaml may produce into
// map[string]any so values marshal cleanly to JSON.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}
