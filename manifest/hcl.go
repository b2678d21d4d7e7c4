package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/kbukum/iockit/errors"
)

type hclDocument struct {
	Namespace string      `hcl:"namespace,optional"`
	Modules   []hclModule `hcl:"module,block"`
}

type hclModule struct {
	Key          string    `hcl:"key,label"`
	Dependencies []string  `hcl:"dependencies,optional"`
	Value        cty.Value `hcl:"value,optional"`
	Factory      string    `hcl:"factory,optional"`
	Force        bool      `hcl:"force,optional"`
}

// DecodeHCL decodes an HCL manifest.
//
//	namespace = "services"
//
//	module "mailer" {
//	  dependencies = ["config"]
//	  factory      = "mailer"
//	}
//
//	module "retries" {
//	  value = 3
//	}
func DecodeHCL(src []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.InvalidInput("manifest", fmt.Sprintf("parsing %s: %s", filename, diags.Error())).
			WithDetail("file", filename).
			WithCause(diags)
	}

	var raw hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, errors.InvalidInput("manifest", fmt.Sprintf("decoding %s: %s", filename, diags.Error())).
			WithDetail("file", filename).
			WithCause(diags)
	}

	doc := &Document{Namespace: raw.Namespace, Modules: make([]Module, 0, len(raw.Modules))}
	for _, m := range raw.Modules {
		value, err := ctyToNative(m.Value)
		if err != nil {
			return nil, errors.InvalidInput("manifest", fmt.Sprintf("module %q in %s: %v", m.Key, filename, err)).
				WithDetail("file", filename)
		}
		doc.Modules = append(doc.Modules, Module{
			Key:          m.Key,
			Dependencies: m.Dependencies,
			Value:        value,
			Factory:      m.Factory,
			Force:        m.Force,
		})
	}
	return doc, nil
}

// ctyToNative converts v to plain Go values: string, float64 or int64,
// bool, []any and map[string]any.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			var i int64
			if err := gocty.FromCtyValue(v, &i); err == nil {
				return i, nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("converting number: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0)
		it := v.ElementIterator()
		for it.Next() {
			_, el := it.Element()
			native, err := ctyToNative(el)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			k, el := it.Element()
			native, err := ctyToNative(el)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", k.AsString(), err)
			}
			out[k.AsString()] = native
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
