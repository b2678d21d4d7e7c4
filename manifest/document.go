package manifest

import (
	"fmt"

	"github.com/kbukum/iockit/di"
	"github.com/kbukum/iockit/errors"
	"github.com/kbukum/iockit/validation"
)

// Document is the decoded content of one manifest file.
type Document struct {
	// Namespace, when set, replaces the directory-derived namespace.
	Namespace string   `yaml:"namespace"`
	Modules   []Module `yaml:"modules"`
}

// Module describes one module definition. Exactly one of Value and
// Factory must be set.
type Module struct {
	Key          string   `yaml:"key"`
	Dependencies []string `yaml:"dependencies"`
	Value        any      `yaml:"value"`
	Factory      string   `yaml:"factory"`
	Force        bool     `yaml:"force"`
}

// Factories maps the factory names used in manifests to implementations.
type Factories map[string]di.FactoryFunc

// implementation builds the di.Implementation for m.
func (m Module) implementation(factories Factories) (di.Implementation, error) {
	if m.Factory == "" {
		return di.Value(m.Value), nil
	}
	fn, ok := factories[m.Factory]
	if !ok {
		return di.Implementation{}, errors.InvalidInput("factory", fmt.Sprintf("unknown factory %q for module %q", m.Factory, m.Key)).
			WithDetail("factory", m.Factory)
	}
	return di.Factory(fn), nil
}

func (m Module) validate(index int) *validation.Validator {
	field := fmt.Sprintf("modules[%d]", index)
	return validation.New().
		Required(field+".key", m.Key).
		Custom(m.Value != nil || m.Factory != "", field, "needs a value or a factory").
		Custom(m.Value == nil || m.Factory == "", field, "cannot have both a value and a factory")
}

// normalize fills defaults derived from the file and checks every module.
// A single keyless module takes the file's base name as its key.
func (d *Document) normalize(baseName string) error {
	if len(d.Modules) == 1 && d.Modules[0].Key == "" {
		d.Modules[0].Key = baseName
	}
	v := validation.New()
	for i, m := range d.Modules {
		for _, fe := range m.validate(i).Errors() {
			v.AddError(fe.Field, fe.Message)
		}
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
