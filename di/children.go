package di

import "sort"

// Children defines every entry of values as a Value module under
// prefix/name, in name order. WithFilter skips entries; Force applies to
// each definition.
func (c *Container) Children(prefix string, values map[string]any, opts ...DefineOption) error {
	if len(values) == 0 {
		return nil
	}
	o := applyDefineOptions(opts)

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := values[name]
		if o.filter != nil && !o.filter(name, value) {
			continue
		}
		if err := c.Define(prefix+"/"+name, nil, Value(value), opts...); err != nil {
			return err
		}
	}
	return nil
}
