package inspect

import (
	"sort"

	"github.com/kbukum/iockit/di"
)

// ModuleView is the JSON shape of a registered module.
type ModuleView struct {
	Key          string   `json:"key"`
	Kind         string   `json:"kind"`
	Dependencies []string `json:"dependencies"`
	Resolved     []string `json:"resolved"`
	Circular     []string `json:"circular,omitempty"`
	Complete     bool     `json:"complete"`
	Instantiated bool     `json:"instantiated"`
}

func viewOf(r *di.Record) ModuleView {
	v := ModuleView{
		Key:          r.Key(),
		Kind:         r.Implementation().Kind(),
		Dependencies: r.Dependencies(),
		Resolved:     []string{},
		Complete:     r.Complete(),
	}
	for dep, slot := range r.Resolved() {
		v.Resolved = append(v.Resolved, dep)
		if di.IsPlaceholder(slot) {
			v.Circular = append(v.Circular, dep)
		}
	}
	sort.Strings(v.Resolved)
	sort.Strings(v.Circular)
	_, v.Instantiated = r.Instance()
	return v
}

func viewsOf(records []*di.Record) []ModuleView {
	out := make([]ModuleView, len(records))
	for i, r := range records {
		out[i] = viewOf(r)
	}
	return out
}

// uniqueKeys returns the keys of queue in first-seen order.
func uniqueKeys(queue []*di.Record) []string {
	seen := make(map[string]bool, len(queue))
	keys := make([]string, 0, len(queue))
	for _, r := range queue {
		if !seen[r.Key()] {
			seen[r.Key()] = true
			keys = append(keys, r.Key())
		}
	}
	return keys
}
