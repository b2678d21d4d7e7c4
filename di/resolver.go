package di

import (
	"github.com/kbukum/iockit/logger"
)

// resolve fills the missing dependency slots of rec within res. Every
// dependency is attempted even after a failure; a failed pass appends rec
// to the unresolved queue.
func (c *Container) resolve(rec *Record, res *Resolution) bool {
	if rec.Complete() {
		return true
	}
	res.join(rec)

	ok := true
	for _, dep := range rec.dependencies {
		if _, done := rec.resolved[dep]; done {
			continue
		}

		if pending, seen := res.Pending(dep); seen {
			if pending.dependsOn(rec.key) {
				rec.resolved[dep] = &Placeholder{}
				c.log.Warn("circular dependency", logger.Fields(
					logger.FieldModule, rec.key,
					logger.FieldDependency, dep,
					logger.FieldResolution, res.ID().String(),
				))
				c.notifier.Emit(EventCircular, CircularDependency{Module: rec, Dependency: dep})
				continue
			}
			// Shared dependency already in progress: reference its record.
			rec.resolved[dep] = pending
			continue
		}

		v, found := c.instance(dep, nil, res)
		if !found {
			ok = false
			continue
		}
		rec.resolved[dep] = v
	}

	if !ok {
		c.unresolved = append(c.unresolved, rec)
	}
	return ok
}

// materialize returns rec's instance, resolving rec first if needed and
// creating the instance on first use.
func (c *Container) materialize(rec *Record, res *Resolution) (any, bool) {
	if !rec.Complete() && !c.resolve(rec, res) {
		return nil, false
	}
	if rec.instantiated {
		return rec.instance, true
	}

	v, err := rec.impl.produce(rec.args())
	if err != nil {
		c.log.Debug("factory failed", logger.Fields(
			logger.FieldModule, rec.key,
			logger.FieldError, err.Error(),
		))
		return nil, false
	}
	if v == nil {
		c.log.Debug("factory returned nil", logger.Fields(logger.FieldModule, rec.key))
		return nil, false
	}

	rec.instance = v
	rec.instantiated = true
	c.log.Debug("module created", logger.Fields(
		logger.FieldModule, rec.key,
		logger.FieldResolution, res.ID().String(),
	))
	c.notifier.Emit(EventModuleCreate, ModuleCreated{Module: rec, Instance: v})
	return v, true
}
