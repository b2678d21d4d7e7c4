// Package di is a runtime module container supporting both dependency
// injection and service-locator use.
//
// Modules are registered under a key with optional dependency keys and are
// materialized lazily into singletons on first request. Shared
// dependencies are created once; a cycle is broken by giving the module
// that closes it a Placeholder and emitting EventCircular.
//
// # Registration
//
//	c := di.New()
//	_ = c.Define("config", nil, di.Value(cfg))
//	_ = c.Define("services/mailer", []string{"config"}, di.Factory(func(deps ...any) (any, error) {
//	    cfg, _ := di.Dep[*Config](deps[0])
//	    return NewMailer(cfg), nil
//	}))
//
// # Resolution
//
//	mailer := di.MustResolve[*Mailer](c, "services/mailer")
//
// Keys are case-insensitive; `\` and `.` are treated as `/`.
package di
