// Package manifest registers modules from YAML and HCL manifest files.
//
// A directory tree of manifests maps onto container namespaces: a module
// "mailer" declared in services/mail/modules.yaml is defined as
// "services/mail/mailer". Factories are referenced by name and supplied by
// the embedding program through WithFactories.
//
//	l := manifest.NewLoader(afero.NewOsFs(), manifest.WithFactories(manifest.Factories{
//	    "mailer": newMailer,
//	}))
//	n, err := l.LoadDir(container, "./modules")
package manifest
