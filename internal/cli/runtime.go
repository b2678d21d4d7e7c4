package cli

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/iockit/config"
	"github.com/kbukum/iockit/di"
	"github.com/kbukum/iockit/event"
	"github.com/kbukum/iockit/logger"
	"github.com/kbukum/iockit/manifest"
)

const serviceName = "iocctl"

// runtime is the state shared by check and serve.
type runtime struct {
	cfg       *config.Config
	log       *logger.Logger
	bus       *event.Bus
	container *di.Container
	loader    *manifest.Loader
}

func setup(cmd *cobra.Command, o *options) (*runtime, error) {
	var loadOpts []config.LoaderOption
	if path, _ := cmd.Flags().GetString(FlagConfig); path != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(path))
	}
	cfg, err := config.Load(serviceName, loadOpts...)
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString(FlagDir); dir != "" {
		cfg.Manifest.Dir = dir
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), &cfg.Logging, cfg.Base.Name)
	bus := event.New()
	c := di.New(di.WithNotifier(bus), di.WithLogger(log.WithComponent("di")))
	loader := manifest.NewLoader(o.fs,
		manifest.WithFactories(o.factories),
		manifest.WithFlat(cfg.Manifest.Flat),
		manifest.WithExtensions(cfg.Manifest.Extensions...),
		manifest.WithLogger(log.WithComponent("manifest")),
	)

	return &runtime{cfg: cfg, log: log, bus: bus, container: c, loader: loader}, nil
}

// load defines every manifest module in the container.
func (rt *runtime) load() (int, error) {
	return rt.loader.LoadDir(rt.container, rt.cfg.Manifest.Dir)
}
