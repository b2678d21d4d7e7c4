package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/iockit/component"
	"github.com/kbukum/iockit/inspect"
	"github.com/kbukum/iockit/logger"
	"github.com/kbukum/iockit/observability"
	"github.com/kbukum/iockit/version"
)

func newServe(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load manifests and serve the inspection API",
		Long: `Loads every manifest under the manifest directory, optionally runs
the eager resolution pass, and serves the inspection API until interrupted.
When observability is enabled, container events are exported over OTLP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, o)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString(FlagAddr); addr != "" {
				rt.cfg.Inspect.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rt)
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.Flags().String(FlagDir, "", "manifest directory (overrides manifest.dir)")
	cmd.Flags().String(FlagAddr, "", "listen address (overrides inspect.addr)")
	return cmd
}

func runServe(ctx context.Context, rt *runtime) error {
	build := version.Get().Short()
	components := component.NewRegistry(rt.log.WithComponent("component"))
	defer func() {
		if err := components.StopAll(context.Background()); err != nil {
			rt.log.Warn("shutdown incomplete", logger.ErrorFields("stop", err))
		}
	}()

	var telemetry *observability.Telemetry
	if rt.cfg.Observability.Enabled {
		telemetry = newTelemetry(rt, build)
		if err := components.Register(telemetry); err != nil {
			return err
		}
		if err := components.StartAll(ctx); err != nil {
			return err
		}
	}

	// Circular edges are reported once, when first found, so the event log
	// must be listening before the startup pass.
	events := inspect.NewEventLog(rt.bus, inspect.DefaultEventCapacity)
	defer events.Close()

	if _, err := rt.load(); err != nil {
		return err
	}

	if rt.cfg.Container.Initialize {
		var initErr error
		if telemetry != nil {
			initErr = telemetry.Observer().Initialize(ctx, rt.container, nil, nil)
		} else {
			initErr = rt.container.Initialize(nil, nil)
		}
		if initErr != nil {
			if rt.cfg.Container.FailOnUnresolved {
				return initErr
			}
			rt.log.Warn("serving an uninitialized container", logger.ErrorFields("initialize", initErr))
		}
	}

	if rt.cfg.Inspect.Disabled {
		rt.log.Info("inspection API disabled")
		<-ctx.Done()
		return nil
	}

	srv := inspect.NewServer(rt.cfg.Inspect.Addr, nil, rt.log.WithComponent("inspect"))
	apiOpts := []inspect.Option{
		inspect.WithService(rt.cfg.Base.Name, build),
		inspect.WithLogger(rt.log.WithComponent("inspect")),
		inspect.WithEventLog(events),
	}
	if telemetry != nil {
		apiOpts = append(apiOpts, inspect.WithObserver(telemetry.Observer()))
	}
	if err := components.Register(srv); err != nil {
		return err
	}
	apiOpts = append(apiOpts, inspect.WithCheckers(components.Checkers()...))
	api := inspect.New(rt.container, apiOpts...)
	defer api.Close()
	srv.SetHandler(api.Engine())

	if err := components.StartAll(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// newTelemetry exports container events to the configured OTLP endpoint.
func newTelemetry(rt *runtime, build string) *observability.Telemetry {
	oc := rt.cfg.Observability
	return observability.NewTelemetry(rt.bus,
		observability.TracerConfig{
			ServiceName:    rt.cfg.Base.Name,
			ServiceVersion: build,
			Environment:    rt.cfg.Base.Environment,
			Endpoint:       oc.Endpoint,
			Insecure:       oc.Insecure,
			SampleRate:     oc.SampleRate,
		},
		observability.MeterConfig{
			ServiceName:    rt.cfg.Base.Name,
			ServiceVersion: build,
			Environment:    rt.cfg.Base.Environment,
			Endpoint:       oc.Endpoint,
			Insecure:       oc.Insecure,
			Interval:       oc.Interval,
		},
	)
}
