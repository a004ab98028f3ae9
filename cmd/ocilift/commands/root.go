package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/backend/ocicli"
	"github.com/ocilift/ocilift/pkg/backend/ocisdk"
	"github.com/ocilift/ocilift/pkg/config"
	"github.com/ocilift/ocilift/pkg/dispatch"
	"github.com/ocilift/ocilift/pkg/envelope"
	"github.com/ocilift/ocilift/pkg/policy"
	"github.com/ocilift/ocilift/pkg/service"
	"github.com/ocilift/ocilift/pkg/telemetry"
	"github.com/ocilift/ocilift/pkg/workreq"
)

var (
	// Global flags
	configPath    string
	compartmentID string
	region        string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ocilift",
		Short: "ocilift - resilient OCI resource lifecycle operations",
		Long: `ocilift drives lifecycle operations against Oracle Cloud Infrastructure
resources - compute instances, database systems, and autonomous
databases - through two interchangeable execution backends.

The native SDK backend is tried first; when it is unavailable the
operation falls back to the OCI command-line client once. Every command
prints a JSON envelope to stdout, success or failure.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&compartmentID, "compartment-id", "", "compartment OCID (overrides config)")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "region (overrides config)")

	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newDescribeCommand())
	rootCmd.AddCommand(newStateCommand())
	rootCmd.AddCommand(newStartCommand())
	rootCmd.AddCommand(newStopCommand())
	rootCmd.AddCommand(newRestartCommand())
	rootCmd.AddCommand(newScaleCommand())
	rootCmd.AddCommand(newTestConnectionCommand())

	return rootCmd
}

// runtime bundles everything a command invocation needs.
type runtime struct {
	service   *service.Service
	telemetry *telemetry.Telemetry
}

func (r *runtime) Close(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.telemetry.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
	}
}

// buildRuntime loads the config and wires the full stack: telemetry,
// backends, selector, policy guard, dispatcher, tracker, service.
func buildRuntime() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if compartmentID != "" {
		cfg.CompartmentID = compartmentID
	}
	if region != "" {
		cfg.Region = region
	}

	tel, err := telemetry.New(&cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	primary, err := buildBackend(cfg, cfg.Backends.Primary, tel)
	if err != nil {
		return nil, err
	}
	var fallback backend.Backend
	if cfg.Backends.Fallback != "" {
		fallback, err = buildBackend(cfg, cfg.Backends.Fallback, tel)
		if err != nil {
			// A broken fallback should not prevent the primary from
			// serving; log and continue without one.
			tel.Logger.WithError(err).Warn("fallback backend unavailable at startup")
			fallback = nil
		}
	}

	selector := backend.NewSelector(primary, fallback,
		backend.WithLogger(tel.Logger),
		backend.WithMetrics(tel.Metrics))

	var guard *policy.Guard
	if cfg.Policy.Enabled {
		guard, err = policy.NewGuard(tel.Logger.Zerolog())
		if err != nil {
			return nil, fmt.Errorf("compiling policies: %w", err)
		}
		if cfg.Policy.Dir != "" {
			if err := guard.LoadDir(cfg.Policy.Dir); err != nil {
				return nil, fmt.Errorf("loading policies from %s: %w", cfg.Policy.Dir, err)
			}
		}
	}

	dispatcher := dispatch.NewDispatcher(selector,
		dispatch.WithGuard(guard),
		dispatch.WithLogger(tel.Logger),
		dispatch.WithTracer(tel.Tracer),
		dispatch.WithMetrics(tel.Metrics))

	tracker := workreq.NewTracker(cfg.Tracking,
		workreq.WithLogger(tel.Logger),
		workreq.WithMetrics(tel.Metrics))

	svc := service.New(selector, dispatcher,
		service.WithTracker(tracker),
		service.WithDefaultCompartment(cfg.CompartmentID),
		service.WithDefaultRegion(cfg.Region),
		service.WithLogger(tel.Logger),
		service.WithTracer(tel.Tracer),
		service.WithMetrics(tel.Metrics))

	return &runtime{service: svc, telemetry: tel}, nil
}

func buildBackend(cfg *config.Config, name string, tel *telemetry.Telemetry) (backend.Backend, error) {
	switch name {
	case config.BackendSDK:
		clients, err := ocisdk.NewClientSet(ocisdk.Options{
			ConfigFile: cfg.Auth.ConfigFile,
			Profile:    cfg.Auth.Profile,
			Region:     cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("building sdk backend: %w", err)
		}
		return ocisdk.New(clients, cfg.Backends.CallTimeout, tel.Logger), nil
	case config.BackendCLI:
		runner := ocicli.NewExecRunner(cfg.Backends.CLI.Binary, cfg.Backends.CLI.SuppressLabelWarning, tel.Logger)
		return ocicli.New(runner, cfg.Backends.CallTimeout, tel.Logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// printEnvelope writes the envelope as indented JSON on stdout. The
// envelope is the contract: commands exit 0 whenever one is produced,
// even for success=false results.
func printEnvelope(env *envelope.Envelope) error {
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
