package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ocilift/ocilift/pkg/envelope"
	"github.com/ocilift/ocilift/pkg/service"
)

// actionFlags are shared by start, stop, and restart. Stop and restart
// are graceful by default; --force switches to the hard variant.
type actionFlags struct {
	force bool
	wait  bool

	// graceful marks commands whose default is the soft variant.
	graceful bool
}

func (f *actionFlags) register(cmd *cobra.Command, forceUsage string) {
	if forceUsage != "" {
		f.graceful = true
		cmd.Flags().BoolVar(&f.force, "force", false, forceUsage)
	}
	cmd.Flags().BoolVar(&f.wait, "wait", false, "poll the work request until it completes")
}

func (f *actionFlags) soft() bool {
	return f.graceful && !f.force
}

func runAction(cmd *cobra.Command, resourceID string, flags actionFlags,
	call func(ctx context.Context, svc *service.Service, req service.ActionRequest) *envelope.Envelope) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close(cmd.Context())

	env := call(cmd.Context(), rt.service, service.ActionRequest{
		ResourceID: resourceID,
		Soft:       flags.soft(),
		Wait:       flags.wait,
	})
	return printEnvelope(env)
}

func newStartCommand() *cobra.Command {
	var flags actionFlags

	cmd := &cobra.Command{
		Use:   "start <resource-ocid>",
		Short: "Start a stopped resource",
		Long: `Start a stopped resource. Valid only from the STOPPED state; the
current state is re-read from the control plane before the action is
issued.`,
		Example: `  # Start an instance and return immediately
  ocilift start ocid1.instance.oc1.phx.aaaa

  # Start a database system and wait for completion
  ocilift start ocid1.dbsystem.oc1.phx.aaaa --wait`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, args[0], flags,
				func(ctx context.Context, svc *service.Service, req service.ActionRequest) *envelope.Envelope {
					return svc.Start(ctx, req)
				})
		},
	}

	flags.register(cmd, "")

	return cmd
}

func newStopCommand() *cobra.Command {
	var flags actionFlags

	cmd := &cobra.Command{
		Use:   "stop <resource-ocid>",
		Short: "Stop a running resource",
		Long: `Stop a running resource. Valid only from the running state. By
default the guest is asked to shut down cleanly; with --force power is
cut immediately.`,
		Example: `  # Graceful OS shutdown
  ocilift stop ocid1.instance.oc1.phx.aaaa

  # Cut power immediately, tracked to completion
  ocilift stop ocid1.instance.oc1.phx.aaaa --force --wait`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, args[0], flags,
				func(ctx context.Context, svc *service.Service, req service.ActionRequest) *envelope.Envelope {
					return svc.Stop(ctx, req)
				})
		},
	}

	flags.register(cmd, "cut power immediately instead of a clean guest shutdown")

	return cmd
}

func newRestartCommand() *cobra.Command {
	var flags actionFlags

	cmd := &cobra.Command{
		Use:   "restart <resource-ocid>",
		Short: "Restart a running resource",
		Long: `Restart a running resource. Valid only from the running state. By
default the guest reboots cleanly; with --force the reset is immediate.`,
		Example: `  # Graceful reboot
  ocilift restart ocid1.instance.oc1.phx.aaaa

  # Immediate reset
  ocilift restart ocid1.instance.oc1.phx.aaaa --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, args[0], flags,
				func(ctx context.Context, svc *service.Service, req service.ActionRequest) *envelope.Envelope {
					return svc.Restart(ctx, req)
				})
		},
	}

	flags.register(cmd, "reset immediately instead of a clean guest reboot")

	return cmd
}

func newTestConnectionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Probe each resource subsystem for reachability",
		Long: `Probe compute, database system, and autonomous database APIs with a
list call each and report per-subsystem reachability.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			return printEnvelope(rt.service.TestConnection(cmd.Context()))
		},
	}
}
