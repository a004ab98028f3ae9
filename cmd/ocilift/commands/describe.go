package commands

import (
	"github.com/spf13/cobra"

	"github.com/ocilift/ocilift/pkg/service"
)

func newDescribeCommand() *cobra.Command {
	var includeNetwork bool

	cmd := &cobra.Command{
		Use:   "describe <resource-ocid>",
		Short: "Show full details for one resource",
		Long: `Show full details for one resource. The resource kind is inferred
from the OCID. For compute instances, --include-network adds the
attached VNICs with their private and public addresses.`,
		Example: `  # Describe an instance
  ocilift describe ocid1.instance.oc1.phx.aaaa

  # Describe an instance with its network interfaces
  ocilift describe ocid1.instance.oc1.phx.aaaa --include-network`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			env := rt.service.Describe(cmd.Context(), service.DescribeRequest{
				ResourceID:     args[0],
				IncludeNetwork: includeNetwork,
			})
			return printEnvelope(env)
		},
	}

	cmd.Flags().BoolVar(&includeNetwork, "include-network", false, "include network interfaces (instances only)")

	return cmd
}

func newStateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "state <resource-ocid>",
		Short: "Show the current lifecycle state of one resource",
		Example: `  # Read an autonomous database's state
  ocilift state ocid1.autonomousdatabase.oc1.phx.aaaa`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			return printEnvelope(rt.service.GetState(cmd.Context(), args[0]))
		},
	}
}
