package commands

import (
	"github.com/spf13/cobra"

	"github.com/ocilift/ocilift/pkg/resource"
	"github.com/ocilift/ocilift/pkg/service"
)

func newListCommand() *cobra.Command {
	var (
		stateFilter    string
		includeNetwork bool
	)

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List resources of one kind",
		Long: `List resources of one kind in the configured compartment.

Kinds:
  instance              compute instances
  db_system             database systems
  autonomous_database   autonomous databases`,
		Example: `  # List all compute instances
  ocilift list instance

  # List only stopped instances
  ocilift list instance --state STOPPED

  # Include each instance's primary VNIC addresses
  ocilift list instance --include-network

  # List database systems in another compartment
  ocilift list db_system --compartment-id ocid1.compartment.oc1..aaaa`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			env := rt.service.List(cmd.Context(), service.ListRequest{
				Kind:           resource.Kind(args[0]),
				StateFilter:    resource.State(stateFilter),
				IncludeNetwork: includeNetwork,
			})
			return printEnvelope(env)
		},
	}

	cmd.Flags().StringVar(&stateFilter, "state", "", "restrict to one lifecycle state (e.g. RUNNING, STOPPED)")
	cmd.Flags().BoolVar(&includeNetwork, "include-network", false, "attach each instance's primary VNIC addresses (instances only)")

	return cmd
}
