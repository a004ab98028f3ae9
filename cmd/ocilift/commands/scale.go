package commands

import (
	"github.com/spf13/cobra"

	"github.com/ocilift/ocilift/pkg/resource"
	"github.com/ocilift/ocilift/pkg/service"
)

func newScaleCommand() *cobra.Command {
	var (
		cpuCores         int
		storageTBs       int
		cpuAutoScale     bool
		storageAutoScale bool
		wait             bool
	)

	cmd := &cobra.Command{
		Use:   "scale <autonomous-database-ocid>",
		Short: "Scale an autonomous database",
		Long: `Scale an autonomous database's compute and storage. Only the flags
you set are applied; a call with no scaling flags is rejected as a
no-op. Valid only from the AVAILABLE state.`,
		Example: `  # Scale to 4 OCPU cores
  ocilift scale ocid1.autonomousdatabase.oc1.phx.aaaa --cpu-cores 4

  # Grow storage and enable CPU auto-scaling, tracked to completion
  ocilift scale ocid1.autonomousdatabase.oc1.phx.aaaa \
    --storage-tbs 2 --cpu-autoscale --wait`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			// Only explicitly set flags become scaling parameters, so
			// the control plane never sees a spurious reset to zero.
			var scaling resource.ScalingParams
			if cmd.Flags().Changed("cpu-cores") {
				scaling.CPUCoreCount = &cpuCores
			}
			if cmd.Flags().Changed("storage-tbs") {
				scaling.StorageTBs = &storageTBs
			}
			if cmd.Flags().Changed("cpu-autoscale") {
				scaling.CPUAutoScale = &cpuAutoScale
			}
			if cmd.Flags().Changed("storage-autoscale") {
				scaling.StorageAutoScale = &storageAutoScale
			}

			env := rt.service.Scale(cmd.Context(), service.ScaleRequest{
				ActionRequest: service.ActionRequest{
					ResourceID: args[0],
					Wait:       wait,
				},
				Scaling: &scaling,
			})
			return printEnvelope(env)
		},
	}

	cmd.Flags().IntVar(&cpuCores, "cpu-cores", 0, "target OCPU core count")
	cmd.Flags().IntVar(&storageTBs, "storage-tbs", 0, "target storage size in terabytes")
	cmd.Flags().BoolVar(&cpuAutoScale, "cpu-autoscale", false, "enable or disable CPU auto-scaling")
	cmd.Flags().BoolVar(&storageAutoScale, "storage-autoscale", false, "enable or disable storage auto-scaling")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll the work request until it completes")

	return cmd
}
