// Package ocisdk implements the SDK-backed execution backend using the
// provider's native Go SDK. It is the primary backend: richer typing,
// lower latency, and structured errors.
package ocisdk

import (
	"fmt"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/core"
	"github.com/oracle/oci-go-sdk/v65/database"
	"github.com/oracle/oci-go-sdk/v65/workrequests"
)

// Options configure the SDK client set.
type Options struct {
	// ConfigFile is the path to the credential file. Empty uses the
	// provider default.
	ConfigFile string

	// Profile selects a profile within the credential file.
	Profile string

	// Region overrides the profile's region when set.
	Region string
}

// ClientSet bundles the service clients used by the backend.
type ClientSet struct {
	Compute core.ComputeClient
	Network core.VirtualNetworkClient
	DB      database.DatabaseClient
	Work    workrequests.WorkRequestClient
}

// NewClientSet builds all service clients from the credential
// configuration.
func NewClientSet(opts Options) (*ClientSet, error) {
	provider := configurationProvider(opts)

	compute, err := core.NewComputeClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}
	network, err := core.NewVirtualNetworkClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create network client: %w", err)
	}
	db, err := database.NewDatabaseClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create database client: %w", err)
	}
	work, err := workrequests.NewWorkRequestClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create work request client: %w", err)
	}

	cs := &ClientSet{
		Compute: compute,
		Network: network,
		DB:      db,
		Work:    work,
	}
	if opts.Region != "" {
		cs.SetRegion(opts.Region)
	}
	return cs, nil
}

// SetRegion points every client at the given region.
func (cs *ClientSet) SetRegion(region string) {
	cs.Compute.SetRegion(region)
	cs.Network.SetRegion(region)
	cs.DB.SetRegion(region)
	cs.Work.SetRegion(region)
}

func configurationProvider(opts Options) common.ConfigurationProvider {
	if opts.ConfigFile != "" || opts.Profile != "" {
		return common.CustomProfileConfigProvider(opts.ConfigFile, opts.Profile)
	}
	return common.DefaultConfigProvider()
}
