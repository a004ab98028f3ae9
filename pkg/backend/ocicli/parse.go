package ocicli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/resource"
)

// cliEnvelope is the CLI's top-level JSON output: the payload under
// "data" plus, for asynchronous operations, the work request id.
type cliEnvelope struct {
	Data          json.RawMessage `json:"data"`
	WorkRequestID string          `json:"opc-work-request-id"`
}

func decodeEnvelope(out []byte) (*cliEnvelope, error) {
	var env cliEnvelope
	if len(out) == 0 {
		// Some mutations print nothing on success.
		return &env, nil
	}
	if err := json.Unmarshal(out, &env); err != nil {
		return nil, backend.NewUnavailable("cli returned malformed output", err)
	}
	return &env, nil
}

// cliTime parses the CLI's RFC 3339 timestamps.
type cliTime struct {
	t *time.Time
}

func (c *cliTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil || raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// Tolerate unparseable timestamps rather than failing the call.
		return nil
	}
	c.t = &parsed
	return nil
}

// cliInstance mirrors the CLI's compute instance payload.
type cliInstance struct {
	ID                 string            `json:"id"`
	DisplayName        string            `json:"display-name"`
	LifecycleState     string            `json:"lifecycle-state"`
	Shape              string            `json:"shape"`
	AvailabilityDomain string            `json:"availability-domain"`
	FaultDomain        string            `json:"fault-domain"`
	CompartmentID      string            `json:"compartment-id"`
	Region             string            `json:"region"`
	TimeCreated        cliTime           `json:"time-created"`
	FreeformTags       map[string]string `json:"freeform-tags"`
	Metadata           map[string]string `json:"metadata"`
}

func (i cliInstance) summary() backend.ResourceSummary {
	return backend.ResourceSummary{
		ID:                 i.ID,
		Name:               i.DisplayName,
		Kind:               resource.KindInstance,
		State:              resource.ParseState(i.LifecycleState),
		Shape:              i.Shape,
		AvailabilityDomain: i.AvailabilityDomain,
		FaultDomain:        i.FaultDomain,
		CompartmentID:      i.CompartmentID,
		Region:             i.Region,
		TimeCreated:        i.TimeCreated.t,
		FreeformTags:       i.FreeformTags,
	}
}

// cliDbSystem mirrors the CLI's database system payload.
type cliDbSystem struct {
	ID                 string            `json:"id"`
	DisplayName        string            `json:"display-name"`
	LifecycleState     string            `json:"lifecycle-state"`
	Shape              string            `json:"shape"`
	AvailabilityDomain string            `json:"availability-domain"`
	CompartmentID      string            `json:"compartment-id"`
	TimeCreated        cliTime           `json:"time-created"`
	FreeformTags       map[string]string `json:"freeform-tags"`
	DatabaseEdition    string            `json:"database-edition"`
	Version            string            `json:"version"`
	NodeCount          int               `json:"node-count"`
	CPUCoreCount       int               `json:"cpu-core-count"`
	DataStorageGBs     int               `json:"data-storage-size-in-gbs"`
	Hostname           string            `json:"hostname"`
	Domain             string            `json:"domain"`
}

func (d cliDbSystem) summary() backend.ResourceSummary {
	return backend.ResourceSummary{
		ID:                 d.ID,
		Name:               d.DisplayName,
		Kind:               resource.KindDatabaseSystem,
		State:              resource.ParseState(d.LifecycleState),
		Shape:              d.Shape,
		AvailabilityDomain: d.AvailabilityDomain,
		CompartmentID:      d.CompartmentID,
		TimeCreated:        d.TimeCreated.t,
		FreeformTags:       d.FreeformTags,
		Database: &backend.DatabaseAttributes{
			Edition:    d.DatabaseEdition,
			Version:    d.Version,
			NodeCount:  d.NodeCount,
			CPUCores:   d.CPUCoreCount,
			StorageGBs: d.DataStorageGBs,
			Hostname:   d.Hostname,
			Domain:     d.Domain,
		},
	}
}

// cliAutonomousDB mirrors the CLI's autonomous database payload.
type cliAutonomousDB struct {
	ID                   string            `json:"id"`
	DisplayName          string            `json:"display-name"`
	DBName               string            `json:"db-name"`
	LifecycleState       string            `json:"lifecycle-state"`
	CompartmentID        string            `json:"compartment-id"`
	TimeCreated          cliTime           `json:"time-created"`
	FreeformTags         map[string]string `json:"freeform-tags"`
	DBVersion            string            `json:"db-version"`
	DBWorkload           string            `json:"db-workload"`
	CPUCoreCount         int               `json:"cpu-core-count"`
	DataStorageTBs       int               `json:"data-storage-size-in-tbs"`
	IsAutoScalingEnabled bool              `json:"is-auto-scaling-enabled"`
	IsStorageAutoScaling bool              `json:"is-auto-scaling-for-storage-enabled"`
}

func (a cliAutonomousDB) summary() backend.ResourceSummary {
	return backend.ResourceSummary{
		ID:            a.ID,
		Name:          a.DisplayName,
		Kind:          resource.KindAutonomousDatabase,
		State:         resource.ParseState(a.LifecycleState),
		CompartmentID: a.CompartmentID,
		TimeCreated:   a.TimeCreated.t,
		FreeformTags:  a.FreeformTags,
		Autonomous: &backend.AutonomousAttributes{
			DBName:           a.DBName,
			DBVersion:        a.DBVersion,
			Workload:         a.DBWorkload,
			CPUCores:         a.CPUCoreCount,
			StorageTBs:       a.DataStorageTBs,
			CPUAutoScale:     a.IsAutoScalingEnabled,
			StorageAutoScale: a.IsStorageAutoScaling,
		},
	}
}

// cliVnicAttachment mirrors the CLI's vnic attachment payload.
type cliVnicAttachment struct {
	ID             string `json:"id"`
	VnicID         string `json:"vnic-id"`
	NICIndex       int    `json:"nic-index"`
	LifecycleState string `json:"lifecycle-state"`
}

// cliVnic mirrors the CLI's vnic payload.
type cliVnic struct {
	ID            string   `json:"id"`
	IsPrimary     bool     `json:"is-primary"`
	PrivateIP     string   `json:"private-ip"`
	PublicIP      string   `json:"public-ip"`
	HostnameLabel string   `json:"hostname-label"`
	MACAddress    string   `json:"mac-address"`
	SubnetID      string   `json:"subnet-id"`
	NsgIDs        []string `json:"nsg-ids"`
}

// cliDbNode mirrors the CLI's database node payload.
type cliDbNode struct {
	ID             string `json:"id"`
	LifecycleState string `json:"lifecycle-state"`
}

// cliWorkRequest mirrors the CLI's work request payload.
type cliWorkRequest struct {
	ID              string  `json:"id"`
	Status          string  `json:"status"`
	OperationType   string  `json:"operation-type"`
	PercentComplete float32 `json:"percent-complete"`
	TimeAccepted    cliTime `json:"time-accepted"`
	TimeFinished    cliTime `json:"time-finished"`
}

func decodeList[T any](env *cliEnvelope) ([]T, error) {
	if len(env.Data) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return nil, backend.NewUnavailable("cli returned malformed list payload", err)
	}
	return items, nil
}

func decodeOne[T any](env *cliEnvelope, resourceID string) (T, error) {
	var item T
	if len(env.Data) == 0 {
		return item, backend.NewNotFound(resourceID, fmt.Errorf("cli returned no data"))
	}
	if err := json.Unmarshal(env.Data, &item); err != nil {
		return item, backend.NewUnavailable("cli returned malformed payload", err)
	}
	return item, nil
}
