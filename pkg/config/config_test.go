package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Backends.Primary != BackendSDK {
		t.Errorf("Primary = %q, want sdk", cfg.Backends.Primary)
	}
	if cfg.Backends.Fallback != BackendCLI {
		t.Errorf("Fallback = %q, want cli", cfg.Backends.Fallback)
	}
	if cfg.Tracking.MaxPolls <= 0 {
		t.Error("default tracking config has no poll budget")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ocilift.yaml")
	content := `
compartment_id: ocid1.compartment.oc1..file
region: eu-frankfurt-1
backends:
  primary: cli
  fallback: sdk
  call_timeout: 30s
tracking:
  max_polls: 10
  initial_interval: 1s
  max_interval: 10s
  multiplier: 2.0
  transport_retries: 2
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CompartmentID != "ocid1.compartment.oc1..file" {
		t.Errorf("CompartmentID = %q", cfg.CompartmentID)
	}
	if cfg.Backends.Primary != BackendCLI || cfg.Backends.Fallback != BackendSDK {
		t.Errorf("backend order = %q/%q", cfg.Backends.Primary, cfg.Backends.Fallback)
	}
	if cfg.Backends.CallTimeout != 30*time.Second {
		t.Errorf("CallTimeout = %v", cfg.Backends.CallTimeout)
	}
	if cfg.Tracking.MaxPolls != 10 {
		t.Errorf("MaxPolls = %d", cfg.Tracking.MaxPolls)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ocilift.yaml")
	if err := os.WriteFile(path, []byte("compartment_id: ocid1.compartment.oc1..file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OCILIFT_COMPARTMENT_ID", "ocid1.compartment.oc1..env")
	t.Setenv("OCILIFT_REGION", "us-phoenix-1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CompartmentID != "ocid1.compartment.oc1..env" {
		t.Errorf("CompartmentID = %q, env override lost", cfg.CompartmentID)
	}
	if cfg.Region != "us-phoenix-1" {
		t.Errorf("Region = %q", cfg.Region)
	}
}

func TestProviderCompartmentEnvFallback(t *testing.T) {
	t.Setenv("OCI_COMPARTMENT_ID", "ocid1.compartment.oc1..provider")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CompartmentID != "ocid1.compartment.oc1..provider" {
		t.Errorf("CompartmentID = %q", cfg.CompartmentID)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Backends.Primary = "rest"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown backend name")
	}
}

func TestValidateRejectsDuplicateBackends(t *testing.T) {
	cfg := Default()
	cfg.Backends.Fallback = cfg.Backends.Primary
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for fallback duplicating the primary")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/ocilift.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
