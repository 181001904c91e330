package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 10 || cfg.ListenAddr != ":8080" {
		t.Errorf("defaults wrong: %+v", cfg)
	}
	if cfg.Criteria.MinLTMEBITDA != 50_000_000 {
		t.Errorf("default size floor wrong: %f", cfg.Criteria.MinLTMEBITDA)
	}
	if cfg.Assumptions.EntryLeverage != 6.0 || cfg.Assumptions.ProjectionYears != 5 {
		t.Errorf("default assumptions wrong: %+v", cfg.Assumptions)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeTemp(t, "aperture.yaml", `
workers: 4
criteria:
  min_ltm_ebitda: 75000000
  max_ev_ebitda: 10
assumptions:
  entry_leverage: 5.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Workers)
	}
	if cfg.Criteria.MinLTMEBITDA != 75_000_000 || cfg.Criteria.MaxEVEBITDA != 10 {
		t.Errorf("criteria not overridden: %+v", cfg.Criteria)
	}
	if cfg.Assumptions.EntryLeverage != 5.5 {
		t.Errorf("assumptions not overridden: %+v", cfg.Assumptions)
	}
	// Untouched fields keep defaults.
	if cfg.Criteria.MaxNetDebtEBITDA != 2.0 {
		t.Errorf("unset threshold should keep default, got %f", cfg.Criteria.MaxNetDebtEBITDA)
	}
}

func TestLoadHJSON(t *testing.T) {
	// HJSON allows comments and unquoted keys; analyst override files use it.
	path := writeTemp(t, "override.hjson", `
{
  # tighter screen for this session
  criteria: {
    max_ev_ebitda: 9
  }
}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Criteria.MaxEVEBITDA != 9 {
		t.Errorf("hjson override not applied: %f", cfg.Criteria.MaxEVEBITDA)
	}
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("MARKET_API_KEY", "mk-123")
	t.Setenv("APERTURE_WORKERS", "3")
	t.Setenv("APERTURE_LISTEN_ADDR", ":9999")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Market.APIKey != "mk-123" {
		t.Error("API key should come from the environment")
	}
	if cfg.Workers != 3 || cfg.ListenAddr != ":9999" {
		t.Errorf("env scalars not applied: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
