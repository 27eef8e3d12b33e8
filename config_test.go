package fluid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.SimResolution != 128 || cfg.DyeResolution != 512 {
		t.Errorf("unexpected default resolutions: sim=%d dye=%d", cfg.SimResolution, cfg.DyeResolution)
	}
	if cfg.PressureIterations != 20 {
		t.Errorf("default pressure_iterations = %d, want 20", cfg.PressureIterations)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sim resolution", func(c *Config) { c.SimResolution = 0 }},
		{"negative dye resolution", func(c *Config) { c.DyeResolution = -1 }},
		{"zero density dissipation", func(c *Config) { c.DensityDissipation = 0 }},
		{"density dissipation above one", func(c *Config) { c.DensityDissipation = 1.01 }},
		{"zero velocity dissipation", func(c *Config) { c.VelocityDissipation = 0 }},
		{"negative pressure iterations", func(c *Config) { c.PressureIterations = -1 }},
		{"pressure decay above one", func(c *Config) { c.PressureDecay = 1.5 }},
		{"negative curl", func(c *Config) { c.Curl = -1 }},
		{"zero splat radius", func(c *Config) { c.SplatRadius = 0 }},
		{"zero splat force", func(c *Config) { c.SplatForce = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	// Boundary values that must pass.
	edge := valid
	edge.DensityDissipation = 1
	edge.PressureIterations = 0
	edge.PressureDecay = 0
	edge.Curl = 0
	if err := edge.Validate(); err != nil {
		t.Errorf("boundary config rejected: %v", err)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluid.yaml")
	content := "sim_resolution: 64\ncurl: 15\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}

	if cfg.SimResolution != 64 {
		t.Errorf("sim_resolution = %d, want 64 (from file)", cfg.SimResolution)
	}
	if cfg.Curl != 15 {
		t.Errorf("curl = %v, want 15 (from file)", cfg.Curl)
	}
	// Untouched fields keep their defaults.
	def := DefaultConfig()
	if cfg.DyeResolution != def.DyeResolution {
		t.Errorf("dye_resolution = %d, want default %d", cfg.DyeResolution, def.DyeResolution)
	}
	if cfg.PressureDecay != def.PressureDecay {
		t.Errorf("pressure_decay = %v, want default %v", cfg.PressureDecay, def.PressureDecay)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig on missing file succeeded")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("sim_resolution: -3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig(bad)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadConfig on invalid values = %v, want ErrInvalidConfig", err)
	}

	garbled := filepath.Join(t.TempDir(), "garbled.yaml")
	if err := os.WriteFile(garbled, []byte("sim_resolution: [unclosed\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(garbled); err == nil {
		t.Error("LoadConfig on garbled YAML succeeded")
	}
}
