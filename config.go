package fluid

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds the immutable per-run simulation parameters. Zero values are
// not meaningful; start from DefaultConfig or LoadConfig and adjust.
type Config struct {
	// SimResolution is the base resolution of the velocity/pressure grid.
	SimResolution int `yaml:"sim_resolution"`

	// DyeResolution is the base resolution of the dye (color) grid.
	DyeResolution int `yaml:"dye_resolution"`

	// DensityDissipation is the per-step multiplicative decay of dye, (0, 1].
	DensityDissipation float32 `yaml:"density_dissipation"`

	// VelocityDissipation is the per-step multiplicative decay of velocity, (0, 1].
	VelocityDissipation float32 `yaml:"velocity_dissipation"`

	// PressureIterations is the Jacobi iteration count per step. 0 disables
	// pressure correction, producing visibly divergent flow (debug only).
	PressureIterations int `yaml:"pressure_iterations"`

	// PressureDecay scales last frame's pressure before the next solve,
	// keeping a warm start without letting stale pressure bias convergence.
	PressureDecay float32 `yaml:"pressure_decay"`

	// Curl is the vorticity confinement strength. 0 disables confinement.
	Curl float32 `yaml:"curl"`

	// SplatRadius is the default Gaussian radius for splats, in normalized
	// units, used when a Splat does not carry its own.
	SplatRadius float32 `yaml:"splat_radius"`

	// SplatForce is the velocity scale hosts apply when turning pointer
	// motion into a splat delta. The engine itself does not apply it.
	SplatForce float32 `yaml:"splat_force"`

	// Workers is the goroutine count for the software backend.
	// 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the built-in defaults (defaults.yaml).
func DefaultConfig() Config {
	var c Config
	// The embedded file is compiled in; a parse failure is a build defect.
	if err := yaml.Unmarshal(defaultsYAML, &c); err != nil {
		panic(fmt.Sprintf("fluid: embedded defaults.yaml invalid: %v", err))
	}
	return c
}

// LoadConfig reads a YAML config file, overlaying it on the defaults.
// Fields absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the config invariants. All errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.SimResolution <= 0 {
		return fmt.Errorf("%w: sim_resolution must be positive, got %d", ErrInvalidConfig, c.SimResolution)
	}
	if c.DyeResolution <= 0 {
		return fmt.Errorf("%w: dye_resolution must be positive, got %d", ErrInvalidConfig, c.DyeResolution)
	}
	if c.DensityDissipation <= 0 || c.DensityDissipation > 1 {
		return fmt.Errorf("%w: density_dissipation must be in (0, 1], got %v", ErrInvalidConfig, c.DensityDissipation)
	}
	if c.VelocityDissipation <= 0 || c.VelocityDissipation > 1 {
		return fmt.Errorf("%w: velocity_dissipation must be in (0, 1], got %v", ErrInvalidConfig, c.VelocityDissipation)
	}
	if c.PressureIterations < 0 {
		return fmt.Errorf("%w: pressure_iterations must be >= 0, got %d", ErrInvalidConfig, c.PressureIterations)
	}
	if c.PressureDecay < 0 || c.PressureDecay > 1 {
		return fmt.Errorf("%w: pressure_decay must be in [0, 1], got %v", ErrInvalidConfig, c.PressureDecay)
	}
	if c.Curl < 0 {
		return fmt.Errorf("%w: curl must be >= 0, got %v", ErrInvalidConfig, c.Curl)
	}
	if c.SplatRadius <= 0 {
		return fmt.Errorf("%w: splat_radius must be positive, got %v", ErrInvalidConfig, c.SplatRadius)
	}
	if c.SplatForce <= 0 {
		return fmt.Errorf("%w: splat_force must be positive, got %v", ErrInvalidConfig, c.SplatForce)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}
