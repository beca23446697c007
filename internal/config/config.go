package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/stringsim/internal/lattice"
)

const (
	DefaultSampleRate = 44100
	DefaultDuration   = 4.0
	DefaultPosition   = 0.3
	DefaultStrength   = 0.01
	DefaultLevel      = 0.5
	DefaultBufferSize = 512
	DefaultBackend    = "portaudio"
)

// ErrUnstable indicates a timestep at or above the lattice stability bound.
var ErrUnstable = errors.New("config: timestep above stability bound")

type Config struct {
	Name       string       `yaml:"name,omitempty"`
	SampleRate float64      `yaml:"sample_rate"`
	Duration   float64      `yaml:"duration"`
	Level      float64      `yaml:"level"`
	String     StringConfig `yaml:"string"`
	Pluck      PluckConfig  `yaml:"pluck"`
	Output     OutputConfig `yaml:"output"`
}

type StringConfig struct {
	Nodes          int     `yaml:"nodes"`
	SpringConstant float64 `yaml:"spring_constant"`
	Mass           float64 `yaml:"mass"`
	Shape          string  `yaml:"shape"`
}

type PluckConfig struct {
	Position float64 `yaml:"position"`
	Strength float64 `yaml:"strength"`
	// Every re-plucks the string at this interval in seconds; 0 plucks once.
	Every float64 `yaml:"every"`
}

type OutputConfig struct {
	Backend    string `yaml:"backend"`
	BufferSize int    `yaml:"buffer_size"`
	Channels   int    `yaml:"channels"`
}

func DefaultConfig() *Config {
	return &Config{
		SampleRate: DefaultSampleRate,
		Duration:   DefaultDuration,
		Level:      DefaultLevel,
		String: StringConfig{
			Nodes:          lattice.DefaultNodes,
			SpringConstant: lattice.DefaultSpringConstant,
			Mass:           lattice.DefaultMass,
			Shape:          lattice.ShapeTriangle.String(),
		},
		Pluck: PluckConfig{
			Position: DefaultPosition,
			Strength: DefaultStrength,
		},
		Output: OutputConfig{
			Backend:    DefaultBackend,
			BufferSize: DefaultBufferSize,
			Channels:   2,
		},
	}
}

// Load reads a config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto reads a config file over base, so fields the file leaves out keep
// the values base already has.
func LoadInto(path string, base *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Dt is the per-sample timestep.
func (c *Config) Dt() float64 { return 1 / c.SampleRate }

// Validate checks that the configuration describes a lattice that will stay
// bounded. The lattice itself never checks stability at runtime.
func (c *Config) Validate() error {
	if !(c.SampleRate > 0) {
		return fmt.Errorf("sample rate must be positive, got %g", c.SampleRate)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %g", c.Duration)
	}
	if c.String.Nodes < 1 {
		return fmt.Errorf("%w: nodes %d", lattice.ErrParameterBounds, c.String.Nodes)
	}
	if !(c.String.Mass > 0) {
		return fmt.Errorf("%w: mass %g", lattice.ErrParameterBounds, c.String.Mass)
	}
	if c.String.SpringConstant < 0 {
		return fmt.Errorf("%w: spring constant %g", lattice.ErrParameterBounds, c.String.SpringConstant)
	}
	if _, err := lattice.ParseShape(c.String.Shape); err != nil {
		return err
	}
	if err := lattice.ValidatePluck(c.Pluck.Position); err != nil {
		return err
	}
	if c.Pluck.Every < 0 {
		return fmt.Errorf("pluck interval must not be negative, got %g", c.Pluck.Every)
	}
	if c.Output.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.Output.BufferSize)
	}
	if c.Output.Channels < 1 {
		return fmt.Errorf("channels must be positive, got %d", c.Output.Channels)
	}

	bound := lattice.StableTimestep(c.String.SpringConstant, c.String.Mass)
	if dt := c.Dt(); dt >= bound || math.IsNaN(dt) {
		return fmt.Errorf("%w: dt %g >= %g (raise sample_rate or lower spring_constant/mass ratio)", ErrUnstable, dt, bound)
	}
	return nil
}

// NewString builds the lattice described by the configuration.
func (c *Config) NewString() (*lattice.String, error) {
	s, err := lattice.New(c.String.Nodes, c.String.SpringConstant, c.String.Mass)
	if err != nil {
		return nil, err
	}
	shape, err := lattice.ParseShape(c.String.Shape)
	if err != nil {
		return nil, err
	}
	s.SetShape(shape)
	return s, nil
}

// Fundamental returns the lowest mode frequency of the configured lattice in Hz.
func (c *Config) Fundamental() float64 {
	n := float64(c.String.Nodes)
	omega := 2 * math.Sqrt(c.String.SpringConstant/c.String.Mass) * math.Sin(math.Pi/(2*(n+1)))
	return omega / (2 * math.Pi)
}
