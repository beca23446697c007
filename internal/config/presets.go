package config

import "sort"

var Presets = map[string]*Config{
	"reference": withName("reference", func(c *Config) {}),
	"short": withName("short", func(c *Config) {
		c.String.Nodes = 200
		c.Duration = 2.0
	}),
	"bright": withName("bright", func(c *Config) {
		c.String.Nodes = 400
		c.Pluck.Position = 0.1
		c.Pluck.Strength = 0.02
	}),
	"soft": withName("soft", func(c *Config) {
		c.Pluck.Position = 0.5
		c.Pluck.Strength = 0.004
		c.Level = 0.8
	}),
	"verbatim": withName("verbatim", func(c *Config) {
		c.String.Shape = "verbatim"
		c.Pluck.Strength = 0.002
	}),
	// audible fundamentals: f = sqrt(k/m) / (2(N+1))
	"a3": withName("a3", func(c *Config) {
		c.String.Nodes = 50
		c.String.SpringConstant = 5.0e7
		c.Pluck.Position = 0.2
		c.Pluck.Strength = 0.5
	}),
	"e2": withName("e2", func(c *Config) {
		c.String.Nodes = 100
		c.String.SpringConstant = 2.77e7
		c.Pluck.Position = 0.15
		c.Pluck.Strength = 0.5
	}),
	"strum": withName("strum", func(c *Config) {
		c.String.Nodes = 800
		c.Duration = 8.0
		c.Pluck.Every = 0.5
	}),
}

func withName(name string, apply func(*Config)) *Config {
	c := DefaultConfig()
	c.Name = name
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
