package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/uavlab/it2flc/internal/controller"
)

const (
	DefaultRateHz      = 100
	DefaultInterface   = "can0"
	DefaultMetricsAddr = ""
	DefaultSimDuration = 30.0
)

type Config struct {
	RateHz      int         `yaml:"rate_hz"`
	Interface   string      `yaml:"interface"`
	MetricsAddr string      `yaml:"metrics_addr"`
	Gains       GainsConfig `yaml:"gains"`
	Sim         SimConfig   `yaml:"sim"`
}

// GainsConfig mirrors the reconfiguration surface of the controller: the
// four k gains plus the proportional/derivative uncertainty widths.
type GainsConfig struct {
	KP     float64 `yaml:"k_p"`
	KD     float64 `yaml:"k_d"`
	KA     float64 `yaml:"k_a"`
	KB     float64 `yaml:"k_b"`
	AlphaP float64 `yaml:"alpha_p"`
	AlphaD float64 `yaml:"alpha_d"`
}

type SimConfig struct {
	Duration   float64 `yaml:"duration"`
	Integrator string  `yaml:"integrator"`
	Trajectory string  `yaml:"trajectory"`
	Height     float64 `yaml:"height"`
	Radius     float64 `yaml:"radius"`
	Lag        float64 `yaml:"lag"`
}

func DefaultConfig() *Config {
	g := controller.DefaultGains()
	return &Config{
		RateHz:      DefaultRateHz,
		Interface:   DefaultInterface,
		MetricsAddr: DefaultMetricsAddr,
		Gains: GainsConfig{
			KP:     g.KP,
			KD:     g.KD,
			KA:     g.KA,
			KB:     g.KB,
			AlphaP: g.Alpha1,
			AlphaD: g.Alpha2,
		},
		Sim: SimConfig{
			Duration:   DefaultSimDuration,
			Integrator: "rk4",
			Trajectory: "hover",
			Height:     2.0,
			Radius:     1.5,
			Lag:        0.4,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GainSet converts the configured gains to the controller's representation
// (alpha_p feeds the first uncertainty width, alpha_d the second).
func (c *Config) GainSet() controller.GainSet {
	return controller.GainSet{
		KP:     c.Gains.KP,
		KD:     c.Gains.KD,
		KA:     c.Gains.KA,
		KB:     c.Gains.KB,
		Alpha1: c.Gains.AlphaP,
		Alpha2: c.Gains.AlphaD,
	}
}

// Dt returns the tick period in seconds.
func (c *Config) Dt() float64 {
	rate := c.RateHz
	if rate <= 0 {
		rate = DefaultRateHz
	}
	return 1.0 / float64(rate)
}
