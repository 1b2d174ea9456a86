package config

// Presets are ready-made closed-loop scenarios for the sim and live
// commands.
var Presets = map[string]*Config{
	"hover": {
		RateHz: 100,
		Gains:  defaultGainsConfig(),
		Sim:    SimConfig{Duration: 30.0, Integrator: "rk4", Trajectory: "hover", Height: 2.0, Lag: 0.4},
	},
	"step": {
		RateHz: 100,
		Gains:  defaultGainsConfig(),
		Sim:    SimConfig{Duration: 20.0, Integrator: "rk4", Trajectory: "step", Height: 3.0, Lag: 0.4},
	},
	"circle": {
		RateHz: 100,
		Gains:  defaultGainsConfig(),
		Sim:    SimConfig{Duration: 60.0, Integrator: "rk4", Trajectory: "circle", Height: 2.0, Radius: 1.5, Lag: 0.4},
	},
	"sluggish": {
		// slow plant response; stresses the fuzzy integral term
		RateHz: 100,
		Gains:  defaultGainsConfig(),
		Sim:    SimConfig{Duration: 40.0, Integrator: "rk4", Trajectory: "step", Height: 3.0, Lag: 1.2},
	},
	"crisp": {
		// zero uncertainty width: the compositor degenerates to type-1
		RateHz: 100,
		Gains:  GainsConfig{KP: 1.0, KD: 0.004, KA: 0.077, KB: 7.336, AlphaP: 0, AlphaD: 0},
		Sim:    SimConfig{Duration: 30.0, Integrator: "rk4", Trajectory: "hover", Height: 2.0, Lag: 0.4},
	},
}

func defaultGainsConfig() GainsConfig {
	return DefaultConfig().Gains
}

// GetPreset returns nil when the name is unknown.
func GetPreset(name string) *Config {
	return Presets[name]
}

// ListPresets returns the available preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
