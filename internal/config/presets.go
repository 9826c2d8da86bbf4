package config

import (
	"sort"

	"github.com/san-kum/linebot/internal/control"
)

// Presets are tuned gain and speed sets. "m3pi" keeps the integer gains the
// robot runs on board (Ki 0.5 and Kd 3.5 truncate to 0 and 3).
var Presets = map[string]func() *Config{
	"m3pi": func() *Config {
		return DefaultConfig()
	},
	"gentle": func() *Config {
		cfg := DefaultConfig()
		cfg.Gains = control.Gains{Kp: 0.3, Ki: 0.0, Kd: 1.0}
		cfg.Motor = MotorConfig{Min: 0, Max: 0.3, BaseSpeed: 0.2}
		return cfg
	},
	"aggressive": func() *Config {
		cfg := DefaultConfig()
		cfg.Gains = control.Gains{Kp: 1.0, Ki: 0.5, Kd: 3.5}
		cfg.Motor = MotorConfig{Min: 0, Max: 0.5, BaseSpeed: 0.5}
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
