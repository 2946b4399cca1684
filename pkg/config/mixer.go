package config

import (
	"mixhost/pkg/mixing"
)

// MixerConfig is the typed view of the host configuration file.
type MixerConfig struct {
	// [mixing_extruder]
	MixingSteppers int  // channel count (1..mixing.MaxSteppers)
	VirtualTools   int  // virtual tool slot count (1..mixing.MaxVirtualTools)
	DirectMixing   bool // enable the sparse M165 batch command

	// [mcu]
	Device string // serial device path; empty means stdin
	Baud   int
}

// DefaultMixerConfig returns the built-in defaults.
func DefaultMixerConfig() MixerConfig {
	return MixerConfig{
		MixingSteppers: 2,
		VirtualTools:   8,
		DirectMixing:   true,
		Baud:           250000,
	}
}

// ParseMixerConfig loads and validates the host configuration file.
func ParseMixerConfig(path string) (*MixerConfig, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	return MixerConfigFrom(c)
}

// MixerConfigFrom extracts the typed configuration from a parsed Config.
func MixerConfigFrom(c *Config) (*MixerConfig, error) {
	mc := DefaultMixerConfig()

	one := 1
	maxSteppers := mixing.MaxSteppers
	maxTools := mixing.MaxVirtualTools

	if s := c.GetSectionOptional("mixing_extruder"); s != nil {
		var err error
		mc.MixingSteppers, err = s.GetIntWithBounds("mixing_steppers", &one, &maxSteppers, mc.MixingSteppers)
		if err != nil {
			return nil, err
		}
		mc.VirtualTools, err = s.GetIntWithBounds("virtual_tools", &one, &maxTools, mc.VirtualTools)
		if err != nil {
			return nil, err
		}
		mc.DirectMixing, err = s.GetBool("direct_mixing", mc.DirectMixing)
		if err != nil {
			return nil, err
		}
	}

	if s := c.GetSectionOptional("mcu"); s != nil {
		var err error
		mc.Device, err = s.Get("serial", "")
		if err != nil {
			return nil, err
		}
		mc.Baud, err = s.GetIntWithBounds("baud", &one, nil, mc.Baud)
		if err != nil {
			return nil, err
		}
	}

	if err := c.CheckUnusedOptions(); err != nil {
		return nil, err
	}
	return &mc, nil
}
