package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadStringBasic(t *testing.T) {
	c, err := LoadString(`
# host config
[mixing_extruder]
mixing_steppers: 4
virtual_tools = 8
direct_mixing: true

[mcu]
serial: /dev/ttyUSB0
baud: 115200
`)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	names := c.GetSectionNames()
	if len(names) != 2 || names[0] != "mixing_extruder" || names[1] != "mcu" {
		t.Errorf("section names = %v", names)
	}

	s, err := c.GetSection("mixing_extruder")
	if err != nil {
		t.Fatalf("missing section: %v", err)
	}
	if v, _ := s.GetInt("mixing_steppers"); v != 4 {
		t.Errorf("mixing_steppers = %d, want 4", v)
	}
	if v, _ := s.GetInt("virtual_tools"); v != 8 {
		t.Errorf("virtual_tools = %d, want 8", v)
	}
	if v, _ := s.GetBool("direct_mixing"); !v {
		t.Error("direct_mixing = false, want true")
	}
}

func TestComments(t *testing.T) {
	c, err := LoadString(`
[mixing_extruder]
mixing_steppers: 3  # inline comment
; full line comment
virtual_tools: 2
`)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	s, _ := c.GetSection("mixing_extruder")
	if v, _ := s.GetInt("mixing_steppers"); v != 3 {
		t.Errorf("mixing_steppers = %d, want 3", v)
	}
}

func TestMalformedLines(t *testing.T) {
	cases := []string{
		"[]\n",
		"orphan: 1\n",
		"[s]\nnocolon\n",
	}
	for _, data := range cases {
		if _, err := LoadString(data); err == nil {
			t.Errorf("no error for malformed config %q", data)
		}
	}
}

func TestMissingSectionAndOption(t *testing.T) {
	c, _ := LoadString("[mcu]\nserial: /dev/ttyACM0\n")

	if _, err := c.GetSection("mixing_extruder"); err == nil {
		t.Error("no error for missing section")
	}
	s, _ := c.GetSection("mcu")
	if _, err := s.GetInt("baud"); err == nil {
		t.Error("no error for missing option without fallback")
	}
	if v, err := s.GetInt("baud", 250000); err != nil || v != 250000 {
		t.Errorf("fallback: got %d, %v", v, err)
	}
}

func TestGetBoolValues(t *testing.T) {
	c, _ := LoadString("[s]\na: yes\nb: off\nc: maybe\n")
	s, _ := c.GetSection("s")
	if v, err := s.GetBool("a"); err != nil || !v {
		t.Errorf("GetBool(a) = %v, %v", v, err)
	}
	if v, err := s.GetBool("b"); err != nil || v {
		t.Errorf("GetBool(b) = %v, %v", v, err)
	}
	if _, err := s.GetBool("c"); err == nil {
		t.Error("no error for invalid boolean")
	}
}

func TestGetIntWithBounds(t *testing.T) {
	c, _ := LoadString("[s]\nn: 12\n")
	s, _ := c.GetSection("s")

	one, eight := 1, 8
	if _, err := s.GetIntWithBounds("n", &one, &eight); err == nil {
		t.Error("no error for out-of-bounds value")
	}
	if v, err := s.GetIntWithBounds("n", &one, nil); err != nil || v != 12 {
		t.Errorf("bounds check failed: %d, %v", v, err)
	}
}

func TestCheckUnusedOptions(t *testing.T) {
	c, _ := LoadString("[mixing_extruder]\nmixing_steppers: 2\nmistyped_option: 5\n")
	s, _ := c.GetSection("mixing_extruder")
	if _, err := s.GetInt("mixing_steppers"); err != nil {
		t.Fatal(err)
	}
	err := c.CheckUnusedOptions()
	if err == nil || !strings.Contains(err.Error(), "mistyped_option") {
		t.Errorf("unused option not reported: %v", err)
	}
}

func TestMixerConfigDefaults(t *testing.T) {
	c, _ := LoadString("[mixing_extruder]\n")
	mc, err := MixerConfigFrom(c)
	if err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	if mc.MixingSteppers != 2 || mc.VirtualTools != 8 || !mc.DirectMixing {
		t.Errorf("unexpected defaults: %+v", mc)
	}
	if mc.Baud != 250000 {
		t.Errorf("baud default = %d, want 250000", mc.Baud)
	}
}

func TestMixerConfigBounds(t *testing.T) {
	for _, data := range []string{
		"[mixing_extruder]\nmixing_steppers: 0\n",
		"[mixing_extruder]\nmixing_steppers: 9\n",
		"[mixing_extruder]\nvirtual_tools: 0\n",
		"[mixing_extruder]\ndirect_mixing: sometimes\n",
	} {
		c, _ := LoadString(data)
		if _, err := MixerConfigFrom(c); err == nil {
			t.Errorf("no error for %q", data)
		}
	}
}

func TestParseMixerConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixer.cfg")
	data := `[mixing_extruder]
mixing_steppers: 4
virtual_tools: 2
direct_mixing: false

[mcu]
serial: /dev/ttyACM0
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	mc, err := ParseMixerConfig(path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if mc.MixingSteppers != 4 || mc.VirtualTools != 2 || mc.DirectMixing {
		t.Errorf("unexpected config: %+v", mc)
	}
	if mc.Device != "/dev/ttyACM0" {
		t.Errorf("device = %q", mc.Device)
	}
}
