package hostmix

import "testing"

func TestParseGCodeLine(t *testing.T) {
	cmd, err := parseGCodeLine("M163 S2 P0.5")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Name != "M163" {
		t.Errorf("name = %q", cmd.Name)
	}
	if cmd.Args["S"] != "2" || cmd.Args["P"] != "0.5" {
		t.Errorf("args = %v", cmd.Args)
	}
}

func TestParseGCodeLineComments(t *testing.T) {
	for _, line := range []string{"", "   ", "; comment", "(comment)", "  ; x"} {
		cmd, err := parseGCodeLine(line)
		if err != nil || cmd != nil {
			t.Errorf("parse(%q) = %v, %v; want nil, nil", line, cmd, err)
		}
	}

	cmd, err := parseGCodeLine("M164 S1 ; commit to tool 1")
	if err != nil || cmd == nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Args["S"] != "1" {
		t.Errorf("args = %v", cmd.Args)
	}
}

func TestParseGCodeLineLowercase(t *testing.T) {
	cmd, err := parseGCodeLine("m165 a1 b3")
	if err != nil || cmd == nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Name != "M165" {
		t.Errorf("name = %q", cmd.Name)
	}
	if cmd.Args["A"] != "1" || cmd.Args["B"] != "3" {
		t.Errorf("args = %v", cmd.Args)
	}
}

func TestFlagArg(t *testing.T) {
	cmd, _ := parseGCodeLine("M165 R")
	if !hasArg(cmd.Args, "R") {
		t.Error("bare flag arg not detected")
	}
	if hasArg(cmd.Args, "A") {
		t.Error("absent arg detected")
	}
}

func TestFloatArg(t *testing.T) {
	args := map[string]string{"P": "1.5", "Q": "abc", "R": ""}

	if v, err := floatArg(args, "P", 0); err != nil || v != 1.5 {
		t.Errorf("floatArg(P) = %v, %v", v, err)
	}
	if v, err := floatArg(args, "Z", 2.5); err != nil || v != 2.5 {
		t.Errorf("floatArg default = %v, %v", v, err)
	}
	if _, err := floatArg(args, "Q", 0); err == nil {
		t.Error("no error for bad float")
	}
	if _, err := floatArg(args, "R", 0); err == nil {
		t.Error("no error for empty value")
	}
}

func TestIntArg(t *testing.T) {
	args := map[string]string{"S": "3", "T": "1.5"}
	if v, err := intArg(args, "S", -1); err != nil || v != 3 {
		t.Errorf("intArg(S) = %v, %v", v, err)
	}
	if v, err := intArg(args, "X", -1); err != nil || v != -1 {
		t.Errorf("intArg default = %v, %v", v, err)
	}
	if _, err := intArg(args, "T", 0); err == nil {
		t.Error("no error for non-integer")
	}
}
