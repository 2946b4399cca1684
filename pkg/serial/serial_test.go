package serial

import (
	"runtime"
	"testing"
)

func TestBaudRateToSpeed(t *testing.T) {
	for _, baud := range []int{9600, 115200, 230400} {
		if _, err := baudRateToSpeed(baud); err != nil {
			t.Errorf("baudRateToSpeed(%d): %v", baud, err)
		}
	}
	if _, err := baudRateToSpeed(12345); err == nil {
		t.Error("no error for unsupported baud rate")
	}
}

func TestBaudRateFirmwareDefault(t *testing.T) {
	_, err := baudRateToSpeed(250000)
	if runtime.GOOS == "linux" && err != nil {
		t.Errorf("250000 baud unsupported on linux: %v", err)
	}
}

func TestOpenRequiresDevice(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Error("no error for empty device path")
	}
}

func TestOpenMissingDevice(t *testing.T) {
	if _, err := Open(Config{Device: "/dev/does-not-exist-mixhost"}); err == nil {
		t.Error("no error for nonexistent device")
	}
}
