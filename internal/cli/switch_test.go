package cli

import (
	"testing"
)

func TestRunSwitch_UsageErrorOnTooFewArgs(t *testing.T) {
	if err := RunSwitch([]string{}); err == nil {
		t.Fatal("expected usage error with no args")
	}
	if err := RunSwitch([]string{"0", "localhost"}); err == nil {
		t.Fatal("expected usage error with only two positional args")
	}
}

func TestRunSwitch_InvalidSelfID(t *testing.T) {
	if err := RunSwitch([]string{"not-a-number", "localhost", "9000"}); err == nil {
		t.Fatal("expected an error for a non-integer selfId")
	}
}

func TestRunSwitch_InvalidControllerPort(t *testing.T) {
	if err := RunSwitch([]string{"0", "localhost", "not-a-port"}); err == nil {
		t.Fatal("expected an error for a non-integer controllerPort")
	}
}
