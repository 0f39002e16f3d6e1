package eventlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTemp(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, path
}

func readAll(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func TestRegisterRequest_Format(t *testing.T) {
	l, path := openTemp(t)
	l.RegisterRequest(2)
	l.Close()

	content := readAll(t, path)
	lines := strings.Split(content, "\n")
	if len(lines) < 2 || lines[1] != "Register Request 2" {
		t.Errorf("unexpected content: %q", content)
	}
	// First line must look like a timestamp HH:MM:SS.micro.
	if len(lines[0]) != len("15:04:05.000000") {
		t.Errorf("timestamp line has unexpected length: %q", lines[0])
	}
}

func TestRoutingUpdateController_Format(t *testing.T) {
	l, path := openTemp(t)
	l.RoutingUpdateController([]ControllerRow{
		{Src: 0, Dst: 0, NextHop: 0, Cost: 0},
		{Src: 0, Dst: 1, NextHop: 1, Cost: 1},
	})
	l.Close()

	content := readAll(t, path)
	want := "Routing Update\n0,0:0,0\n0,1:1,1\nRouting Complete"
	if !strings.Contains(content, want) {
		t.Errorf("content = %q, want to contain %q", content, want)
	}
}

func TestRoutingUpdateSwitch_OmitsCost(t *testing.T) {
	l, path := openTemp(t)
	l.RoutingUpdateSwitch([]SwitchRow{{Src: 0, Dst: 1, NextHop: 1}})
	l.Close()

	content := readAll(t, path)
	want := "Routing Update\n0,1:1\nRouting Complete"
	if !strings.Contains(content, want) {
		t.Errorf("content = %q, want to contain %q", content, want)
	}
	if strings.Contains(content, "0,1:1,") {
		t.Errorf("switch routing update must not carry a cost suffix: %q", content)
	}
}

func TestRecordsAreBlankLineSeparated(t *testing.T) {
	l, path := openTemp(t)
	l.SwitchAlive(1)
	l.SwitchDead(2)
	l.Close()

	content := readAll(t, path)
	records := strings.Split(strings.TrimRight(content, "\n"), "\n\n")
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %q", len(records), content)
	}
	if !strings.Contains(records[0], "Switch Alive 1") {
		t.Errorf("record 0 = %q", records[0])
	}
	if !strings.Contains(records[1], "Switch Dead 2") {
		t.Errorf("record 1 = %q", records[1])
	}
}

func TestAllEventGrammars(t *testing.T) {
	l, path := openTemp(t)
	l.RegisterRequest(0)
	l.RegisterResponse(0)
	l.LinkDead(0, 1)
	l.SwitchDead(1)
	l.SwitchAlive(1)
	l.RegisterRequestSent()
	l.RegisterResponseReceived()
	l.NeighborDead(2)
	l.NeighborAlive(2)
	l.Close()

	content := readAll(t, path)
	for _, want := range []string{
		"Register Request 0",
		"Register Response 0",
		"Link Dead 0,1",
		"Switch Dead 1",
		"Switch Alive 1",
		"Register Request Sent",
		"Register Response received",
		"Neighbor Dead 2",
		"Neighbor Alive 2",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("missing record %q in log:\n%s", want, content)
		}
	}
}

func TestSwitchLogPath(t *testing.T) {
	if SwitchLogPath(3) != "switch3.log" {
		t.Errorf("SwitchLogPath(3) = %q, want switch3.log", SwitchLogPath(3))
	}
}
