package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintUsage_WritesHelpToStderr(t *testing.T) {
	saved := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	printUsage()

	w.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	os.Stderr = saved

	out := buf.String()
	assert.Contains(t, out, "Usage: sdnctl <command> [flags]")
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "controller")
	assert.Contains(t, out, "switch")
	assert.Contains(t, out, "Flags:")
}

// Test cases that exercise run() directly by stubbing the command
// handlers, avoiding any real socket binds or os.Exit calls.

func TestRun_Unit(t *testing.T) {
	origController := runController
	origSwitch := runSwitch
	defer func() {
		runController = origController
		runSwitch = origSwitch
	}()

	tests := map[string]struct {
		args               []string
		stubController     func([]string) error
		stubSwitch         func([]string) error
		wantCode           int
		wantStderrContains []string
	}{
		"no args": {
			args:               []string{},
			wantCode:           1,
			wantStderrContains: []string{"Usage: sdnctl"},
		},
		"unknown command": {
			args:               []string{"badcmd"},
			wantCode:           1,
			wantStderrContains: []string{"unknown command"},
		},
		"controller success": {
			args:           []string{"controller"},
			stubController: func(_ []string) error { return nil },
			wantCode:       0,
		},
		"controller error": {
			args:               []string{"controller"},
			stubController:     func(_ []string) error { return fmt.Errorf("boom") },
			wantCode:           1,
			wantStderrContains: []string{"error: boom"},
		},
		"controller passes args": {
			args: []string{"controller", "9000", "topology.txt"},
			stubController: func(a []string) error {
				assert.Equal(t, []string{"9000", "topology.txt"}, a)
				return nil
			},
			wantCode: 0,
		},
		"switch success": {
			args:       []string{"switch"},
			stubSwitch: func(_ []string) error { return nil },
			wantCode:   0,
		},
		"switch error": {
			args:               []string{"switch"},
			stubSwitch:         func(_ []string) error { return fmt.Errorf("switch-fail") },
			wantCode:           1,
			wantStderrContains: []string{"error: switch-fail"},
		},
		"switch passes args": {
			args: []string{"switch", "2", "localhost", "9000", "-f", "1"},
			stubSwitch: func(a []string) error {
				assert.Equal(t, []string{"2", "localhost", "9000", "-f", "1"}, a)
				return nil
			},
			wantCode: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if tt.stubController != nil {
				runController = tt.stubController
			} else {
				runController = func([]string) error { return nil }
			}
			if tt.stubSwitch != nil {
				runSwitch = tt.stubSwitch
			} else {
				runSwitch = func([]string) error { return nil }
			}

			saved := os.Stderr
			r, w, err := os.Pipe()
			require.NoError(t, err)
			os.Stderr = w

			code := run(tt.args)

			w.Close()
			var buf bytes.Buffer
			_, err = buf.ReadFrom(r)
			require.NoError(t, err)
			os.Stderr = saved

			out := buf.String()

			assert.Equal(t, tt.wantCode, code)
			for _, want := range tt.wantStderrContains {
				assert.Contains(t, out, want)
			}
			if tt.wantCode == 0 {
				assert.NotContains(t, out, "error:")
			}
		})
	}
}

func TestMain_Subprocess(t *testing.T) {
	tests := map[string]struct {
		args               []string
		wantExitNonZero    bool
		wantOutputContains []string
	}{
		"no args": {
			args:               []string{},
			wantExitNonZero:    true,
			wantOutputContains: []string{"Usage: sdnctl"},
		},
		"unknown command": {
			args:               []string{"badcmd"},
			wantExitNonZero:    true,
			wantOutputContains: []string{"unknown command", "Usage: sdnctl"},
		},
		"controller missing args": {
			args:               []string{"controller"},
			wantExitNonZero:    true,
			wantOutputContains: []string{"usage: controller", "error:"},
		},
		"controller missing config file": {
			args:               []string{"controller", "9000", "does-not-exist.txt"},
			wantExitNonZero:    true,
			wantOutputContains: []string{"error:"},
		},
		"version": {
			args:               []string{"version"},
			wantExitNonZero:    false,
			wantOutputContains: []string{"sdnctl"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, exitErr := runChildMain(t, tt.args...)

			if tt.wantExitNonZero {
				if exitErr == nil {
					t.Fatalf("expected child to exit non-zero, got success; output=%q", out)
				}
			} else {
				require.NoError(t, exitErr)
			}

			for _, want := range tt.wantOutputContains {
				assert.Contains(t, out, want)
			}
		})
	}
}

// runChildMain re-executes the test binary in a special child mode that
// calls main(). It returns combined stdout+stderr and any exec error.
func runChildMain(t *testing.T, args ...string) (string, error) {
	cmdArgs := append([]string{"-test.run=TestMain_ChildProcess", "--"}, args...)
	cmd := exec.Command(os.Args[0], cmdArgs...)
	cmd.Env = append(os.Environ(), "SDNCTL_TEST_MAIN=1")
	b, err := cmd.CombinedOutput()
	return string(b), err
}

// TestMain_ChildProcess runs inside the spawned child test binary. When
// the SDNCTL_TEST_MAIN env var is set the child executes main() with the
// arguments provided after "--" on the command line and then exits.
func TestMain_ChildProcess(t *testing.T) {
	if os.Getenv("SDNCTL_TEST_MAIN") != "1" {
		return
	}

	sep := "--"
	var progArgs []string
	for i, a := range os.Args {
		if a == sep && i+1 < len(os.Args) {
			progArgs = os.Args[i+1:]
			break
		}
	}
	if progArgs == nil {
		progArgs = []string{}
	}

	os.Args = append([]string{"sdnctl"}, progArgs...)
	main()
	t.Fatalf("main() returned unexpectedly")
}
