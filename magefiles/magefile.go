//go:build mage

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Help

// Help displays available mage targets
func Help() error {
	fmt.Println("📖 sdnctl - SDN Control Plane Build Automation")
	fmt.Printf("   Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Println()
	fmt.Println("Available targets:")
	fmt.Println()
	fmt.Println("  🔨 Build & Install:")
	fmt.Println("    mage build        - Build the sdnctl binary")
	fmt.Println("    mage install      - Install sdnctl to $GOPATH/bin")
	fmt.Println("    mage clean        - Clean build artifacts")
	fmt.Println()
	fmt.Println("  🧪 Development:")
	fmt.Println("    mage test         - Run all tests")
	fmt.Println("    mage testVerbose  - Run tests with verbose output")
	fmt.Println("    mage fmt          - Format code with go fmt")
	fmt.Println("    mage vet          - Run go vet for static analysis")
	fmt.Println("    mage check        - Run fmt, vet, and test")
	fmt.Println()
	fmt.Println("  🚀 End-to-end:")
	fmt.Println("    mage e2e          - Boot one controller + N switches from a")
	fmt.Println("                        generated topology file and verify convergence")
	fmt.Println()
	fmt.Println("  ℹ️  Info:")
	fmt.Println("    mage -l           - List all targets")
	fmt.Println("    mage help         - Show this help")
	fmt.Println()
	return nil
}

func binaryName() string {
	name := "sdnctl"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return name
}

// Build compiles the sdnctl binary (it dispatches to both the controller
// and switch subcommands, following main.go's single-binary pattern).
func Build() error {
	fmt.Println("🔨 Building sdnctl binary...")

	if err := os.MkdirAll("bin", 0755); err != nil {
		return err
	}

	cmd := exec.Command("go", "build", "-o", filepath.Join("bin", binaryName()), ".")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return err
	}

	fmt.Println("✅ Built: bin/" + binaryName())
	return nil
}

// Install installs the sdnctl binary to $GOPATH/bin
func Install() error {
	fmt.Println("📦 Installing sdnctl to $GOPATH/bin...")

	cmd := exec.Command("go", "install", ".")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return err
	}

	fmt.Println("✅ Installed: sdnctl")
	fmt.Println("   Run with: sdnctl controller <port> <configFile>")
	fmt.Println("            sdnctl switch <selfId> <host> <port> [-f <neighborId>]")
	return nil
}

// Test runs all tests
func Test() error {
	fmt.Println("🧪 Running tests...")

	cmd := exec.Command("go", "test", "./...", "-count=1")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// TestVerbose runs all tests with verbose output
func TestVerbose() error {
	fmt.Println("🧪 Running tests (verbose)...")

	cmd := exec.Command("go", "test", "./...", "-v", "-count=1")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Fmt formats all Go code
func Fmt() error {
	fmt.Println("✨ Formatting code...")

	cmd := exec.Command("go", "fmt", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Vet runs go vet for static analysis
func Vet() error {
	fmt.Println("🔍 Running go vet...")

	cmd := exec.Command("go", "vet", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Check runs fmt, vet, and test
func Check() error {
	fmt.Println("🔍 Running checks...")
	mg.Deps(Fmt, Vet, Test)
	fmt.Println("✅ All checks passed!")
	return nil
}

// Clean removes build artifacts and any topology fixture E2E wrote
func Clean() error {
	fmt.Println("🧹 Cleaning build artifacts...")

	if err := sh.Rm("bin"); err != nil {
		fmt.Println("⚠️  No bin directory to clean")
	}
	_ = sh.Rm(e2eTopologyPath)
	_ = sh.Rm("Controller.log")
	for i := 0; i < e2eSwitchCount; i++ {
		_ = sh.Rm(fmt.Sprintf("switch%d.log", i))
	}

	fmt.Println("✅ Cleanup complete!")
	return nil
}

const (
	e2eSwitchCount  = 3
	e2eBasePort     = 19100
	e2eAdminPort    = 19190
	e2eTopologyPath = "e2e-topology.txt"
)

// E2E boots one controller and e2eSwitchCount switches from a generated
// linear-chain topology file, waits for registration, and polls the
// controller's /topology debug endpoint until every switch reports a
// converged routing table — a smoke test for spec.md's Scenario A.
func E2E() error {
	mg.Deps(Build)

	fmt.Println("🚀 Starting E2E scenario: linear chain, 3 switches...")

	if err := writeLinearChainTopology(e2eTopologyPath, e2eSwitchCount); err != nil {
		return fmt.Errorf("write topology fixture: %w", err)
	}

	bin := filepath.Join("bin", binaryName())
	controllerPort := fmt.Sprintf("%d", e2eBasePort)

	ctrl := exec.Command(bin, "controller", "-admin", fmt.Sprintf(":%d", e2eAdminPort), controllerPort, e2eTopologyPath)
	ctrl.Stdout = os.Stdout
	ctrl.Stderr = os.Stderr
	if err := ctrl.Start(); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}
	defer ctrl.Process.Kill()

	time.Sleep(500 * time.Millisecond)

	var switches []*exec.Cmd
	defer func() {
		for _, p := range switches {
			p.Process.Kill()
		}
	}()
	for i := 0; i < e2eSwitchCount; i++ {
		sw := exec.Command(bin, "switch", fmt.Sprintf("%d", i), "localhost", controllerPort)
		sw.Stdout = os.Stdout
		sw.Stderr = os.Stderr
		if err := sw.Start(); err != nil {
			return fmt.Errorf("start switch %d: %w", i, err)
		}
		switches = append(switches, sw)
	}

	if err := waitForHealth(fmt.Sprintf("http://localhost:%d/health", e2eAdminPort)); err != nil {
		return fmt.Errorf("controller health check: %w", err)
	}
	if err := waitForConvergence(fmt.Sprintf("http://localhost:%d/topology", e2eAdminPort), e2eSwitchCount); err != nil {
		return fmt.Errorf("routing convergence: %w", err)
	}

	fmt.Println("✅ E2E scenario passed: all switches registered and routes converged")
	return nil
}

func writeLinearChainTopology(path string, n int) error {
	content := fmt.Sprintf("%d\n", n)
	for i := 0; i < n-1; i++ {
		content += fmt.Sprintf("%d %d 1\n", i, i+1)
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func waitForHealth(url string) error {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for %s", url)
}

type topologySnapshot struct {
	N      int `json:"n"`
	Live   map[string]bool `json:"live"`
	Routes []struct {
		Src     int `json:"Src"`
		Dst     int `json:"Dst"`
		NextHop int `json:"NextHop"`
		Cost    int `json:"Cost"`
	} `json:"routes"`
}

func waitForConvergence(url string, n int) error {
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			var snap topologySnapshot
			if decErr := json.NewDecoder(resp.Body).Decode(&snap); decErr == nil {
				resp.Body.Close()
				if len(snap.Live) == n && len(snap.Routes) == n*n {
					return nil
				}
			} else {
				resp.Body.Close()
			}
		}
		time.Sleep(300 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for %d switches to converge", n)
}
