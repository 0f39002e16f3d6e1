package cli

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/okdaichi/sdnctl/internal/eventlog"
	"github.com/okdaichi/sdnctl/internal/swtch"
	"github.com/okdaichi/sdnctl/internal/wire"
	"github.com/okdaichi/sdnctl/observability"
)

// RunSwitch implements the `switch <selfId> <controllerHost>
// <controllerPort> [-f <neighborId>]` CLI (spec.md §6).
func RunSwitch(args []string) error {
	fs := flag.NewFlagSet("switch", flag.ContinueOnError)
	failedNeighbor := fs.Int("f", -1, "declare a one-directional failed link to this neighbor id")
	adminAddr := fs.String("admin", "", "admin HTTP listen address (/health, /metrics); empty disables it")
	obsConfig := fs.String("observability-config", "observability.yaml", "optional runtime-defaults file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) < 3 {
		return fmt.Errorf("usage: switch <selfId> <controllerHost> <controllerPort> [-f <neighborId>]")
	}
	// Flags may also follow the positional arguments, as in the usage line.
	if err := fs.Parse(rest[3:]); err != nil {
		return err
	}
	selfID, err := strconv.Atoi(rest[0])
	if err != nil {
		return fmt.Errorf("switch: invalid selfId %q: %w", rest[0], err)
	}
	controllerHost := rest[1]
	controllerPort, err := strconv.Atoi(rest[2])
	if err != nil {
		return fmt.Errorf("switch: invalid controllerPort %q: %w", rest[2], err)
	}

	var failedPtr *int
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "f" {
			failedPtr = failedNeighbor
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obsCfg, err := loadObservabilityConfig(*obsConfig, fmt.Sprintf("switch-%d", selfID))
	if err != nil {
		return fmt.Errorf("switch: load observability config: %w", err)
	}
	if err := observability.Setup(ctx, obsCfg); err != nil {
		return fmt.Errorf("switch: observability setup: %w", err)
	}
	defer observability.Shutdown(context.Background())

	evLog, err := eventlog.Open(eventlog.SwitchLogPath(selfID))
	if err != nil {
		return fmt.Errorf("switch: open event log: %w", err)
	}
	defer evLog.Close()

	sock, err := wire.Listen(":0")
	if err != nil {
		return fmt.Errorf("switch: bind socket: %w", err)
	}
	defer sock.Close()

	controllerAddr, err := wire.ResolveAddr(controllerHost, controllerPort)
	if err != nil {
		return fmt.Errorf("switch: resolve controller addr: %w", err)
	}

	agent := swtch.New(sock, selfID, controllerAddr, evLog, failedPtr)

	if *adminAddr != "" {
		go serveAdmin(ctx, *adminAddr, nil)
	}

	slog.Info("switch: registering", "self_id", selfID, "controller", controllerAddr)
	if err := agent.Register(ctx); err != nil {
		return fmt.Errorf("switch: registration: %w", err)
	}
	slog.Info("switch: registered, entering steady state")

	agent.Run(ctx)
	slog.Info("switch: shutting down")
	return nil
}
