package cli

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/okdaichi/sdnctl/internal/config"
	"github.com/okdaichi/sdnctl/internal/controller"
	"github.com/okdaichi/sdnctl/internal/eventlog"
	"github.com/okdaichi/sdnctl/internal/wire"
	"github.com/okdaichi/sdnctl/observability"
)

// RunController implements the `controller <port> <configFile>` CLI
// (spec.md §6). Exits with an error if fewer than two positional
// arguments are given.
func RunController(args []string) error {
	fs := flag.NewFlagSet("controller", flag.ContinueOnError)
	adminAddr := fs.String("admin", ":9090", "admin HTTP listen address (/health, /metrics, /topology)")
	obsConfig := fs.String("observability-config", "observability.yaml", "optional runtime-defaults file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) < 2 {
		return fmt.Errorf("usage: controller <port> <configFile>")
	}
	port := rest[0]
	configFile := rest[1]

	graph, n, err := config.LoadTopologyFile(configFile)
	if err != nil {
		return fmt.Errorf("controller: load topology: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obsCfg, err := loadObservabilityConfig(*obsConfig, "controller")
	if err != nil {
		return fmt.Errorf("controller: load observability config: %w", err)
	}
	if err := observability.Setup(ctx, obsCfg); err != nil {
		return fmt.Errorf("controller: observability setup: %w", err)
	}
	defer observability.Shutdown(context.Background())

	evLog, err := eventlog.Open(eventlog.ControllerLogPath)
	if err != nil {
		return fmt.Errorf("controller: open event log: %w", err)
	}
	defer evLog.Close()

	sock, err := wire.Listen(":" + port)
	if err != nil {
		return fmt.Errorf("controller: bind socket: %w", err)
	}
	defer sock.Close()

	srv := controller.New(sock, graph, n, evLog)

	go serveAdmin(ctx, *adminAddr, srv)

	slog.Info("controller: awaiting registrations", "n", n, "port", port)
	if err := srv.AwaitRegistrations(); err != nil {
		return fmt.Errorf("controller: registration phase: %w", err)
	}
	slog.Info("controller: registration complete, entering steady state")

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve() }()

	select {
	case <-ctx.Done():
		slog.Info("controller: shutting down")
		return nil
	case err := <-errc:
		return err
	}
}
