// Command soupserver runs the reference soupbin server: it listens on TCP
// port 25000 on all interfaces with no required flags, per spec §6.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"soupbin/auth"
	"soupbin/config"
	"soupbin/logging"
	"soupbin/server"
	"soupbin/session"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "soupserver",
		Short: "Run the soupbin session-engine server",
		RunE:  run,
	}
	root.Flags().StringVar(&configFile, "config", "", "path to an optional YAML config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.Default()

	authenticator, err := newAuthenticator(cfg.Server)
	if err != nil {
		return fmt.Errorf("soupserver: building authenticator: %w", err)
	}

	acceptor := server.NewAcceptor(authenticator, log, session.Options{
		HeartbeatInterval: cfg.Server.HeartbeatInterval,
		IdleTimeout:       cfg.Server.IdleTimeout,
		DBDir:             cfg.Server.DBDir,
		Log:               log,
	})

	addr := cfg.Server.Address()
	log.Info("soupserver: listening", "address", addr)

	errCh := make(chan error, 1)
	go func() { errCh <- acceptor.Serve(addr) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("soupserver: shutting down")
		return acceptor.Shutdown(10 * time.Second)
	}
}

// newAuthenticator selects the Authenticator backend named by
// cfg.AuthBackend. "memory" (the default) bootstraps the reference
// server's single hardcoded user; "etcd" dials cfg.EtcdEndpoints and
// leaves user/session provisioning to an operator.
func newAuthenticator(cfg config.ServerConfig) (auth.Authenticator, error) {
	switch cfg.AuthBackend {
	case "", "memory":
		a := auth.NewMemoryAuthenticator()
		a.AddUser("user1", "password1")
		a.AddSession("user1", "session1")
		return a, nil
	case "etcd":
		return auth.NewEtcdAuthenticator(cfg.EtcdEndpoints)
	default:
		return nil, fmt.Errorf("unknown auth_backend %q (want \"memory\" or \"etcd\")", cfg.AuthBackend)
	}
}
