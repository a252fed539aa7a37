// Command soupclient runs the reference soupbin client: it connects, logs
// in, and drives a stdin REPL exactly as spec §6 describes.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"soupbin/client"
	"soupbin/config"
	"soupbin/logging"
	"soupbin/session"
)

var (
	host, username, password, sessionName string
	port                                  int
	configFile                            string
)

func main() {
	root := &cobra.Command{
		Use:   "soupclient",
		Short: "Run the soupbin session-engine client",
		RunE:  run,
	}
	root.Flags().StringVar(&configFile, "config", "", "path to an optional YAML config file")
	root.Flags().StringVar(&host, "host", "", "server host (default from config, normally 127.0.0.1)")
	root.Flags().IntVar(&port, "port", 0, "server port (default from config, normally 25000)")
	root.Flags().StringVar(&username, "user", "", "login username (default from config, normally user1)")
	root.Flags().StringVar(&password, "password", "", "login password (default from config, normally password1)")
	root.Flags().StringVar(&sessionName, "session", "", "session name (default from config, normally session1)")

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

	cc := cfg.Client
	if host != "" {
		cc.Host = host
	}
	if port != 0 {
		cc.Port = port
	}
	if username != "" {
		cc.Username = username
	}
	if password != "" {
		cc.Password = password
	}
	if sessionName != "" {
		cc.Session = sessionName
	}

	conn, err := net.Dial("tcp", cc.Address())
	if err != nil {
		return fmt.Errorf("soupclient: dial %s: %w", cc.Address(), err)
	}

	handler := client.NewHandler(log)
	s := session.New(conn, session.RoleClient, handler, session.Options{
		HeartbeatInterval: cc.HeartbeatInterval,
		IdleTimeout:       cc.IdleTimeout,
		DBDir:             cc.DBDir,
		Log:               log,
	})

	if err := s.SendLogin(cc.Username, cc.Password, cc.Session); err != nil {
		return fmt.Errorf("soupclient: login: %w", err)
	}

	go func() {
		if err := s.Run(); err != nil {
			log.Info("soupclient: session ended", "err", err)
		}
	}()

	client.RunREPL(os.Stdin, s, log)
	s.Close()
	return nil
}
