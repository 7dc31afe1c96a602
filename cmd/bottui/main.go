package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/botpanel/internal/session"
	"github.com/matheus3301/botpanel/internal/tui"
	"github.com/matheus3301/botpanel/internal/tui/client"
	"github.com/spf13/cobra"
)

func main() {
	var (
		sessionFlag string
		noStart     bool
		wait        time.Duration
	)
	cmd := &cobra.Command{
		Use:          "bottui",
		Short:        "Terminal control panel for the bot daemon",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			sessionName, err := session.ResolveValid(sessionFlag)
			if err != nil {
				return err
			}
			socketPath := session.SocketPath(sessionName)

			// Probe daemon health; auto-start if needed.
			if !probeDaemon(socketPath) {
				if noStart {
					return fmt.Errorf("daemon not running for session %q", sessionName)
				}
				fmt.Fprintf(os.Stderr, "daemon not running for session %q, starting...\n", sessionName)
				if err := startDaemon(sessionName); err != nil {
					return fmt.Errorf("start daemon: %w", err)
				}
				if !waitForDaemon(socketPath, wait) {
					return fmt.Errorf("daemon did not become ready within %s", wait)
				}
			}

			c, err := client.New(socketPath)
			if err != nil {
				return fmt.Errorf("connect to daemon: %w", err)
			}
			defer func() { _ = c.Close() }()

			return tui.NewApp(c, sessionName).Run()
		},
	}
	cmd.Flags().StringVar(&sessionFlag, "session", "", "session name (overrides config default)")
	cmd.Flags().BoolVar(&noStart, "no-start", false, "fail instead of starting a daemon")
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "how long to wait for a started daemon")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// probeDaemon checks if a daemon is running and responsive on the socket.
func probeDaemon(socketPath string) bool {
	c, err := client.New(socketPath)
	if err != nil {
		return false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = c.Session(ctx)
	return err == nil
}

// startDaemon launches botd, preferring the binary next to this one.
func startDaemon(sessionName string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	botd := filepath.Join(filepath.Dir(executable), "botd")

	if _, err := os.Stat(botd); err != nil {
		botd = "botd"
	}

	cmd := exec.Command(botd, "--session", sessionName)
	// Inherit stderr so daemon startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

// waitForDaemon polls the daemon with a real RPC, not just a socket connect.
func waitForDaemon(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probeDaemon(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
