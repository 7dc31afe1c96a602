package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/botpanel/internal/lock"
	"github.com/matheus3301/botpanel/internal/session"
	"github.com/matheus3301/botpanel/internal/tui/client"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	session string
	json    bool
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "botctl",
		Short:         "Control a running bot daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.session, "session", "", "session name (overrides config default)")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "output in JSON format")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 30*time.Second, "command timeout")

	root.AddCommand(
		newStatusCmd(g),
		newActionCmd(g, "start", "Connect the bot", cmdStart),
		newActionCmd(g, "stop", "Log out and disconnect the bot", cmdStop),
		newQRCmd(g),
		newStatsCmd(g),
		newContactsCmd(g),
		newRoomsCmd(g),
		newMessagesCmd(g),
		newRulesCmd(g),
		newKnowledgeCmd(g),
		newWatchCmd(g),
		newConfigCmd(),
	)
	return root
}

// withClient resolves the session, dials its daemon and runs fn under the
// command timeout.
func withClient(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, c *client.Client) error) error {
	c, err := dial(g)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
	defer cancel()
	return fn(ctx, c)
}

func dial(g *globalFlags) (*client.Client, error) {
	sessionName, err := session.ResolveValid(g.session)
	if err != nil {
		return nil, err
	}
	if !lock.IsHeld(session.Dir(sessionName)) {
		return nil, fmt.Errorf("daemon for session %q is not running (start it with: botd --session %s)", sessionName, sessionName)
	}
	return client.New(session.SocketPath(sessionName))
}

func outputJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
