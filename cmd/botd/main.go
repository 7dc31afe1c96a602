package main

import (
	"fmt"
	"os"

	"github.com/matheus3301/botpanel/internal/config"
	"github.com/matheus3301/botpanel/internal/daemon"
	"github.com/matheus3301/botpanel/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	var sessionFlag string
	cmd := &cobra.Command{
		Use:          "botd",
		Short:        "Run the bot daemon for one session",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			sessionName, err := session.ResolveValid(sessionFlag)
			if err != nil {
				return err
			}
			cfg, err := config.LoadOrDefault(session.ConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			app := fx.New(
				daemon.Module(daemon.Params{SessionName: sessionName, Config: cfg}),
				fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: logger.Named("fx")}
				}),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionFlag, "session", "", "session name (overrides config default)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
