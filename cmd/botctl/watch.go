package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/matheus3301/botpanel/internal/api"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream bot events until interrupted",
		Long: "Stream bot events until interrupted. Only one observer is attached at a\n" +
			"time: watching detaches any running shell.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := dial(g)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stream, err := c.Watch(ctx)
			if err != nil {
				return err
			}
			for {
				env, err := stream.Recv()
				switch {
				case err == nil:
				case errors.Is(err, io.EOF), ctx.Err() != nil:
					return nil
				case grpcstatus.Code(err) == codes.Aborted:
					return errors.New("detached: another observer attached")
				default:
					return err
				}
				if err := printEvent(cmd, g, env); err != nil {
					return err
				}
			}
		},
	}
}

type eventJSON struct {
	EventID          string          `json:"eventId"`
	Session          string          `json:"session"`
	Name             string          `json:"name"`
	Payload          json.RawMessage `json:"payload,omitempty"`
	OccurredAtUnixMs int64           `json:"occurredAtUnixMs"`
}

func printEvent(cmd *cobra.Command, g *globalFlags, env *api.EventEnvelope) error {
	raw, err := api.ValueJSON(env.Payload)
	if err != nil {
		return err
	}
	if g.json {
		return outputJSON(cmd, eventJSON{
			EventID:          env.EventID,
			Session:          env.Session,
			Name:             env.Name,
			Payload:          raw,
			OccurredAtUnixMs: env.OccurredAtUnixMs,
		})
	}
	at := time.UnixMilli(env.OccurredAtUnixMs).Format("15:04:05")
	payload := string(raw)
	if payload == "" || payload == "null" {
		payload = "-"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s  %-18s %s\n", at, env.Name, truncate(payload, 120))
	return err
}
