package main

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/botpanel/internal/bot"
	"github.com/matheus3301/botpanel/internal/bridge"
	"github.com/matheus3301/botpanel/internal/msglog"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/qr"
	"github.com/matheus3301/botpanel/internal/stats"
	"github.com/matheus3301/botpanel/internal/tui/client"
	"github.com/spf13/cobra"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and bot status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				info, err := c.Session(ctx)
				if err != nil {
					return err
				}
				var st bot.Status
				if err := c.Call(ctx, bridge.CmdStatus, nil, &st); err != nil {
					return err
				}
				var user protocol.User
				if err := c.Call(ctx, bridge.CmdUserInfo, nil, &user); err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd, map[string]any{"session": info, "status": st, "user": user})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session:   %s (pid %d)\n", info.Session, info.PID)
				fmt.Fprintf(out, "Uptime:    %s\n", (time.Duration(info.UptimeMs) * time.Millisecond).Round(time.Second))
				fmt.Fprintf(out, "State:     %s\n", st.State)
				fmt.Fprintf(out, "Logged in: %v\n", st.LoggedIn)
				if user.ID != "" {
					fmt.Fprintf(out, "User:      %s (%s)\n", user.Name, user.ID)
				}
				fmt.Fprintf(out, "Shell:     %s\n", attachedLabel(info.Attached))
				return nil
			})
		},
	}
}

func attachedLabel(attached bool) string {
	if attached {
		return "attached"
	}
	return "none"
}

func cmdStart(ctx context.Context, c *client.Client) error {
	return c.Do(ctx, bridge.CmdStart, nil)
}

func cmdStop(ctx context.Context, c *client.Client) error {
	return c.Do(ctx, bridge.CmdStop, nil)
}

func newActionCmd(g *globalFlags, use, short string, fn func(context.Context, *client.Client) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				if err := fn(ctx, c); err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd, bridge.Result{Success: true})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
}

func newQRCmd(g *globalFlags) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Print the current login QR code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				if refresh {
					if err := c.Do(ctx, bridge.CmdRefreshQRCode, nil); err != nil {
						return err
					}
				}
				var code bot.QRCode
				if err := c.Call(ctx, bridge.CmdQRCode, nil, &code); err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd, code)
				}
				if code.Payload == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No QR code available. Run 'botctl start' first.")
					return nil
				}
				art, err := qr.Terminal(code.Payload, "  ")
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), art)
				fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", code.Status)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "log out and request a new code first")
	return cmd
}

func newStatsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show contact, group and rule counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				var s stats.Stats
				if err := c.Call(ctx, bridge.CmdStats, nil, &s); err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd, s)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Contacts:     %d\n", s.ContactCount)
				fmt.Fprintf(out, "Friends:      %d\n", s.FriendCount)
				fmt.Fprintf(out, "Groups:       %d\n", s.GroupCount)
				fmt.Fprintf(out, "Auto replies: %d\n", s.AutoReplyCount)
				return nil
			})
		},
	}
}

func newContactsCmd(g *globalFlags) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List cached contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				name := bridge.CmdFriends
				if refresh {
					name = bridge.CmdRefreshFriends
				}
				var contacts []protocol.Contact
				if err := c.Call(ctx, name, nil, &contacts); err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd, contacts)
				}
				if len(contacts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No contacts.")
					return nil
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "FRIEND", "SIGNATURE")
				for _, ct := range contacts {
					tw.row(ct.ID, ct.Name, yesNo(ct.Friend), truncate(ct.Signature, 40))
				}
				return tw.flush()
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "query the network instead of the cache")
	return cmd
}

func newRoomsCmd(g *globalFlags) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List cached group chats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				name := bridge.CmdRooms
				if refresh {
					name = bridge.CmdRefreshRooms
				}
				var rooms []protocol.Room
				if err := c.Call(ctx, name, nil, &rooms); err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd, rooms)
				}
				if len(rooms) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No rooms.")
					return nil
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "MEMBERS")
				for _, r := range rooms {
					tw.row(r.ID, r.Name, fmt.Sprint(len(r.Members)))
				}
				return tw.flush()
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "query the network instead of the cache")
	return cmd
}

func newMessagesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "Show the recent message log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				var entries []msglog.Entry
				if err := c.Call(ctx, bridge.CmdMessages, nil, &entries); err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No messages.")
					return nil
				}
				tw := newTable(cmd.OutOrStdout(), "TIME", "ROOM", "SENDER", "TYPE", "CONTENT")
				for _, e := range entries {
					room := "-"
					if e.Room != nil {
						room = *e.Room
					}
					at := time.UnixMilli(e.Timestamp).Format("01-02 15:04:05")
					tw.row(at, room, e.Sender, string(e.Type), truncate(e.Content, 60))
				}
				return tw.flush()
			})
		},
	}
}
