package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/matheus3301/botpanel/internal/bridge"
	"github.com/matheus3301/botpanel/internal/knowledge"
	"github.com/matheus3301/botpanel/internal/rules"
	"github.com/matheus3301/botpanel/internal/tui/client"
	"github.com/spf13/cobra"
)

func newRulesCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage auto-reply rules",
	}
	cmd.AddCommand(
		newRulesListCmd(g),
		newRulesAddCmd(g),
		newRulesRemoveCmd(g),
		newRulesToggleCmd(g, "enable", true),
		newRulesToggleCmd(g, "disable", false),
	)
	return cmd
}

func newRulesListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				var list []rules.Rule
				if err := c.Call(ctx, bridge.CmdAutoReplies, nil, &list); err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No rules.")
					return nil
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "ENABLED", "MATCH", "KEYWORDS", "REPLY")
				for _, r := range list {
					match := "contains"
					if r.ExactMatch {
						match = "exact"
					}
					tw.row(r.ID, yesNo(r.Enabled), match, strings.Join(r.Keywords, ", "), truncate(r.Content, 50))
				}
				return tw.flush()
			})
		},
	}
}

func newRulesAddCmd(g *globalFlags) *cobra.Command {
	var (
		r        rules.Rule
		disabled bool
		update   bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule, or replace one with --update",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r.Enabled = !disabled
			r.ReplyType = rules.ReplyText
			name := bridge.CmdAddAutoReply
			if update {
				if r.ID == "" {
					return fmt.Errorf("--update requires --id")
				}
				name = bridge.CmdUpdateAutoReply
			}
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				if err := c.Do(ctx, name, r); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&r.ID, "id", "", "rule id (generated when empty)")
	cmd.Flags().StringSliceVarP(&r.Keywords, "keyword", "k", nil, "trigger keyword (repeatable)")
	cmd.Flags().StringVarP(&r.Content, "content", "c", "", "reply text")
	cmd.Flags().BoolVar(&r.ExactMatch, "exact", false, "match the whole message instead of a substring")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the rule disabled")
	cmd.Flags().BoolVar(&update, "update", false, "replace the rule with the same id")
	_ = cmd.MarkFlagRequired("keyword")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newRulesRemoveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a rule",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				if err := c.Do(ctx, bridge.CmdDeleteAutoReply, bridge.RuleID{ID: args[0]}); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
}

func newRulesToggleCmd(g *globalFlags, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				if err := c.Do(ctx, bridge.CmdToggleAutoReply, bridge.Toggle{ID: args[0], Enabled: enabled}); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
}

func newKnowledgeCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage fallback answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				var items []knowledge.Item
				if err := c.Call(ctx, bridge.CmdKnowledge, nil, &items); err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd, items)
				}
				tw := newTable(cmd.OutOrStdout(), "QUESTION", "KEYWORDS", "ANSWER")
				for _, it := range items {
					tw.row(it.Question, strings.Join(it.Keywords, ", "), truncate(it.Answer, 50))
				}
				return tw.flush()
			})
		},
	}

	var it knowledge.Item
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a fallback answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *client.Client) error {
				if err := c.Do(ctx, bridge.CmdAddKnowledge, it); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
	add.Flags().StringVarP(&it.Question, "question", "q", "", "question the answer covers")
	add.Flags().StringVarP(&it.Answer, "answer", "a", "", "answer text")
	add.Flags().StringSliceVarP(&it.Keywords, "keyword", "k", nil, "trigger keyword (defaults to the question)")
	_ = add.MarkFlagRequired("answer")
	cmd.AddCommand(add)
	return cmd
}
