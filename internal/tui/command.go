package tui

import (
	"errors"
	"strings"

	"github.com/matheus3301/botpanel/internal/knowledge"
	"github.com/matheus3301/botpanel/internal/rules"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// pageAliases maps navigation commands to pages.
var pageAliases = map[string]string{
	"dash":      pageDashboard,
	"dashboard": pageDashboard,
	"home":      pageDashboard,
	"msgs":      pageMessages,
	"messages":  pageMessages,
	"log":       pageMessages,
	"rules":     pageRules,
	"replies":   pageRules,
	"contacts":  pageContacts,
	"friends":   pageContacts,
	"rooms":     pageRooms,
	"groups":    pageRooms,
	"kb":        pageKnowledge,
	"knowledge": pageKnowledge,
}

var errNoAssign = errors.New(`expected "<left> = <right>"`)

// splitAssign splits "left = right" on the first '='.
func splitAssign(s string) (string, string, error) {
	left, right, ok := strings.Cut(s, "=")
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if !ok || left == "" || right == "" {
		return "", "", errNoAssign
	}
	return left, right, nil
}

// ParseRule builds an enabled text rule from "kw1, kw2 = reply".
func ParseRule(args string, exact bool) (rules.Rule, error) {
	left, reply, err := splitAssign(args)
	if err != nil {
		return rules.Rule{}, err
	}
	var keywords []string
	for _, kw := range strings.Split(left, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return rules.Rule{}, rules.ErrNoKeywords
	}
	return rules.Rule{
		Keywords:   keywords,
		ExactMatch: exact,
		ReplyType:  rules.ReplyText,
		Content:    reply,
		Enabled:    true,
	}, nil
}

// ParseKnowledge builds an item from "question = answer". The question
// doubles as the item's keyword.
func ParseKnowledge(args string) (knowledge.Item, error) {
	question, answer, err := splitAssign(args)
	if err != nil {
		return knowledge.Item{}, err
	}
	return knowledge.Item{Question: question, Answer: answer, Keywords: []string{question}}, nil
}
