package views

import (
	"strconv"
	"strings"

	"github.com/matheus3301/botpanel/internal/knowledge"
	"github.com/matheus3301/botpanel/internal/tui/ui"
)

// KnowledgeView lists the canned answers.
type KnowledgeView struct {
	*ResourceTable
}

// NewKnowledgeView creates the knowledge table.
func NewKnowledgeView(theme *ui.Theme) *KnowledgeView {
	return &KnowledgeView{ResourceTable: NewResourceTable(theme, "Knowledge", []Column{
		{Title: "QUESTION", Expansion: 2},
		{Title: "KEYWORDS", Expansion: 2},
		{Title: "ANSWER", Expansion: 3},
	})}
}

// Name implements Component.
func (kv *KnowledgeView) Name() string { return "Knowledge" }

// Hints implements Component.
func (kv *KnowledgeView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: ":learn", Description: "New answer"},
		{Key: "/", Description: "Filter"},
	}
}

// Update renders the items. Items have no id, so rows are keyed by position.
func (kv *KnowledgeView) Update(items []knowledge.Item) {
	rows := make([]Row, 0, len(items))
	for i, it := range items {
		rows = append(rows, Row{
			Key:   strconv.Itoa(i),
			Cells: []string{it.Question, strings.Join(it.Keywords, ", "), it.Answer},
		})
	}
	kv.SetRows(rows)
}
