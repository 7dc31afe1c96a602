package views

import (
	"strings"

	"github.com/matheus3301/botpanel/internal/rules"
	"github.com/matheus3301/botpanel/internal/tui/ui"
)

// RulesView lists the auto-reply rules in match order.
type RulesView struct {
	*ResourceTable
}

// NewRulesView creates the rule table.
func NewRulesView(theme *ui.Theme) *RulesView {
	return &RulesView{ResourceTable: NewResourceTable(theme, "Auto Replies", []Column{
		{Title: "ID", Expansion: 1},
		{Title: "KEYWORDS", Expansion: 2},
		{Title: "MATCH"},
		{Title: "REPLY", Expansion: 3},
		{Title: "ENABLED"},
	})}
}

// Name implements Component.
func (rv *RulesView) Name() string { return "Rules" }

// Hints implements Component.
func (rv *RulesView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "t", Description: "Toggle"},
		{Key: "Ctrl-D", Description: "Delete"},
		{Key: ":add", Description: "New rule"},
		{Key: "/", Description: "Filter"},
	}
}

// Update renders the rules. Disabled rules are dimmed.
func (rv *RulesView) Update(list []rules.Rule) {
	rows := make([]Row, 0, len(list))
	for _, r := range list {
		match := "contains"
		if r.ExactMatch {
			match = "exact"
		}
		enabled := "no"
		if r.Enabled {
			enabled = "yes"
		}
		rows = append(rows, Row{
			Key:   r.ID,
			Cells: []string{r.ID, strings.Join(r.Keywords, ", "), match, r.Content, enabled},
			Dim:   !r.Enabled,
		})
	}
	rv.SetRows(rows)
}

// SelectedRule returns the id of the highlighted rule.
func (rv *RulesView) SelectedRule() string {
	return rv.SelectedKey()
}
