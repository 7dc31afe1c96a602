package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/botpanel/internal/tui/ui"
	"github.com/rivo/tview"
)

// Column describes one table column.
type Column struct {
	Title     string
	Expansion int
	Align     int
}

// Row is one table line. Key identifies the underlying record.
type Row struct {
	Key   string
	Cells []string
	Dim   bool
}

// ResourceTable is a filterable, selectable table shared by the list views.
type ResourceTable struct {
	*tview.Table
	theme   *ui.Theme
	title   string
	columns []Column
	rows    []Row
	visible []Row
	filter  string
	heading string
}

// NewResourceTable creates a table with a fixed header row.
func NewResourceTable(theme *ui.Theme, title string, columns []Column) *ResourceTable {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	rt := &ResourceTable{
		Table:   table,
		theme:   theme,
		title:   title,
		columns: columns,
	}
	rt.render()
	return rt
}

// Init implements Component.
func (rt *ResourceTable) Init() {}

// Start implements Component.
func (rt *ResourceTable) Start() {}

// Stop implements Component.
func (rt *ResourceTable) Stop() {}

// SetRows replaces the table contents, keeping the selection on the same
// key when it is still visible.
func (rt *ResourceTable) SetRows(rows []Row) {
	selected := rt.SelectedKey()
	rt.rows = rows
	rt.render()
	rt.selectKey(selected)
}

// SetFilter sets the active filter text and re-renders.
func (rt *ResourceTable) SetFilter(filter string) {
	rt.filter = strings.TrimSpace(filter)
	rt.render()
}

// ClearFilter clears the active filter.
func (rt *ResourceTable) ClearFilter() {
	rt.SetFilter("")
}

// Filter returns the active filter.
func (rt *ResourceTable) Filter() string {
	return rt.filter
}

// Visible returns the rows that pass the filter.
func (rt *ResourceTable) Visible() []Row {
	return rt.visible
}

// SelectedKey returns the key of the highlighted row, or empty.
func (rt *ResourceTable) SelectedKey() string {
	row, _ := rt.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(rt.visible) {
		return ""
	}
	return rt.visible[idx].Key
}

func (rt *ResourceTable) selectKey(key string) {
	if key == "" {
		return
	}
	for i, r := range rt.visible {
		if r.Key == key {
			rt.Select(i+1, 0)
			return
		}
	}
}

func (rt *ResourceTable) render() {
	rt.Clear()

	for col, c := range rt.columns {
		rt.SetCell(0, col, tview.NewTableCell(" "+c.Title).
			SetSelectable(false).
			SetTextColor(rt.theme.TableHeaderFg).
			SetBackgroundColor(rt.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(c.Expansion).
			SetAlign(c.Align))
	}

	rt.visible = nil
	for _, r := range rt.rows {
		if !rowMatches(r, rt.filter) {
			continue
		}
		rt.visible = append(rt.visible, r)
	}

	for i, r := range rt.visible {
		fg := rt.theme.FgColor
		if r.Dim {
			fg = rt.theme.TableDimFg
		}
		for col, c := range rt.columns {
			text := ""
			if col < len(r.Cells) {
				text = r.Cells[col]
			}
			rt.SetCell(i+1, col, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(text))).
				SetExpansion(c.Expansion).
				SetAlign(c.Align).
				SetTextColor(fg))
		}
	}

	if rt.filter != "" {
		rt.heading = fmt.Sprintf(" %s (%d/%d) filter: %s ", rt.title, len(rt.visible), len(rt.rows), tview.Escape(rt.filter))
	} else {
		rt.heading = fmt.Sprintf(" %s (%d) ", rt.title, len(rt.rows))
	}
	rt.SetTitle(rt.heading)
}

// Heading returns the rendered border title.
func (rt *ResourceTable) Heading() string {
	return rt.heading
}

func rowMatches(r Row, filter string) bool {
	if filter == "" {
		return true
	}
	filter = strings.ToLower(filter)
	for _, c := range r.Cells {
		if strings.Contains(strings.ToLower(c), filter) {
			return true
		}
	}
	return false
}
