package views

import (
	"strconv"

	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/tui/ui"
	"github.com/rivo/tview"
)

var directoryHints = []ui.MenuHint{
	{Key: "R", Description: "Refresh"},
	{Key: "/", Description: "Filter"},
}

// ContactsView lists the account's contacts.
type ContactsView struct {
	*ResourceTable
}

// NewContactsView creates the contact table.
func NewContactsView(theme *ui.Theme) *ContactsView {
	return &ContactsView{ResourceTable: NewResourceTable(theme, "Contacts", []Column{
		{Title: "NAME", Expansion: 2},
		{Title: "ID", Expansion: 2},
		{Title: "ALIAS", Expansion: 1},
		{Title: "FRIEND"},
		{Title: "GENDER"},
	})}
}

// Name implements Component.
func (cv *ContactsView) Name() string { return "Contacts" }

// Hints implements Component.
func (cv *ContactsView) Hints() []ui.MenuHint { return directoryHints }

// Update renders the contacts. Non-friends are dimmed.
func (cv *ContactsView) Update(list []protocol.Contact) {
	rows := make([]Row, 0, len(list))
	for _, c := range list {
		friend := "no"
		if c.Friend {
			friend = "yes"
		}
		rows = append(rows, Row{
			Key:   c.ID,
			Cells: []string{c.Name, c.ID, c.Alias, friend, string(c.Gender)},
			Dim:   !c.Friend,
		})
	}
	cv.SetRows(rows)
}

// RoomsView lists the groups the account belongs to.
type RoomsView struct {
	*ResourceTable
}

// NewRoomsView creates the room table.
func NewRoomsView(theme *ui.Theme) *RoomsView {
	return &RoomsView{ResourceTable: NewResourceTable(theme, "Rooms", []Column{
		{Title: "NAME", Expansion: 2},
		{Title: "ID", Expansion: 2},
		{Title: "MEMBERS", Align: tview.AlignRight},
	})}
}

// Name implements Component.
func (rv *RoomsView) Name() string { return "Rooms" }

// Hints implements Component.
func (rv *RoomsView) Hints() []ui.MenuHint { return directoryHints }

// Update renders the rooms.
func (rv *RoomsView) Update(list []protocol.Room) {
	rows := make([]Row, 0, len(list))
	for _, r := range list {
		rows = append(rows, Row{
			Key:   r.ID,
			Cells: []string{r.Name, r.ID, strconv.Itoa(len(r.Members))},
		})
	}
	rv.SetRows(rows)
}
