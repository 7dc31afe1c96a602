package tui

import (
	"context"
	"slices"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/botpanel/internal/tui/client"
	"github.com/matheus3301/botpanel/internal/tui/keys"
	"github.com/matheus3301/botpanel/internal/tui/model"
	"github.com/matheus3301/botpanel/internal/tui/ui"
	"github.com/matheus3301/botpanel/internal/tui/views"
	"github.com/rivo/tview"
)

const (
	pageDashboard = "dashboard"
	pageMessages  = "messages"
	pageRules     = "rules"
	pageContacts  = "contacts"
	pageRooms     = "rooms"
	pageKnowledge = "knowledge"
	pageAuth      = "login"
	pageHelp      = "help"
)

// topPages are reachable with the number keys, in order.
var topPages = []string{pageDashboard, pageMessages, pageRules, pageContacts, pageRooms, pageKnowledge}

var globalHints = []ui.MenuHint{
	{Key: "1-6", Description: "Views", Numeric: true},
	{Key: ":", Description: "Command"},
	{Key: "l", Description: "Login code"},
	{Key: "?", Description: "Help"},
	{Key: "q", Description: "Quit"},
}

// commandTimeout bounds a single daemon call made from the UI.
const commandTimeout = 30 * time.Second

type page struct {
	component ui.Component
	primitive tview.Primitive
	table     *views.ResourceTable
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	vm       *model.ViewModel
	client   *client.Client
	registry *keys.Registry
	flash    *ui.FlashModel
	session  string

	root        *tview.Flex
	pages       *ui.Pages
	sessionInfo *ui.SessionInfo
	menu        *ui.Menu
	crumbs      *ui.Crumbs
	flashBar    *ui.FlashBar
	prompt      *ui.Prompt

	dashboard *views.DashboardView
	messages  *views.MessagesView
	rules     *views.RulesView
	contacts  *views.ContactsView
	rooms     *views.RoomsView
	knowledge *views.KnowledgeView
	auth      *views.AuthView
	help      *views.HelpView
	byName    map[string]page

	sessionAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(c *client.Client, sessionName string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:         tview.NewApplication(),
		theme:       theme,
		vm:          model.NewViewModel(c),
		client:      c,
		registry:    keys.NewRegistry(),
		flash:       ui.NewFlashModel(),
		session:     sessionName,
		pages:       ui.NewPages(),
		sessionInfo: ui.NewSessionInfo(theme),
		menu:        ui.NewMenu(theme),
		crumbs:      ui.NewCrumbs(theme),
		flashBar:    ui.NewFlashBar(theme),
		prompt:      ui.NewPrompt(theme),
		dashboard:   views.NewDashboardView(theme),
		messages:    views.NewMessagesView(theme),
		rules:       views.NewRulesView(theme),
		contacts:    views.NewContactsView(theme),
		rooms:       views.NewRoomsView(theme),
		knowledge:   views.NewKnowledgeView(theme),
		auth:        views.NewAuthView(theme),
		help:        views.NewHelpView(theme),
		ctx:         ctx,
		cancel:      cancel,
	}

	a.byName = map[string]page{
		pageDashboard: {component: a.dashboard, primitive: a.dashboard},
		pageMessages:  {component: a.messages, primitive: a.messages, table: a.messages.ResourceTable},
		pageRules:     {component: a.rules, primitive: a.rules, table: a.rules.ResourceTable},
		pageContacts:  {component: a.contacts, primitive: a.contacts, table: a.contacts.ResourceTable},
		pageRooms:     {component: a.rooms, primitive: a.rooms, table: a.rooms.ResourceTable},
		pageKnowledge: {component: a.knowledge, primitive: a.knowledge, table: a.knowledge.ResourceTable},
		pageAuth:      {component: a.auth, primitive: a.auth},
		pageHelp:      {component: a.help, primitive: a.help},
	}
	for _, p := range a.byName {
		p.component.Init()
	}

	a.setupBindings()
	a.setupPrompt()
	a.setupLayout()
	a.renderSession()
	a.auth.ShowMessage("Loading...")

	return a
}

func (a *App) setupBindings() {
	global := func(name string, key tcell.Key, r rune, fn func()) {
		a.registry.AddGlobal(name, &keys.Action{Key: key, Rune: r, Description: name, Handler: fn})
	}
	view := func(v, name string, key tcell.Key, r rune, fn func()) {
		a.registry.AddView(v, name, &keys.Action{Key: key, Rune: r, Description: name, Handler: fn})
	}

	global("quit", tcell.KeyRune, 'q', a.Stop)
	global("help", tcell.KeyRune, '?', func() { a.show(pageHelp) })
	global("login", tcell.KeyRune, 'l', a.showLogin)
	global("start", tcell.KeyRune, 's', a.startBot)
	global("stop", tcell.KeyRune, 'x', a.stopBot)
	global("reload", tcell.KeyCtrlR, 0, a.reload)
	for i, name := range topPages {
		global("goto-"+name, tcell.KeyRune, rune('1'+i), func() { a.show(name) })
	}

	view(pageRules, "toggle", tcell.KeyRune, 't', func() { a.toggleRule(a.rules.SelectedRule()) })
	view(pageRules, "delete", tcell.KeyCtrlD, 0, func() { a.removeRule(a.rules.SelectedRule()) })
	view(pageContacts, "refresh", tcell.KeyRune, 'R', func() { a.refreshDirectory(true, false) })
	view(pageRooms, "refresh", tcell.KeyRune, 'R', func() { a.refreshDirectory(false, true) })
	view(pageAuth, "new-code", tcell.KeyRune, 'r', a.refreshQR)
}

func (a *App) setupPrompt() {
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptCommand:
			a.execute(ParseCommand(text))
		case ui.PromptFilter:
			if p := a.byName[a.pages.Current()]; p.table != nil {
				p.table.SetFilter(text)
			}
		}
	})
	a.prompt.SetOnCancel(a.hidePrompt)
}

func (a *App) setupLayout() {
	for name, p := range a.byName {
		a.pages.AddPage(name, p.primitive, true, false)
	}
	a.pages.SetOnChange(a.crumbs.Update)

	header := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.sessionInfo, 40, 0, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(ui.NewLogo(a.theme), 16, 0, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 6, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)
	a.root.SetBackgroundColor(a.theme.BgColor)

	a.app.SetRoot(a.root, true)
	a.show(pageDashboard)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.app.GetFocus() == a.prompt.InputField {
			return event
		}
		current := a.pages.Current()

		switch {
		case event.Key() == tcell.KeyEscape:
			if p := a.byName[current]; p.table != nil && p.table.Filter() != "" {
				p.table.ClearFilter()
				return nil
			}
			if a.pages.Depth() > 1 {
				a.back()
				return nil
			}
		case event.Key() == tcell.KeyRune && event.Rune() == ':':
			a.showPrompt(ui.PromptCommand)
			return nil
		case event.Key() == tcell.KeyRune && event.Rune() == '/':
			if a.byName[current].table != nil {
				a.showPrompt(ui.PromptFilter)
				return nil
			}
		}

		if a.registry.HandleEvent(current, event) {
			return nil
		}
		return event
	})
}

// show navigates to name. Top pages replace the stack; the others stack on
// top of the current page.
func (a *App) show(name string) {
	p, ok := a.byName[name]
	if !ok {
		return
	}
	if prev, ok := a.byName[a.pages.Current()]; ok {
		prev.component.Stop()
	}
	if isTopPage(name) {
		a.pages.Reset(name)
	} else if a.pages.Current() != name {
		a.pages.Push(name)
	}
	a.activate(p)
}

func (a *App) back() {
	if prev, ok := a.byName[a.pages.Current()]; ok {
		prev.component.Stop()
	}
	a.pages.Pop()
	p := a.byName[a.pages.Current()]
	a.activate(p)
}

func (a *App) activate(p page) {
	p.component.Start()
	a.menu.Update(slices.Concat(p.component.Hints(), globalHints))
	a.app.SetFocus(p.primitive)
}

func isTopPage(name string) bool {
	return slices.Contains(topPages, name)
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	if p, ok := a.byName[a.pages.Current()]; ok {
		a.app.SetFocus(p.primitive)
	}
}

// Run loads the initial state, starts the background loops and blocks
// until the UI exits.
func (a *App) Run() error {
	go func() {
		if err := a.vm.LoadAll(a.ctx); err != nil {
			a.flash.Err(err)
		}
		if a.vm.QR().Payload == "" && !a.vm.Status().LoggedIn {
			a.app.QueueUpdateDraw(func() {
				a.auth.ShowMessage("Not logged in. Press s to start the bot.")
			})
		}
	}()
	go a.renderLoop()
	go a.flashLoop()
	go a.watch()

	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
