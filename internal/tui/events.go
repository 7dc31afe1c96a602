package tui

import (
	"fmt"
	"time"

	"github.com/matheus3301/botpanel/internal/api"
	"github.com/matheus3301/botpanel/internal/status"
	"github.com/matheus3301/botpanel/internal/tui/model"
	"github.com/matheus3301/botpanel/internal/tui/ui"
	"github.com/matheus3301/botpanel/internal/tui/views"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

const (
	watchRetryMin = time.Second
	watchRetryMax = 30 * time.Second
)

// watch keeps the relayed event stream attached, resyncing the cache after
// every reconnect. It gives up when another shell takes over the session.
func (a *App) watch() {
	retry := watchRetryMin
	for {
		received, err := a.consume()
		if a.ctx.Err() != nil {
			return
		}
		if grpcstatus.Code(err) == codes.Aborted {
			a.flash.Warn("Detached: another shell took over or the daemon stopped")
			return
		}
		a.flash.Err(fmt.Errorf("event stream: %w", err))

		if received {
			retry = watchRetryMin
		}
		select {
		case <-a.ctx.Done():
			return
		case <-time.After(retry):
		}
		retry = min(retry*2, watchRetryMax)

		if err := a.vm.LoadAll(a.ctx); err != nil && a.ctx.Err() == nil {
			a.flash.Err(err)
		}
	}
}

// consume reads events until the stream fails. It reports whether any
// event arrived.
func (a *App) consume() (bool, error) {
	stream, err := a.client.Watch(a.ctx)
	if err != nil {
		return false, err
	}
	received := false
	for {
		env, err := stream.Recv()
		if err != nil {
			return received, err
		}
		received = true
		payload, err := api.ValueJSON(env.Payload)
		if err != nil {
			a.flash.Warn(err.Error())
			continue
		}
		if _, err := a.vm.Apply(env.Name, payload); err != nil {
			a.flash.Warn(err.Error())
		}
	}
}

// renderLoop redraws whatever the view model reports as changed.
func (a *App) renderLoop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.vm.RefreshCh():
			dirty := a.vm.TakeDirty()
			if dirty == 0 {
				continue
			}
			a.app.QueueUpdateDraw(func() { a.render(dirty) })
		}
	}
}

// flashLoop shows new flash messages immediately and ticks once a second to
// expire them and advance the uptime counter.
func (a *App) flashLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case msg := <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(&msg) })
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.flashBar.Update(a.flash.GetMessage())
				a.renderSession()
			})
		}
	}
}

func (a *App) render(dirty model.Section) {
	if dirty.Has(model.SectionSession) {
		a.sessionAt = time.Now()
	}
	if dirty.Has(model.SectionSession | model.SectionStatus | model.SectionUser | model.SectionStats | model.SectionRules) {
		a.renderSession()
	}
	if dirty.Has(model.SectionStatus | model.SectionUser | model.SectionStats | model.SectionMessages) {
		a.dashboard.Update(views.DashboardData{
			Status:   a.vm.Status(),
			User:     a.vm.User(),
			Stats:    a.vm.Stats(),
			Logout:   a.vm.LastLogout(),
			Messages: a.vm.Messages(),
		})
	}
	if dirty.Has(model.SectionMessages) {
		a.messages.Update(a.vm.Messages())
	}
	if dirty.Has(model.SectionRules) {
		a.rules.Update(a.vm.Rules())
	}
	if dirty.Has(model.SectionContacts) {
		a.contacts.Update(a.vm.Contacts())
	}
	if dirty.Has(model.SectionRooms) {
		a.rooms.Update(a.vm.Rooms())
	}
	if dirty.Has(model.SectionKnowledge) {
		a.knowledge.Update(a.vm.Knowledge())
	}
	if dirty.Has(model.SectionQR | model.SectionStatus) {
		a.renderLogin(dirty.Has(model.SectionQR))
	}
}

type loginMode int

const (
	loginIdle loginMode = iota
	loginScan
	loginDone
)

// loginModeFor picks what the login page shows. A logged-in session wins
// over any code still held.
func loginModeFor(state status.State, payload string) loginMode {
	switch {
	case state == status.LoggedIn || state == status.Ready:
		return loginDone
	case payload != "":
		return loginScan
	default:
		return loginIdle
	}
}

// renderLogin follows the login flow: a fresh code brings up the login page
// and a completed login leaves it.
func (a *App) renderLogin(newCode bool) {
	code := a.vm.QR()
	st := a.vm.Status()
	switch loginModeFor(st.State, code.Payload) {
	case loginDone:
		a.auth.ShowMessage("Logged in as " + a.vm.User().Name)
		if a.pages.Current() == pageAuth && a.pages.Depth() > 1 {
			a.back()
		}
	case loginScan:
		a.auth.ShowQR(code)
		if newCode && a.pages.Current() != pageAuth {
			a.show(pageAuth)
		}
	default:
		a.auth.ShowMessage("Not logged in. Press s to start the bot.")
	}
}

func (a *App) renderSession() {
	info := a.vm.Session()
	uptime := time.Duration(info.UptimeMs) * time.Millisecond
	if !a.sessionAt.IsZero() {
		uptime += time.Since(a.sessionAt)
	}
	a.sessionInfo.Update(&ui.SessionData{
		Session:  a.session,
		User:     a.vm.User().Name,
		State:    string(a.vm.Status().State),
		Contacts: a.vm.Stats().ContactCount,
		Rooms:    a.vm.Stats().GroupCount,
		Rules:    a.vm.Stats().AutoReplyCount,
		Uptime:   uptime,
	})
}
