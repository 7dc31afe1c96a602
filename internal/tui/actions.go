package tui

import (
	"context"
	"errors"
	"fmt"
)

// do runs fn against the daemon off the UI goroutine and reports the
// outcome in the flash bar. The view model signals any redraw itself.
func (a *App) do(done string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, commandTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			if a.ctx.Err() == nil {
				a.flash.Err(err)
			}
			return
		}
		if done != "" {
			a.flash.Info(done)
		}
	}()
}

func (a *App) startBot() {
	a.flash.Info("Starting bot...")
	a.do("", a.vm.Start)
}

func (a *App) stopBot() {
	a.do("Bot stopped", a.vm.Stop)
}

func (a *App) showLogin() {
	a.auth.ShowQR(a.vm.QR())
	a.show(pageAuth)
}

func (a *App) refreshQR() {
	a.do("Requested a new login code", a.vm.RefreshQR)
}

func (a *App) reload() {
	a.do("Reloaded", a.vm.LoadAll)
}

func (a *App) refreshDirectory(contacts, rooms bool) {
	a.flash.Info("Refreshing directory...")
	a.do("Directory refreshed", func(ctx context.Context) error {
		var errs []error
		if contacts {
			errs = append(errs, a.vm.LoadContacts(ctx, true))
		}
		if rooms {
			errs = append(errs, a.vm.LoadRooms(ctx, true))
		}
		return errors.Join(errs...)
	})
}

func (a *App) toggleRule(id string) {
	if id == "" {
		a.flash.Warn("No rule selected")
		return
	}
	a.do("", func(ctx context.Context) error {
		enabled, err := a.vm.ToggleRule(ctx, id)
		if err != nil {
			return err
		}
		a.flash.Info(fmt.Sprintf("Rule %s %s", id, enabledLabel(enabled)))
		return nil
	})
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func (a *App) removeRule(id string) {
	if id == "" {
		a.flash.Warn("No rule selected")
		return
	}
	a.do("Rule "+id+" deleted", func(ctx context.Context) error {
		return a.vm.RemoveRule(ctx, id)
	})
}

// execute runs a command entered at the prompt.
func (a *App) execute(cmd Command) {
	if page, ok := pageAliases[cmd.Name]; ok {
		a.show(page)
		return
	}

	switch cmd.Name {
	case "q", "q!", "quit", "exit":
		a.Stop()
	case "h", "help", "?":
		a.show(pageHelp)
	case "start":
		a.startBot()
	case "stop":
		a.stopBot()
	case "qr", "login":
		a.showLogin()
		a.refreshQR()
	case "reload", "refresh":
		a.reload()
	case "add", "exact":
		r, err := ParseRule(cmd.Args, cmd.Name == "exact")
		if err != nil {
			a.flash.Err(fmt.Errorf("%s: %w", cmd.Name, err))
			return
		}
		a.do("Rule added", func(ctx context.Context) error {
			return a.vm.AddRule(ctx, r)
		})
		a.show(pageRules)
	case "rm", "del", "delete":
		a.removeRule(cmd.Args)
	case "toggle":
		a.toggleRule(cmd.Args)
	case "learn":
		it, err := ParseKnowledge(cmd.Args)
		if err != nil {
			a.flash.Err(fmt.Errorf("learn: %w", err))
			return
		}
		a.do("Answer added", func(ctx context.Context) error {
			return a.vm.AddKnowledge(ctx, it)
		})
		a.show(pageKnowledge)
	default:
		a.flash.Warn(fmt.Sprintf("Unknown command %q, try :help", cmd.Name))
	}
}
