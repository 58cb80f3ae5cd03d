package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/bcast/internal/broadcast"
	"github.com/matheus3301/bcast/internal/bus"
	"github.com/matheus3301/bcast/internal/contacts"
	"github.com/matheus3301/bcast/internal/templates"
	"github.com/matheus3301/bcast/internal/tui/keys"
	"github.com/matheus3301/bcast/internal/tui/ui"
	"github.com/matheus3301/bcast/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	pageContacts  = "contacts"
	pageTemplates = "templates"
	pageHelp      = "help"

	promptHeight = 3
)

// Params are the in-process services the dashboard drives.
type Params struct {
	Contacts  *contacts.Store
	Templates *templates.Store
	Broadcast *broadcast.Controller
	Bus       *bus.Bus
	Logger    *zap.Logger
}

// App is the terminal dashboard.
type App struct {
	app      *tview.Application
	root     *tview.Flex
	pages    *ui.Pages
	prompt   *ui.Prompt
	menu     *ui.Menu
	info     *ui.Info
	crumbs   *ui.Crumbs
	flash    *ui.FlashModel
	flashBar *ui.FlashBar
	registry *keys.Registry

	table     *views.ContactTable
	composer  *views.Composer
	templates *views.TemplateView
	help      *views.HelpView
	status    *views.StatusBar

	cs     *contacts.Store
	ts     *templates.Store
	ctrl   *broadcast.Controller
	bus    *bus.Bus
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp builds the dashboard around p.
func NewApp(p Params) *App {
	theme := ui.DefaultTheme()
	ctx, cancel := context.WithCancel(context.Background())
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		app:       tview.NewApplication(),
		pages:     ui.NewPages(),
		prompt:    ui.NewPrompt(theme),
		menu:      ui.NewMenu(theme),
		info:      ui.NewInfo(theme),
		crumbs:    ui.NewCrumbs(theme),
		flash:     ui.NewFlashModel(),
		flashBar:  ui.NewFlashBar(theme),
		registry:  keys.NewRegistry(),
		table:     views.NewContactTable(theme),
		composer:  views.NewComposer(theme),
		templates: views.NewTemplateView(theme),
		help:      views.NewHelpView(theme),
		status:    views.NewStatusBar(theme),
		cs:        p.Contacts,
		ts:        p.Templates,
		ctrl:      p.Broadcast,
		bus:       p.Bus,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	a.composer.SetMessage(a.ctrl.Composer())
	a.refresh()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(
		keys.Rune('t', "templates", func() { a.push(pageTemplates) }),
		keys.Rune('p', "prepare", a.prepare),
		keys.Rune('s', "send", a.send),
		keys.Rune('x', "cancel/reset", a.cancelOrReset),
		keys.Rune('c', "clear message", a.ctrl.ClearMessage),
		keys.Rune(':', "command", func() { a.openPrompt(ui.PromptCommand, "") }),
		keys.Rune('?', "help", func() { a.push(pageHelp) }),
		keys.Rune('q', "quit", a.Stop),
	)
	a.registry.AddView(pageContacts,
		keys.Rune(' ', "toggle", a.toggle),
		keys.Rune('a', "select all", func() { a.cs.SelectAll(true) }),
		keys.Rune('A', "clear all", func() { a.cs.SelectAll(false) }),
		keys.Rune('o', "online only", a.cs.SelectOnlineOnly),
		keys.Rune('/', "filter", a.openFilter),
		keys.Rune('r', "reload", a.reload),
		keys.Rune('n', "next page", func() { a.turnPage(1) }),
		keys.Rune('N', "prev page", func() { a.turnPage(-1) }),
		&keys.Action{Key: tcell.KeyTab, Description: "edit message", Handler: func() { a.app.SetFocus(a.composer) }},
	)
}

func (a *App) setupCallbacks() {
	a.composer.SetOnChange(a.ctrl.SetMessage)

	a.templates.SetOnUse(func(key string) {
		if !a.ctrl.UseTemplate(key) {
			a.flash.Warn("unknown template " + key)
			return
		}
		a.flash.Info("template: " + a.ts.Name(key))
		a.pages.Pop()
		a.focusPage()
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		switch mode {
		case ui.PromptFilter:
			a.applyFilter(text)
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		}
		a.refresh()
	})
	a.prompt.SetOnClose(func() {
		a.root.ResizeItem(a.prompt, 0, 0)
		a.focusPage()
	})

	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.SetStack(stack)
		a.updateMenu()
	})
}

func (a *App) setupLayout() {
	a.pages.AddPage(pageContacts, tview.NewFlex().
		AddItem(a.table, 0, 3, true).
		AddItem(a.composer, 0, 2, false), true, false)
	a.pages.AddPage(pageTemplates, a.templates, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)

	header := tview.NewFlex().
		AddItem(a.info, 44, 0, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(ui.NewLogo(ui.DefaultTheme()), 20, 0, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 6, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.status, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)

	a.pages.Reset(pageContacts)
	a.app.SetRoot(a.root, true)
	a.app.SetFocus(a.table)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// The prompt handles its own Enter and Esc.
		if a.prompt.Active() {
			return event
		}

		if event.Key() == tcell.KeyEscape {
			if a.app.GetFocus() == a.composer {
				a.app.SetFocus(a.table)
				return nil
			}
			if a.pages.Pop() != "" {
				a.focusPage()
				return nil
			}
		}

		if a.app.GetFocus() == a.composer {
			return event
		}
		if a.registry.HandleEvent(a.pages.Current(), event) {
			return nil
		}
		return event
	})
}

func (a *App) push(page string) {
	a.pages.Push(page)
	a.focusPage()
}

func (a *App) focusPage() {
	switch a.pages.Current() {
	case pageTemplates:
		a.app.SetFocus(a.templates.List())
	case pageHelp:
		a.app.SetFocus(a.help)
	default:
		a.app.SetFocus(a.table)
	}
}

func (a *App) updateMenu() {
	hints := a.registry.Hints(a.pages.Current())
	switch a.pages.Current() {
	case pageTemplates:
		hints = append(a.templates.Hints(), hints...)
	case pageHelp:
		hints = append(a.help.Hints(), hints...)
	}
	a.menu.Update(hints)
}

func (a *App) openPrompt(mode ui.PromptMode, initial string) {
	a.prompt.Activate(mode, initial)
	a.root.ResizeItem(a.prompt, promptHeight, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) openFilter() {
	term, status := a.cs.FilterState()
	a.openPrompt(ui.PromptFilter, FilterQuery{Term: term, Status: string(status)}.String())
}

func (a *App) applyFilter(text string) {
	q := ParseFilter(text)
	status, err := contacts.ParseStatus(q.Status)
	if err != nil {
		a.flash.Err(err)
		return
	}
	a.cs.Filter(q.Term, status)
}

func (a *App) toggle() {
	c, ok := a.table.Selected()
	if !ok {
		return
	}
	a.cs.ToggleSelection(c.ID, !c.Selected)
}

func (a *App) turnPage(delta int) {
	a.cs.GoToPage(a.cs.CurrentPage().Number + delta)
	a.refresh()
}

func (a *App) reload() {
	a.flash.Info("loading contacts...")
	go func() {
		if err := a.cs.Load(a.ctx); err != nil {
			a.logger.Warn("reload contacts", zap.Error(err))
			a.flash.Err(err)
		} else {
			a.flash.Success(fmt.Sprintf("loaded %d contacts", a.cs.Stats().Total))
		}
		a.app.QueueUpdateDraw(a.refresh)
	}()
}

func (a *App) prepare() {
	summary, err := a.ctrl.Prepare()
	if err != nil {
		a.flash.Err(err)
		return
	}
	msg := fmt.Sprintf("ready to send to %d recipients, press s to confirm", summary.Recipients)
	if wait := time.Until(summary.ReadyAt); wait > 0 {
		msg = fmt.Sprintf("prepared for %d recipients, confirm in %s", summary.Recipients, wait.Round(time.Second))
	}
	if summary.Skipped > 0 {
		msg += fmt.Sprintf(" (%d without a valid phone skipped)", summary.Skipped)
	}
	a.flash.Warn(msg)
}

func (a *App) send() {
	a.flash.Info("sending...")
	go func() {
		res, err := a.ctrl.Send(a.ctx)
		switch {
		case errors.Is(err, broadcast.ErrSendInFlight):
			a.flash.Warn(err.Error())
		case err != nil:
			a.flash.Err(err)
		default:
			a.flash.Success(fmt.Sprintf("sent to %d recipients in %s", res.Recipients, res.Duration.Round(time.Millisecond)))
		}
		a.app.QueueUpdateDraw(a.refresh)
	}()
}

func (a *App) cancelOrReset() {
	if a.ctrl.Cancel() {
		a.flash.Warn("cancelling send...")
		return
	}
	if err := a.ctrl.Reset(); err != nil {
		a.flash.Err(err)
		return
	}
	a.refresh()
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "q", "quit":
		a.Stop()
	case "h", "help":
		a.push(pageHelp)
	case "link":
		if cmd.Args == "" {
			a.flash.Info("link: " + a.ts.Link())
			return
		}
		a.ts.SetLink(cmd.Args)
		a.flash.Success("template link updated")
	case "save":
		key, err := a.ts.Create(cmd.Args, "", a.ctrl.Composer())
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.flash.Success("saved template " + key)
	case "page":
		n, err := cmd.PageArg()
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.cs.GoToPage(n)
		a.refresh()
	case "add":
		name, phone, err := cmd.ContactArgs()
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.addContact(name, phone)
	default:
		a.flash.Warn("unknown command :" + cmd.Name)
	}
}

func (a *App) addContact(name, phone string) {
	a.flash.Info("adding " + name + "...")
	go func() {
		if err := a.cs.AddContact(a.ctx, name, phone); err != nil {
			a.flash.Err(err)
		} else {
			a.flash.Success("added " + name)
		}
		a.app.QueueUpdateDraw(a.refresh)
	}()
}

// refresh redraws every view from the services. Must run on the UI goroutine.
func (a *App) refresh() {
	page := a.cs.CurrentPage()
	a.table.Update(page)

	stats := a.cs.Stats()
	term, status := a.cs.FilterState()
	active := a.ts.ActiveKey()
	template := ""
	if active != "" {
		template = a.ts.Name(active)
	}
	a.info.Update(ui.InfoData{
		Total:    stats.Total,
		Filtered: stats.Filtered,
		Selected: stats.Selected,
		Online:   stats.Online,
		Page:     page.Number,
		Pages:    page.Count,
		Template: template,
		Link:     a.ts.Link(),
	})
	if filter := (FilterQuery{Term: term, Status: string(status)}).String(); filter != "" {
		a.crumbs.SetNote("filter: " + filter)
	} else {
		a.crumbs.SetNote("")
	}

	a.templates.Update(a.ts.All(), active, a.ts.Link())
	a.composer.SetMessage(a.ctrl.Composer())
	a.status.Update(a.ctrl.Snapshot())
	a.flashBar.Update(a.flash.Current())
}

// watch redraws on every bus event until ctx is done.
func (a *App) watch(events <-chan bus.Event) {
	for {
		select {
		case <-a.ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			a.logger.Debug("redraw", zap.String("event", evt.Kind))
			a.app.QueueUpdateDraw(a.refresh)
		}
	}
}

// tick keeps the clock, countdown and toasts current.
func (a *App) tick() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.status.Update(a.ctrl.Snapshot())
				a.flashBar.Update(a.flash.Current())
			})
		}
	}
}

// Run starts the dashboard and blocks until it exits.
func (a *App) Run() error {
	events, unsub := a.bus.Subscribe("", 64)
	defer unsub()

	go a.watch(events)
	go a.tick()

	a.updateMenu()
	err := a.app.Run()
	a.cancel()
	return err
}

// Stop shuts the dashboard down.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
