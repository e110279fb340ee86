package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/waconsole/waconsole/internal/bus"
	"github.com/waconsole/waconsole/internal/config"
	"github.com/waconsole/waconsole/internal/history"
	"github.com/waconsole/waconsole/internal/outbox"
	"github.com/waconsole/waconsole/internal/platform"
	"github.com/waconsole/waconsole/internal/qr"
	"github.com/waconsole/waconsole/internal/realtime"
	cachesync "github.com/waconsole/waconsole/internal/sync"
	"github.com/waconsole/waconsole/internal/tui/model"
	"github.com/waconsole/waconsole/internal/tui/ui"
	"github.com/waconsole/waconsole/internal/tui/views"
)

// linesPerPixelRow approximates a terminal row as a 20px line, so the
// scroll-trigger threshold keeps its pixel-tuned config value.
const linesPerPixelRow = 20

// App is the main console application shell.
type App struct {
	app    *tview.Application
	pages  *tview.Pages
	vm     *model.ViewModel
	client *realtime.Client
	poller *qr.Poller
	events *bus.Bus
	cfg    *config.Config
	logger *zap.Logger

	statusBar *views.StatusBar
	sessions  *views.SessionTable
	chats     *views.ChatTable
	thread    *views.Thread
	qrView    *views.QRView
	searchV   *views.SearchView

	topTrigger *history.TopTrigger

	filterMode bool
	filter     string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the console application.
func NewApp(profileName string, vm *model.ViewModel, client *realtime.Client, poller *qr.Poller, events *bus.Bus, cfg *config.Config, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		vm:        vm,
		client:    client,
		poller:    poller,
		events:    events,
		cfg:       cfg,
		logger:    logger,
		statusBar: views.NewStatusBar(profileName),
		sessions:  views.NewSessionTable(theme),
		chats:     views.NewChatTable(theme),
		thread:    views.NewThread(theme),
		qrView:    views.NewQRView(theme),
		searchV:   views.NewSearchView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}

	threshold := cfg.History.TopThreshold / linesPerPixelRow
	if threshold < 1 {
		threshold = 1
	}
	a.topTrigger = history.NewTopTrigger(threshold, cfg.History.Debounce(), func() {
		go a.loadOlder()
	})

	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupCallbacks() {
	a.sessions.SetSelectedFunc(func(row, col int) {
		name := a.sessions.SelectedSession()
		if name != "" {
			a.openSession(name, a.sessions.SelectedStatus())
		}
	})

	a.chats.SetSelectedFunc(func(row, col int) {
		if chat := a.chats.SelectedChat(); chat != nil {
			a.openChat(chat.ChatID, chat.Name)
		}
	})

	a.thread.SetOnSend(func(text string) {
		go func() {
			if err := a.vm.Send(text); err != nil {
				a.vm.Flash.Set("Send failed: "+err.Error(), 5*time.Second)
			}
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetFlash(a.vm.Flash.Get())
			})
		}()
	})

	a.searchV.SetOnQuery(func(query string) {
		go func() {
			results, err := a.vm.Search(query)
			if err != nil {
				a.vm.Flash.Set("Search failed: "+err.Error(), 5*time.Second)
				return
			}
			a.app.QueueUpdateDraw(func() {
				a.searchV.Update(results)
				a.app.SetFocus(a.searchV.Results())
			})
		}()
	})

	// Scrolling toward the top of the thread arms the older-page trigger;
	// scrolling away disarms it before the debounce interval elapses.
	a.thread.Messages().SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp, tcell.KeyPgUp, tcell.KeyHome, tcell.KeyDown, tcell.KeyPgDn, tcell.KeyEnd:
			a.topTrigger.Observe(a.thread.ScrollRow())
		}
		return event
	})
}

func (a *App) setupLayout() {
	a.pages.AddPage("sessions", a.sessions, true, true)
	a.pages.AddPage("chats", a.chats, true, false)
	a.pages.AddPage("chat", a.thread, true, false)
	a.pages.AddPage("qr", a.qrView, true, false)
	a.pages.AddPage("search", a.searchV, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if currentPage == "chats" && a.handleFilterKey(event) {
			return nil
		}

		if event.Key() == tcell.KeyEscape {
			switch currentPage {
			case "chat":
				a.closeChat()
				return nil
			case "chats":
				a.closeSession()
				return nil
			case "qr":
				a.poller.Stop()
				a.pages.SwitchToPage("sessions")
				a.app.SetFocus(a.sessions)
				return nil
			case "search":
				a.pages.SwitchToPage("sessions")
				a.app.SetFocus(a.sessions)
				return nil
			}
		}

		// Let text input widgets handle all keys normally.
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			return event
		}

		// 'i' focuses the composer (only when not already in an input field).
		if currentPage == "chat" && event.Key() == tcell.KeyRune && event.Rune() == 'i' {
			a.app.SetFocus(a.thread.Composer())
			return nil
		}

		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case 'q':
				a.Stop()
				return nil
			case 's':
				a.pages.SwitchToPage("search")
				a.app.SetFocus(a.searchV.Input())
				return nil
			case 'r':
				a.refreshFront(currentPage)
				return nil
			}
		}

		return event
	})
}

// handleFilterKey implements incremental chat filtering: '/' arms it, runes
// narrow it, Enter keeps it, Escape clears it.
func (a *App) handleFilterKey(event *tcell.EventKey) bool {
	if !a.filterMode {
		if event.Key() == tcell.KeyRune && event.Rune() == '/' {
			a.filterMode = true
			a.filter = ""
			a.chats.SetFilter("")
			return true
		}
		return false
	}

	switch event.Key() {
	case tcell.KeyEscape:
		a.filterMode = false
		a.filter = ""
		a.chats.ClearFilter()
	case tcell.KeyEnter:
		a.filterMode = false
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(a.filter) > 0 {
			a.filter = a.filter[:len(a.filter)-1]
		}
		a.chats.SetFilter(a.filter)
	case tcell.KeyRune:
		a.filter += string(event.Rune())
		a.chats.SetFilter(a.filter)
	default:
		return false
	}
	return true
}

func (a *App) openSession(name, status string) {
	switch status {
	case platform.SessionReady, platform.SessionAuthed:
	default:
		// Unpaired sessions go through the QR flow first.
		a.qrView.ShowMessage("Waiting for QR code...")
		a.pages.SwitchToPage("qr")
		a.poller.Watch(a.ctx, name)
		return
	}

	a.client.JoinSession(name)
	go func() {
		if err := a.vm.RefreshChats(a.ctx, name); err != nil {
			a.vm.Flash.Set("Chats from cache: "+err.Error(), 5*time.Second)
		}
		a.app.QueueUpdateDraw(func() {
			a.chats.Update(a.vm.GetChats())
			a.statusBar.SetFlash(a.vm.Flash.Get())
			a.pages.SwitchToPage("chats")
			a.app.SetFocus(a.chats)
		})
	}()
}

func (a *App) closeSession() {
	if session, _, _ := a.vm.Active(); session != "" {
		a.client.LeaveSession(session)
	}
	a.pages.SwitchToPage("sessions")
	a.app.SetFocus(a.sessions)
}

func (a *App) openChat(chatID, name string) {
	session, _, _ := a.vm.Active()
	a.client.JoinChat(chatID)
	a.client.Feed().ClearUnread()

	go func() {
		if err := a.vm.OpenChat(a.ctx, session, chatID, name); err != nil {
			a.vm.Flash.Set("Load failed: "+err.Error(), 5*time.Second)
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetFlash(a.vm.Flash.Get())
			})
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.thread.SetChatName(name)
			a.thread.UpdateToEnd(a.vm.Messages())
			a.statusBar.SetUnread(0)
			a.pages.SwitchToPage("chat")
			a.app.SetFocus(a.thread.Messages())
		})
	}()
}

func (a *App) closeChat() {
	if _, chatID, _ := a.vm.Active(); chatID != "" {
		a.client.LeaveChat(chatID)
	}
	a.vm.CloseChat()
	a.pages.SwitchToPage("chats")
	a.app.SetFocus(a.chats)
}

// loadOlder fetches the next older history page and re-renders the thread
// with the previously visible row anchored in place.
func (a *App) loadOlder() {
	a.app.QueueUpdateDraw(func() { a.thread.SetLoading(true) })

	loaded, err := a.vm.LoadOlder(a.ctx)
	if err != nil {
		a.vm.Flash.Set("History: "+err.Error(), 5*time.Second)
	}

	a.app.QueueUpdateDraw(func() {
		a.thread.SetLoading(false)
		a.statusBar.SetFlash(a.vm.Flash.Get())
		if loaded {
			a.thread.UpdateAnchored(a.vm.Messages())
		}
	})
}

func (a *App) refreshFront(page string) {
	switch page {
	case "sessions":
		go func() {
			_ = a.vm.RefreshSessions(a.ctx)
			a.app.QueueUpdateDraw(func() { a.sessions.Update(a.vm.GetSessions()) })
		}()
	case "chats":
		session, _, _ := a.vm.Active()
		if session == "" {
			return
		}
		go func() {
			_ = a.vm.RefreshChats(a.ctx, session)
			a.app.QueueUpdateDraw(func() { a.chats.Update(a.vm.GetChats()) })
		}()
	case "chat":
		go func() {
			_ = a.vm.RefreshHead(a.ctx)
			a.app.QueueUpdateDraw(func() { a.thread.Update(a.vm.Messages()) })
		}()
	}
}

// consumeEvents applies bus events to the UI. Every mutation goes through
// QueueUpdateDraw; tview is not safe to touch from other goroutines.
func (a *App) consumeEvents() {
	ch, unsub := a.events.Subscribe("", 256)
	defer unsub()

	for {
		select {
		case <-a.ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			a.handleEvent(evt)
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case realtime.KindStateChanged:
		sc, ok := evt.Payload.(realtime.StateChange)
		if !ok {
			return
		}
		a.app.QueueUpdateDraw(func() { a.statusBar.SetState(sc.To) })

	case realtime.KindMessage:
		msg, ok := evt.Payload.(platform.Message)
		if !ok {
			return
		}
		merged := a.vm.MergeLive(msg)
		a.app.QueueUpdateDraw(func() {
			page, _ := a.pages.GetFrontPage()
			if merged && page == "chat" {
				a.thread.Update(a.vm.Messages())
			}
			a.statusBar.SetUnread(a.client.Feed().Unread())
		})

	case realtime.KindMessageStatus:
		upd, ok := evt.Payload.(realtime.StatusUpdate)
		if !ok {
			return
		}
		if a.vm.ApplyStatus(upd.MessageID, upd.Status) {
			a.app.QueueUpdateDraw(func() {
				if page, _ := a.pages.GetFrontPage(); page == "chat" {
					a.thread.Update(a.vm.Messages())
				}
			})
		}

	case realtime.KindQRCode, qr.KindUpdated:
		code, ok := evt.Payload.(platform.QRCode)
		if !ok {
			return
		}
		a.app.QueueUpdateDraw(func() {
			if page, _ := a.pages.GetFrontPage(); page == "qr" {
				a.qrView.Update(code)
			}
		})

	case realtime.KindFlash:
		note, ok := evt.Payload.(realtime.Notification)
		if !ok {
			return
		}
		a.vm.Flash.Set(note.Title+": "+note.Body, 5*time.Second)
		a.app.QueueUpdateDraw(func() { a.statusBar.SetFlash(a.vm.Flash.Get()) })

	case cachesync.KindSessionUpdated:
		go func() {
			_ = a.vm.RefreshSessionsCached()
			a.app.QueueUpdateDraw(func() {
				if page, _ := a.pages.GetFrontPage(); page == "sessions" {
					a.sessions.Update(a.vm.GetSessions())
				}
			})
		}()

	case cachesync.KindMessageUpserted, cachesync.KindHistoryIngested:
		go func() {
			_ = a.vm.RefreshChatsCached()
			a.app.QueueUpdateDraw(func() {
				if page, _ := a.pages.GetFrontPage(); page == "chats" {
					a.chats.Update(a.vm.GetChats())
				}
			})
		}()

	case outbox.KindSent:
		// The ack carries the server-assigned id; a head refresh folds the
		// authoritative row into the open window.
		go func() {
			_ = a.vm.RefreshHead(a.ctx)
			a.app.QueueUpdateDraw(func() {
				if page, _ := a.pages.GetFrontPage(); page == "chat" {
					a.thread.Update(a.vm.Messages())
				}
			})
		}()

	case outbox.KindFailed:
		a.vm.Flash.Set("Send failed", 5*time.Second)
		a.app.QueueUpdateDraw(func() { a.statusBar.SetFlash(a.vm.Flash.Get()) })
	}
}

func (a *App) startRefreshLoop() {
	ticker := time.NewTicker(5 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = a.vm.RefreshStats(a.ctx)
				a.app.QueueUpdateDraw(func() {
					a.statusBar.SetFlash(a.vm.Flash.Get())
					a.statusBar.SetUnread(a.client.Feed().Unread())
				})
			case <-a.ctx.Done():
				return
			}
		}
	}()
}

// Run starts the console and blocks until it exits.
func (a *App) Run() error {
	go a.consumeEvents()

	go func() {
		if err := a.vm.RefreshSessions(a.ctx); err != nil {
			a.vm.Flash.Set("Sessions from cache: "+err.Error(), 5*time.Second)
		}
		a.app.QueueUpdateDraw(func() {
			a.sessions.Update(a.vm.GetSessions())
			a.statusBar.SetFlash(a.vm.Flash.Get())
		})
		a.startRefreshLoop()
	}()

	return a.app.Run()
}

// Stop gracefully shuts down the console.
func (a *App) Stop() {
	a.cancel()
	a.topTrigger.Stop()
	a.app.Stop()
}
