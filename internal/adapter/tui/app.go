// Package tui is the terminal front-end: a chat pane and a document pane,
// connected only through the cross-pane bridge.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"lexbridge/internal/adapter/bff"
	"lexbridge/internal/domain"
	"lexbridge/internal/usecase/actions"
	"lexbridge/internal/usecase/bridge"
	"lexbridge/internal/usecase/chat"
	"lexbridge/internal/usecase/docstream"
)

const (
	focusChat = iota
	focusDoc
)

// Msgs pumped from background goroutines into the program loop.
type (
	streamStateMsg struct{ state bff.StreamState }
	docChangedMsg  struct{}
	actionsMsg     struct {
		set *domain.ActionSet
		err error
	}
)

// Deps are the dependencies injected into the app model.
type Deps struct {
	Manager    *chat.Manager
	Stream     *bff.StreamClient
	Bus        *bridge.Bus
	Actions    *actions.Cache
	DocumentID string
	Document   string // initial document pane text
	Markdown   bool
	Logger     *slog.Logger
}

// App is the root Bubble Tea model.
type App struct {
	deps      Deps
	doc       *DocumentBuffer
	consumer  *docstream.Consumer
	publisher *docstream.Publisher
	selection *bridge.SelectionTracker

	chatView viewport.Model
	docView  viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	updates chan tea.Msg

	focus       int
	width       int
	height      int
	ready       bool
	menu        *domain.ActionSet
	refining    bool   // current stream routed to the document pane
	prevContent string // last streamed content seen, for token deltas
	quitting    bool
}

// NewApp wires the two panes to the bridge and returns the root model.
func NewApp(deps Deps) *App {
	updates := make(chan tea.Msg, 64)
	post := func(msg tea.Msg) {
		select {
		case updates <- msg:
		default:
			// A dropped repaint hint is repaired by the next one.
		}
	}

	a := &App{
		deps:    deps,
		updates: updates,
	}

	a.doc = NewDocumentBuffer(deps.Document, func() { post(docChangedMsg{}) })
	a.consumer = docstream.New(a.doc, deps.Bus, deps.Logger)
	a.publisher = docstream.NewPublisher(deps.Bus)
	a.selection = bridge.NewSelectionTracker(deps.Bus)

	deps.Stream.OnChange(func(state bff.StreamState) {
		post(streamStateMsg{state: state})
	})

	input := textinput.New()
	input.Placeholder = "Ask about this document…"
	input.Focus()
	a.input = input

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorInfo)
	a.spinner = s

	if deps.Markdown {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
			a.renderer = r
		}
	}

	return a
}

// Close tears down pane wiring: the consumer ends any in-flight insert
// defensively and the selection tracker clears its state.
func (a *App) Close() {
	a.consumer.Close()
	a.selection.Close()
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.waitUpdate())
}

// waitUpdate re-arms the channel pump.
func (a *App) waitUpdate() tea.Cmd {
	return func() tea.Msg {
		return <-a.updates
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case streamStateMsg:
		a.applyStream(msg.state)
		return a, a.waitUpdate()

	case docChangedMsg:
		a.docView.SetContent(a.doc.Text())
		a.docView.GotoBottom()
		return a, a.waitUpdate()

	case actionsMsg:
		if msg.err != nil {
			a.deps.Logger.Warn("action menu fetch failed", "error", msg.err)
		} else {
			a.menu = msg.set
			a.renderChat()
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	if a.focus == focusChat {
		a.input, cmd = a.input.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		a.quitting = true
		a.deps.Stream.CancelStream()
		return a, tea.Quit

	case "tab":
		if a.focus == focusChat {
			a.focus = focusDoc
			a.input.Blur()
		} else {
			a.focus = focusChat
			a.input.Focus()
		}
		return a, nil

	case "ctrl+x":
		// Cancel is a normal user action, never surfaced as an error.
		a.deps.Stream.CancelStream()
		return a, nil

	case "enter":
		if a.focus == focusChat {
			return a.handleSubmit(strings.TrimSpace(a.input.Value()))
		}

	case "a":
		if a.focus == focusDoc {
			a.emitSelectAll()
			return a, nil
		}

	case "esc":
		if a.focus == focusDoc {
			a.emitSelectionCleared()
			return a, nil
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	if a.focus == focusChat {
		a.input, cmd = a.input.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		a.docView, cmd = a.docView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a *App) handleSubmit(value string) (tea.Model, tea.Cmd) {
	if value == "" {
		return a, nil
	}
	a.input.SetValue("")

	if instruction, ok := strings.CutPrefix(value, "/refine "); ok {
		return a, a.startRefine(strings.TrimSpace(instruction))
	}
	if value == "/actions" {
		return a, a.fetchActions()
	}
	if a.menu != nil {
		a.menu = nil
	}

	a.refining = false
	a.prevContent = ""
	if err := a.deps.Manager.Send(context.Background(), value, a.deps.DocumentID); err != nil {
		a.deps.Logger.Warn("send rejected", "error", err)
	}
	a.renderChat()
	return a, nil
}

// fetchActions loads the capability menu through the session-scoped cache;
// repeat opens for the same session are served from memory.
func (a *App) fetchActions() tea.Cmd {
	session := a.deps.Manager.Session()
	if a.deps.Actions == nil || session == nil {
		return nil
	}
	sessionID := session.ID
	return func() tea.Msg {
		set, err := a.deps.Actions.Get(context.Background(), sessionID, "document")
		return actionsMsg{set: set, err: err}
	}
}

// startRefine routes the next stream into the document pane over the bridge.
func (a *App) startRefine(instruction string) tea.Cmd {
	sel := a.selection.Current()
	if err := a.deps.Manager.Refine(context.Background(), sel, instruction); err != nil {
		a.deps.Logger.Warn("refine rejected", "error", err)
		return nil
	}
	a.refining = true
	a.prevContent = ""
	a.publisher.Start(sel.End, "refine")
	return nil
}

// applyStream folds a stream snapshot into whichever pane owns the stream.
func (a *App) applyStream(state bff.StreamState) {
	if a.refining {
		if delta, grown := strings.CutPrefix(state.Content, a.prevContent); grown && delta != "" {
			a.publisher.Token(delta)
		}
		a.prevContent = state.Content

		if !state.Streaming {
			// Exactly one terminal end event, also on error/abort.
			cancelled := !state.Done
			a.publisher.End(cancelled)
			a.refining = false
		}
		return
	}

	a.deps.Manager.UpdateLastMessage(state.Content)
	if state.Done {
		a.deps.Manager.AttachCitations(state.Citations)
	}
	a.prevContent = state.Content
	a.renderChat()
}

func (a *App) emitSelectAll() {
	text := a.doc.Text()
	sctx, _ := json.Marshal(domain.SelectionContext{Source: "editor"})
	a.deps.Bus.Emit(domain.EventSelectionChanged, domain.SelectionChangedPayload{
		Text:     text,
		FullText: text,
		Start:    0,
		End:      a.doc.Len(),
		Context:  string(sctx),
	})
}

func (a *App) emitSelectionCleared() {
	a.deps.Bus.Emit(domain.EventSelectionChanged, domain.SelectionChangedPayload{
		Context: domain.SelectionClearedSentinel,
	})
}

func (a *App) layout() {
	paneWidth := a.width/2 - 4
	paneHeight := a.height - 6
	if paneHeight < 3 {
		paneHeight = 3
	}
	if !a.ready {
		a.chatView = viewport.New(paneWidth, paneHeight)
		a.docView = viewport.New(paneWidth, paneHeight)
	} else {
		a.chatView.Width = paneWidth
		a.chatView.Height = paneHeight
		a.docView.Width = paneWidth
		a.docView.Height = paneHeight
	}
	a.input.Width = a.width - 8
	a.docView.SetContent(a.doc.Text())
	a.renderChat()
}

// renderChat rebuilds the chat viewport from the transcript and stream state.
func (a *App) renderChat() {
	var b strings.Builder
	messages := a.deps.Manager.Messages()
	for i, msg := range messages {
		switch msg.Role {
		case domain.RoleUser:
			b.WriteString(styleUserLabel.Render("You") + "  " + msg.Content + "\n\n")
		case domain.RoleAssistant:
			b.WriteString(styleAssistantLabel.Render("Assistant") + "\n")
			b.WriteString(a.renderMarkdown(msg.Content) + "\n")
			for _, c := range a.deps.Manager.CitationsFor(i) {
				b.WriteString(styleMuted.Render(formatCitation(c)) + "\n")
			}
			b.WriteString("\n")
		}
	}

	state := a.deps.Stream.State()
	if state.Err != nil && !domain.IsCancellation(state.Err) {
		b.WriteString(styleError.Render("error: "+state.Err.Error()) + "\n")
	}
	for _, s := range state.Suggestions {
		b.WriteString(styleSuggestion.Render("▸ "+s) + "\n")
	}
	if a.menu != nil {
		for _, action := range a.menu.Actions {
			b.WriteString(styleMuted.Render(fmt.Sprintf("[%s] %s: %s", action.Category, action.Label, action.Description)) + "\n")
		}
	}

	a.chatView.SetContent(b.String())
	a.chatView.GotoBottom()
}

func (a *App) renderMarkdown(content string) string {
	if a.renderer == nil || content == "" {
		return content
	}
	out, err := a.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

func formatCitation(c domain.Citation) string {
	if c.Page != nil {
		return fmt.Sprintf("[%d] %s, p. %d", c.ID, c.Source, *c.Page)
	}
	return fmt.Sprintf("[%d] %s", c.ID, c.Source)
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}
	if !a.ready {
		return "loading…"
	}

	chatStyle, docStyle := stylePaneActive, stylePane
	if a.focus == focusDoc {
		chatStyle, docStyle = stylePane, stylePaneActive
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		chatStyle.Render(a.chatView.View()),
		docStyle.Render(a.docView.View()),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		panes,
		a.input.View(),
		a.statusBar(),
	)
}

func (a *App) statusBar() string {
	var parts []string

	if session := a.deps.Manager.Session(); session != nil {
		parts = append(parts, "session "+session.ID)
	}

	state := a.deps.Stream.State()
	if state.Streaming {
		parts = append(parts, a.spinner.View()+"streaming")
	}

	if sel := a.selection.Current(); sel != nil {
		parts = append(parts, fmt.Sprintf("selection %d:%d", sel.Start, sel.End))
	}

	var transcript strings.Builder
	for _, msg := range a.deps.Manager.Messages() {
		transcript.WriteString(msg.Content)
	}
	parts = append(parts, fmt.Sprintf("~%d tokens", estimateTokens(transcript.String())))

	parts = append(parts, "tab: switch pane · a: select all · esc: clear · ctrl+x: cancel · ctrl+c: quit")
	return styleStatusBar.Render(strings.Join(parts, "  │  "))
}
