// Package chat provides the question-and-answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
)

// ErrNoAskService is returned when the view has no engine.
var ErrNoAskService = errors.New("ask service not available")

// reservedLines is the height used by everything except the transcript.
const reservedLines = 8

// exchange is one question with its outcome.
type exchange struct {
	question string
	answer   *domain.AnswerResponse
	err      error
}

// View is the chat view: transcript, latest sources, input and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	sources   *list.SourceList
	statusbar *status.Bar
	spinner   spinner.Model
	viewport  viewport.Model

	askService driving.AskService
	options    domain.AskOptions
	ctx        context.Context

	history  []exchange
	pending  string
	thinking bool
	showHelp bool

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	askService driving.AskService,
	opts domain.AskOptions,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		sources:    list.NewSourceList(s),
		statusbar:  status.NewBar(s, km),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Spinner)),
		viewport:   viewport.New(80, 24-reservedLines),
		askService: askService,
		options:    opts,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
	v.refreshTranscript()
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadStatus())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.StatusLoaded:
		v.statusbar.SetEngineStatus(msg.Status)
		return v, nil

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refreshTranscript()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Clear):
		v.clear()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Submit):
		return v.submit()

	case keymap.Matches(keyStr, v.keymap.ScrollUp), keymap.Matches(keyStr, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case keymap.Matches(keyStr, v.keymap.Help):
		v.showHelp = !v.showHelp
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the current question unless one is already in flight.
func (v *View) submit() (*View, tea.Cmd) {
	if v.thinking {
		return v, nil
	}
	question := v.input.Value()
	if question == "" {
		return v, nil
	}

	v.thinking = true
	v.pending = question
	v.input.Reset()
	v.statusbar.SetState(status.StateThinking)
	v.refreshTranscript()

	return v, tea.Batch(v.spinner.Tick, v.ask(question))
}

// ask runs the question against the engine.
func (v *View) ask(question string) tea.Cmd {
	return func() tea.Msg {
		if v.askService == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoAskService}
		}
		answer, err := v.askService.Ask(v.ctx, question, v.options)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

// loadStatus reads the engine status for the status bar.
func (v *View) loadStatus() tea.Cmd {
	return func() tea.Msg {
		if v.askService == nil {
			return messages.StatusLoaded{}
		}
		return messages.StatusLoaded{Status: v.askService.Status()}
	}
}

// handleAnswer appends an answer to the transcript.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.thinking = false
	v.pending = ""
	v.history = append(v.history, exchange{question: msg.Question, answer: msg.Answer, err: msg.Err})

	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		v.sources.SetSources(nil)
	} else {
		v.statusbar.SetState(status.StateAnswered)
		v.statusbar.SetMessage("")
		if msg.Answer != nil {
			v.sources.SetSources(msg.Answer.Sources)
		}
	}

	v.SetDimensions(v.width, v.height)
}

// clear empties the input, the transcript and the sources.
func (v *View) clear() {
	v.input.Reset()
	if !v.thinking {
		v.history = nil
		v.sources.SetSources(nil)
		v.statusbar.Clear()
	}
	v.SetDimensions(v.width, v.height)
}

// refreshTranscript re-renders the transcript into the viewport.
func (v *View) refreshTranscript() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.history) == 0 && !v.thinking {
		return v.styles.Muted.Render("Ask the Sage anything about spells, monsters or the rules.")
	}

	wrap := v.styles.Answer.Width(v.contentWidth())
	blocks := make([]string, 0, len(v.history)+1)
	for _, ex := range v.history {
		var b strings.Builder
		b.WriteString(v.styles.Question.Render("> " + ex.question))
		b.WriteString("\n")
		switch {
		case ex.err != nil:
			b.WriteString(v.styles.Error.Width(v.contentWidth()).Render("Error: " + ex.err.Error()))
		case ex.answer != nil:
			b.WriteString(wrap.Render(ex.answer.Answer))
		}
		blocks = append(blocks, b.String())
	}

	if v.thinking {
		blocks = append(blocks,
			v.styles.Question.Render("> "+v.pending)+"\n"+
				v.spinner.View()+v.styles.Muted.Render(" The Sage is thinking..."))
	}

	return strings.Join(blocks, "\n\n")
}

func (v *View) contentWidth() int {
	if v.width < 20 {
		return 20
	}
	return v.width - 2
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 6)
	sections = append(sections,
		v.styles.Title.Render("Sage's Oracle")+"  "+v.styles.Muted.Render("D&D 5e SRD assistant"),
		v.viewport.View(),
	)
	if src := v.sources.View(); src != "" {
		sections = append(sections, src)
	}
	sections = append(sections, v.input.View())
	if v.showHelp {
		sections = append(sections, v.renderHelp())
	}
	sections = append(sections, v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderHelp() string {
	var lines []string
	for _, group := range v.keymap.FullHelp() {
		hints := make([]string, 0, len(group))
		for _, b := range group {
			h := b.Help()
			hints = append(hints, h.Key+" "+h.Desc)
		}
		lines = append(lines, strings.Join(hints, "   "))
	}
	return v.styles.Help.Render(strings.Join(lines, "\n"))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.sources.SetWidth(width)

	transcript := height - reservedLines - len(v.sources.Sources())
	if transcript < 3 {
		transcript = 3
	}
	v.viewport.Width = width
	v.viewport.Height = transcript
	v.refreshTranscript()
}

// Thinking reports whether a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// Input returns the question input.
func (v *View) Input() *input.QuestionInput {
	return v.input
}

// StatusBar returns the status bar.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}

// Sources returns the sources of the latest answer.
func (v *View) Sources() []domain.Source {
	return v.sources.Sources()
}
