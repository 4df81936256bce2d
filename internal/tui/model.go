// Package tui is the interactive terminal interface. It drives the view
// state from internal/app and runs generation requests as tea commands so
// the interface stays responsive while a provider call is retried.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/ppiankov/enquete/internal/app"
	"github.com/ppiankov/enquete/internal/cases"
	"github.com/ppiankov/enquete/internal/model"
	"github.com/ppiankov/enquete/internal/notice"
)

// PrivacyBanner is shown on every screen
const PrivacyBanner = "Anonymisation active : les noms précédés d'une civilité et les sigles sont masqués avant tout envoi à l'IA."

// Planner is the generation surface used by the interface
type Planner interface {
	GeneratePlan(ctx context.Context, infraction, modusOperandi string) ([]model.InvestigationStep, error)
	SuggestNextSteps(ctx context.Context, infraction string, steps []model.InvestigationStep) ([]model.InvestigationStep, error)
	DraftDocument(ctx context.Context, step model.InvestigationStep, infraction, modusOperandi string) (string, error)
}

type (
	planDoneMsg struct {
		form  app.CaseForm
		steps []model.InvestigationStep
		err   error
	}

	suggestDoneMsg struct {
		caseID string
		steps  []model.InvestigationStep
		err    error
	}

	draftDoneMsg struct {
		caseID string
		title  string
		text   string
		err    error
	}

	// noticeExpiredMsg hides the notice it was scheduled for, not a newer one
	noticeExpiredMsg struct {
		seq int
	}
)

// Option configures a Model
type Option func(*Model)

// WithClock overrides the time source used for notices
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithDraftStyle selects the glamour style used to render drafts
func WithDraftStyle(style string) Option {
	return func(m *Model) { m.draftStyle = style }
}

// Model is the bubbletea model of the application
type Model struct {
	ctx        context.Context
	cases      *cases.Service
	planner    Planner
	logger     *zap.Logger
	now        func() time.Time
	styles     Styles
	draftStyle string

	state     app.State
	pending   *app.Pending
	notice    *notice.Notice
	noticeSeq int
	flash     string

	width  int
	height int

	// dashboard
	cursor        int
	statusFilter  model.Status
	search        textinput.Model
	searching     bool
	confirmDelete string

	// editor
	infraction  textinput.Model
	modus       textarea.Model
	category    int
	editorFocus int

	// roadmap
	stepCursor int
	result     textarea.Model
	stepFields [stepFieldCount]textinput.Model
	priority   int
	addFocus   int
	draft      viewport.Model
	draftText  string

	spinner spinner.Model
}

// New creates the model over an already loaded case service
func New(ctx context.Context, svc *cases.Service, planner Planner, opts ...Option) *Model {
	m := &Model{
		ctx:        ctx,
		cases:      svc,
		planner:    planner,
		logger:     zap.NewNop(),
		now:        time.Now,
		styles:     DefaultStyles(),
		draftStyle: "notty",
		state:      app.Initial(),
		pending:    &app.Pending{},
		search:     textinput.New(),
		infraction: textinput.New(),
		modus:      textarea.New(),
		result:     textarea.New(),
		draft:      viewport.New(80, 20),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.search.Placeholder = "infraction, mode opératoire ou catégorie"
	m.search.Prompt = "/ "

	m.infraction.Placeholder = "Ex : Vols sériels, cambriolage..."
	m.infraction.CharLimit = 200
	m.modus.Placeholder = "Décrivez les faits constatés"
	m.modus.ShowLineNumbers = false
	m.modus.SetHeight(5)

	m.result.Placeholder = "Résultats constatés"
	m.result.ShowLineNumbers = false
	m.result.SetHeight(3)

	placeholders := [stepFieldCount]string{"Intitulé de l'acte", "Description", "Base légale (ex : Art. 60 CPP)"}
	for i := range m.stepFields {
		m.stepFields[i] = textinput.New()
		m.stepFields[i].Placeholder = placeholders[i]
	}

	return m
}

// State returns the current view state
func (m *Model) State() app.State {
	return m.state
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.pending.Any() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case noticeExpiredMsg:
		if m.notice != nil && msg.seq == m.noticeSeq {
			m.notice = nil
		}
		return m, nil

	case planDoneMsg:
		return m, m.planDone(msg)

	case suggestDoneMsg:
		return m, m.suggestDone(msg)

	case draftDoneMsg:
		return m, m.draftDone(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.flash = ""

		switch st := m.state.(type) {
		case app.Dashboard:
			return m, m.updateDashboard(msg, st)
		case app.Editor:
			return m, m.updateEditor(msg)
		case app.Roadmap:
			return m, m.updateRoadmap(msg, st)
		}
	}

	return m, m.forward(msg)
}

// forward passes non-key messages such as cursor blinks to the focused widgets
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.search, cmd = m.search.Update(msg)
	cmds = append(cmds, cmd)
	m.infraction, cmd = m.infraction.Update(msg)
	cmds = append(cmds, cmd)
	m.modus, cmd = m.modus.Update(msg)
	cmds = append(cmds, cmd)
	m.result, cmd = m.result.Update(msg)
	cmds = append(cmds, cmd)
	for i := range m.stepFields {
		m.stepFields[i], cmd = m.stepFields[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	inner := max(width-6, 20)
	m.search.Width = inner
	m.infraction.Width = inner
	m.modus.SetWidth(inner)
	m.result.SetWidth(inner)
	for i := range m.stepFields {
		m.stepFields[i].Width = inner
	}

	m.draft.Width = inner
	m.draft.Height = max(height-10, 5)
	if m.draftText != "" {
		m.draft.SetContent(m.renderDraft(m.draftText))
	}
}

// transition applies a state change, keeping the current state when it does not apply
func (m *Model) transition(next app.State, err error) bool {
	if err != nil {
		m.logger.Debug("transition ignored", zap.Error(err))
		return false
	}
	m.state = next
	return true
}

// fail shows the notice for a generation error and schedules its dismissal
func (m *Model) fail(err error) tea.Cmd {
	n := notice.New(err, m.now())
	m.logger.Error("generation failed", zap.String("kind", n.Kind.String()), zap.Error(err))

	m.notice = &n
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(notice.DismissAfter, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// storageFailed reports a case store error on the status line
func (m *Model) storageFailed(err error) {
	m.logger.Error("case update failed", zap.Error(err))
	m.flash = "✗ " + err.Error()
}

// begin starts a generation request of kind a unless one is already running
func (m *Model) begin(a app.Action, cmd tea.Cmd) tea.Cmd {
	if !m.pending.Begin(a) {
		m.flash = "Une génération est déjà en cours."
		return nil
	}
	m.notice = nil
	return tea.Batch(m.spinner.Tick, cmd)
}

func (m *Model) planCmd(form app.CaseForm) tea.Cmd {
	ctx, p := m.ctx, m.planner
	return func() tea.Msg {
		steps, err := p.GeneratePlan(ctx, form.Infraction, form.ModusOperandi)
		return planDoneMsg{form: form, steps: steps, err: err}
	}
}

func (m *Model) suggestCmd(c model.CaseData) tea.Cmd {
	ctx, p := m.ctx, m.planner
	return func() tea.Msg {
		steps, err := p.SuggestNextSteps(ctx, c.Infraction, c.Steps)
		return suggestDoneMsg{caseID: c.ID, steps: steps, err: err}
	}
}

func (m *Model) draftCmd(c model.CaseData, step model.InvestigationStep) tea.Cmd {
	ctx, p := m.ctx, m.planner
	return func() tea.Msg {
		text, err := p.DraftDocument(ctx, step, c.Infraction, c.ModusOperandi)
		return draftDoneMsg{caseID: c.ID, title: step.Title, text: text, err: err}
	}
}

// planDone stores the new case and opens it if the editor is still shown
func (m *Model) planDone(msg planDoneMsg) tea.Cmd {
	m.pending.End(app.ActionPlan)
	if msg.err != nil {
		return m.fail(msg.err)
	}

	c, err := m.cases.Create(m.ctx, msg.form.Infraction, msg.form.Category, msg.form.ModusOperandi, msg.steps)
	if err != nil {
		m.storageFailed(err)
		return nil
	}

	if _, inEditor := m.state.(app.Editor); inEditor {
		m.resetEditor()
		if m.transition(app.OpenCase(m.state, c.ID)) {
			m.stepCursor = 0
		}
	}
	return nil
}

// suggestDone appends the suggested steps to the case they were asked for
func (m *Model) suggestDone(msg suggestDoneMsg) tea.Cmd {
	m.pending.End(app.ActionSuggest)
	if msg.err != nil {
		return m.fail(msg.err)
	}
	if len(msg.steps) == 0 {
		m.flash = "Aucun acte complémentaire proposé."
		return nil
	}

	if _, err := m.cases.AppendSteps(m.ctx, msg.caseID, msg.steps); err != nil {
		m.storageFailed(err)
	}
	return nil
}

// draftDone shows the draft only while its case is still on screen
func (m *Model) draftDone(msg draftDoneMsg) tea.Cmd {
	m.pending.End(app.ActionDraft)
	if msg.err != nil {
		return m.fail(msg.err)
	}

	if id, ok := app.CurrentCase(m.state); !ok || id != msg.caseID {
		m.logger.Debug("draft dropped, case no longer shown", zap.String("case", msg.caseID))
		return nil
	}
	if m.transition(app.ShowDraft(m.state, msg.title, msg.text)) {
		m.draftText = msg.text
		m.draft.SetContent(m.renderDraft(msg.text))
		m.draft.GotoTop()
	}
	return nil
}

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("ENQUÊTE · Assistant OPJ"))
	b.WriteString("\n")
	b.WriteString(m.styles.Banner.Render(PrivacyBanner))
	b.WriteString("\n")

	if m.notice != nil {
		style := m.styles.Technical
		if m.notice.Kind == notice.KindQuota {
			style = m.styles.Quota
		}
		b.WriteString(style.Render(m.notice.Message))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch st := m.state.(type) {
	case app.Dashboard:
		b.WriteString(m.viewDashboard(st))
	case app.Editor:
		b.WriteString(m.viewEditor())
	case app.Roadmap:
		b.WriteString(m.viewRoadmap(st))
	}

	if m.flash != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(m.flash))
	}
	return b.String()
}
