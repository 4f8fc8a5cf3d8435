package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

// Options configures an AppModel.
type Options struct {
	// Name labels the status bar before the first workflow arrives.
	Name string

	// Refresh fetches the workflow on demand when r is pressed. Nil
	// disables the key.
	Refresh func(ctx context.Context) (*workflow.Workflow, error)

	// Warn reports layout diagnostics to Reporter.
	Warn     bool
	Reporter dag.Reporter

	// NoColor disables ANSI colors in the graph.
	NoColor bool
}

// AppModel is the root bubbletea model: a graph pane above a three-layer
// inspector.
type AppModel struct {
	Keys   KeyMap
	Graph  GraphView
	Detail DetailPanel

	opts Options

	workflow   *workflow.Workflow
	placements []dag.Placement[workflow.Group]
	index      *dag.Index[workflow.Group]
	signature  string
	laidOut    bool
	layouts    int // layout computations, for tests

	layer      Layer
	taskCursor int

	stale     bool
	fetchedAt time.Time
	lastErr   error
	done      bool

	width  int
	height int

	// now is replaced in tests.
	now func() time.Time
}

// NewAppModel returns a model with default keys and sizes.
func NewAppModel(opts Options) AppModel {
	m := AppModel{
		Keys:   DefaultKeyMap(),
		Graph:  NewGraphView(80, 12),
		Detail: NewDetailPanel(80, 10),
		opts:   opts,
		width:  80,
		height: 24,
		now:    time.Now,
	}
	m.Graph.SetColor(!opts.NoColor)
	m.Detail.SetEmpty("no workflow loaded")
	return m
}

// Init implements tea.Model.
func (m AppModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.redraw()
		return m, nil

	case MsgWorkflow:
		if msg.Update.Err != nil {
			m.lastErr = msg.Update.Err
			return m, nil
		}
		m.lastErr = nil
		m.stale = false
		m.fetchedAt = msg.Update.At
		m.apply(msg.Update.Workflow)
		return m, nil

	case MsgStale:
		m.stale = true
		m.fetchedAt = msg.FetchedAt
		m.apply(msg.Workflow)
		return m, nil

	case MsgFeedDone:
		m.done = true
		if msg.Err != nil {
			m.lastErr = msg.Err
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Refresh):
		return m, m.refreshCmd()

	case key.Matches(msg, m.Keys.Up):
		switch m.layer {
		case LayerWorkflow:
			m.Graph.MoveUp()
		case LayerGroup:
			if m.taskCursor > 0 {
				m.taskCursor--
			}
		}
		m.updateDetail(true)

	case key.Matches(msg, m.Keys.Down):
		switch m.layer {
		case LayerWorkflow:
			m.Graph.MoveDown()
		case LayerGroup:
			if g, ok := m.selectedGroup(); ok && m.taskCursor < len(g.Tasks)-1 {
				m.taskCursor++
			}
		}
		m.updateDetail(true)

	case key.Matches(msg, m.Keys.Enter):
		m.drillIn()

	case key.Matches(msg, m.Keys.Back):
		m.backOut()

	default:
		m.Detail.Update(msg)
	}
	return m, nil
}

func (m *AppModel) drillIn() {
	switch m.layer {
	case LayerWorkflow:
		if _, ok := m.selectedGroup(); ok {
			m.layer = LayerGroup
			m.taskCursor = 0
			m.updateDetail(false)
		}
	case LayerGroup:
		if g, ok := m.selectedGroup(); ok && len(g.Tasks) > 0 {
			m.layer = LayerTask
			m.updateDetail(false)
		}
	}
}

func (m *AppModel) backOut() {
	switch m.layer {
	case LayerTask:
		m.layer = LayerGroup
	case LayerGroup:
		m.layer = LayerWorkflow
	default:
		return
	}
	m.updateDetail(false)
}

// refreshCmd fetches the workflow off the update loop.
func (m AppModel) refreshCmd() tea.Cmd {
	refresh := m.opts.Refresh
	if refresh == nil {
		return nil
	}
	now := m.now
	return func() tea.Msg {
		w, err := refresh(context.Background())
		return MsgWorkflow{Update: workflow.Update{Workflow: w, Err: err, At: now()}}
	}
}

// apply installs w. The layout is recomputed only when the graph shape
// changed; status-only updates reuse the previous placements.
func (m *AppModel) apply(w *workflow.Workflow) {
	if w == nil {
		return
	}
	m.workflow = w

	if sig := w.Signature(); !m.laidOut || sig != m.signature {
		opts := []dag.Option{dag.WithWarnings(m.opts.Warn)}
		if m.opts.Reporter != nil {
			opts = append(opts, dag.WithReporter(m.opts.Reporter))
		}
		m.placements = w.Layout(opts...)
		m.index = dag.NewIndex(m.placements)
		m.signature = sig
		m.laidOut = true
		m.layouts++
	}
	m.redraw()
}

// redraw re-renders the graph and inspector after data or size changes,
// falling back a layer when the selection disappeared.
func (m *AppModel) redraw() {
	if m.workflow == nil {
		return
	}
	prev := m.Graph.Selected()
	m.Graph.SetLayout(m.workflow, m.placements)

	if m.layer != LayerWorkflow {
		g, ok := m.selectedGroup()
		switch {
		case !ok || g.Name != prev:
			m.layer = LayerWorkflow
		case len(g.Tasks) == 0:
			m.taskCursor = 0
			if m.layer == LayerTask {
				m.layer = LayerGroup
			}
		case m.taskCursor >= len(g.Tasks):
			m.taskCursor = len(g.Tasks) - 1
		}
	}
	m.updateDetail(true)
}

// selectedGroup returns the live data of the group under the graph cursor.
func (m AppModel) selectedGroup() (workflow.Group, bool) {
	if m.workflow == nil {
		return workflow.Group{}, false
	}
	id := m.Graph.Selected()
	if id == "" {
		return workflow.Group{}, false
	}
	return m.workflow.Group(id)
}

func (m *AppModel) updateDetail(keep bool) {
	if m.workflow == nil {
		return
	}
	now := m.now()

	switch m.layer {
	case LayerGroup:
		g, _ := m.selectedGroup()
		p, _ := m.Graph.SelectedPlacement()
		header, body := FormatGroupDetail(g, p, m.index, m.taskCursor, now)
		m.Detail.SetContent("Group", header, body, keep)
	case LayerTask:
		g, ok := m.selectedGroup()
		if !ok || m.taskCursor >= len(g.Tasks) {
			m.layer = LayerWorkflow
			m.updateDetail(keep)
			return
		}
		header, body := FormatTaskDetail(g, g.Tasks[m.taskCursor], now)
		m.Detail.SetContent("Task", header, body, keep)
	default:
		header, body := FormatWorkflowSummary(m.workflow, m.placements, now)
		m.Detail.SetContent("Workflow", header, body, keep)
	}
}

// resize splits the height between graph and inspector, leaving room for
// the status bar, the selection line, the footer and the panel border.
func (m *AppModel) resize() {
	avail := m.height - 6
	if avail < 4 {
		avail = 4
	}
	graph := avail / 2
	m.Graph.SetSize(m.width, graph)
	m.Detail.SetSize(m.width-4, avail-graph)
}

// Layer returns the current inspector layer.
func (m AppModel) Layer() Layer { return m.layer }

// View implements tea.Model.
func (m AppModel) View() string {
	footer := Footer{
		Width:    m.width,
		Bindings: footerBindings(m.Keys, m.layer, m.opts.Refresh != nil),
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusBar(),
		m.Graph.View(),
		m.Detail.View(),
		footer.View(),
	)
}

func (m AppModel) statusBar() string {
	name := m.opts.Name
	if m.workflow != nil {
		name = m.workflow.Name
	}

	var b strings.Builder
	b.WriteString(styleStatusLabel.Render("flowlane"))
	b.WriteString(" ")
	b.WriteString(styleStatusValue.Render(name))
	if m.workflow != nil {
		b.WriteString("  ")
		b.WriteString(formatStatus(m.workflow.Status))
		b.WriteString(styleStatusValue.Render(fmt.Sprintf("  %d groups  %d tasks", len(m.workflow.Groups), m.workflow.TaskCount())))
	}
	if m.stale {
		b.WriteString("  ")
		b.WriteString(styleStatusStale.Render(fmt.Sprintf("%s stale since %s", iconStale, m.fetchedAt.Local().Format(time.TimeOnly))))
	}
	if m.done {
		b.WriteString(styleStatusValue.Render("  (final)"))
	}
	if m.lastErr != nil {
		b.WriteString("  ")
		b.WriteString(styleStatusError.Render(iconFailed + " " + m.lastErr.Error()))
	}
	return styleStatusBar.Width(m.width).Render(b.String())
}
