package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/layout"
	"github.com/matzehuels/unformer/pkg/pipeline"
	"github.com/matzehuels/unformer/pkg/render"
	"github.com/matzehuels/unformer/pkg/tree"
)

// exploreCommand opens an interactive module browser.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		in     inputFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "explore [model]",
		Short: "Browse a model interactively",
		Long: `Browse a model interactively.

Modules are listed as the graph shows them. Toggling a module rebuilds the
graph and lays it out in the background; layouts overtaken by a newer toggle
are dropped. Press s to write the current layout to disk.`,
		Example: `  unformer explore openai/gpt2
  unformer explore -f model.json --depth 1`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeModels,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), &in, args, output)
		},
	}

	in.register(cmd, true)
	cmd.Flags().StringVarP(&output, "output", "o", "", "file written by s (default: <model>.layout.json)")
	return cmd
}

func (c *CLI) runExplore(ctx context.Context, in *inputFlags, args []string, output string) error {
	opts, err := c.options(in, args)
	if err != nil {
		return err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if output == "" {
		output = baseName(opts) + ".layout.json"
	}

	runner, err := c.newRunner(ctx, in.origin, in.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	root, err := c.loadTree(ctx, runner, opts)
	if err != nil {
		return err
	}
	adapter, err := pipeline.NewAdapter(opts.Engine, opts.Margin)
	if err != nil {
		return err
	}

	m := newExploreModel(ctx, runner, root, opts, layout.NewScheduler(adapter, c.Logger))
	m.output = output
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err == tea.ErrProgramKilled && ctx.Err() != nil {
		return nil
	}
	return err
}

// =============================================================================
// exploreModel
// =============================================================================

// Explore styles
var (
	exploreCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreRowStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	explorePaneStyle   = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// exploreRow is one visible node of the built graph.
type exploreRow struct {
	id    string
	depth int
	data  *graph.NodeData
}

// layoutMsg carries a scheduler outcome into the update loop.
type layoutMsg struct{ layout.Outcome }

type exploreModel struct {
	ctx       context.Context
	runner    *pipeline.Runner
	root      *tree.Node
	opts      pipeline.Options
	scheduler *layout.Scheduler

	rows   []exploreRow
	cursor int
	offset int
	height int

	pending bool
	status  string
	err     error
	output  string
}

func newExploreModel(ctx context.Context, runner *pipeline.Runner, root *tree.Node, opts pipeline.Options, scheduler *layout.Scheduler) *exploreModel {
	if opts.Expanded == nil {
		opts.Expanded = make(map[string]bool)
	}
	return &exploreModel{
		ctx:       ctx,
		runner:    runner,
		root:      root,
		opts:      opts,
		scheduler: scheduler,
		height:    20,
	}
}

func (m *exploreModel) Init() tea.Cmd {
	return m.rebuild()
}

// rebuild builds the graph for the current expansion state and submits it
// for layout. The cursor stays on the same node when it is still visible.
func (m *exploreModel) rebuild() tea.Cmd {
	g, err := m.runner.Build(m.ctx, m.root, m.opts)
	if err != nil {
		m.err = err
		return nil
	}
	selected := m.selectedID()
	m.rows = exploreRows(g)
	m.cursor = 0
	for i, r := range m.rows {
		if r.id == selected {
			m.cursor = i
			break
		}
	}
	m.scroll()

	m.pending = true
	m.status = fmt.Sprintf("laying out %d nodes...", len(g.Nodes))
	return waitLayout(m.scheduler.Submit(m.ctx, g))
}

func waitLayout(ch <-chan layout.Outcome) tea.Cmd {
	return func() tea.Msg {
		o, ok := <-ch
		if !ok {
			return nil
		}
		return layoutMsg{o}
	}
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.scroll()
	case layoutMsg:
		m.applyLayout(msg.Outcome)
	}
	return m, nil
}

func (m *exploreModel) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.scroll()
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		m.scroll()
	case "enter", " ":
		return m.toggle()
	case "+":
		if err := errors.ValidateAutoDepth(*m.opts.AutoDepth + 1); err != nil {
			m.status = err.Error()
			return nil
		}
		*m.opts.AutoDepth++
		return m.rebuild()
	case "-":
		if *m.opts.AutoDepth > 0 {
			*m.opts.AutoDepth--
			return m.rebuild()
		}
	case "r":
		m.opts.Expanded = make(map[string]bool)
		return m.rebuild()
	case "s":
		m.save()
	}
	return nil
}

// toggle flips the expansion of the selected node.
func (m *exploreModel) toggle() tea.Cmd {
	if len(m.rows) == 0 {
		return nil
	}
	d := m.rows[m.cursor].data
	if !d.HasChildren && !d.Collapsed {
		m.status = d.Label + " has no children"
		return nil
	}
	m.opts.Expanded[d.Path] = !d.Expanded
	return m.rebuild()
}

func (m *exploreModel) applyLayout(o layout.Outcome) {
	m.pending = o.Token != m.scheduler.Token()
	switch {
	case o.Stale:
		return
	case o.Err != nil:
		m.err = o.Err
		m.status = "layout failed, showing the previous one"
	default:
		m.err = nil
		v := render.NewView(o.Graph)
		m.status = fmt.Sprintf("layout #%d · %d nodes · %.0f×%.0f", o.Token, len(v.Nodes), v.Width, v.Height)
	}
}

func (m *exploreModel) save() {
	g := m.scheduler.Latest()
	if g == nil {
		m.status = "no layout yet"
		return
	}
	if err := writeLayout(g, m.output); err != nil {
		m.err = err
		return
	}
	m.status = "saved " + m.output
}

func (m *exploreModel) selectedID() string {
	if m.cursor < len(m.rows) {
		return m.rows[m.cursor].id
	}
	return ""
}

func (m *exploreModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.root.Label()))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s view · depth %d", m.opts.ViewMode, *m.opts.AutoDepth)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ toggle  +/- depth  r reset  s save  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.rowLine(i))
	}
	list := strings.Join(lines, "\n")
	if len(m.rows) > 0 {
		list = lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", m.detail(m.rows[m.cursor]))
	}
	b.WriteString(list)
	b.WriteString("\n\n")

	status := StyleDim.Render(m.status)
	if m.pending {
		status = styleIconSpinner.Render(spinnerFrames[0]) + " " + status
	}
	if m.err != nil {
		status += "\n" + styleIconError.Render(iconError) + " " + m.err.Error()
	}
	b.WriteString(status)
	return b.String()
}

func (m *exploreModel) rowLine(i int) string {
	r := m.rows[i]
	marker := "  "
	switch {
	case r.data.Expanded && (r.data.HasChildren || r.data.Collapsed):
		marker = "▾ "
	case r.data.HasChildren || r.data.Collapsed:
		marker = "▸ "
	}
	line := strings.Repeat("  ", r.depth) + marker + r.data.Label
	if r.data.Repeat > 1 {
		line += fmt.Sprintf(" ×%d", r.data.Repeat)
	}
	if i == m.cursor {
		return exploreCursorStyle.Render(line)
	}
	if r.data.ClassName != "" && r.data.ClassName != r.data.Label {
		return exploreRowStyle.Render(line) + " " + StyleDim.Render(r.data.ClassName)
	}
	return exploreRowStyle.Render(line)
}

// detail renders the side pane for the selected node.
func (m *exploreModel) detail(r exploreRow) string {
	d := r.data
	var lines []string
	add := func(k, v string) {
		lines = append(lines, StyleDim.Render(fmt.Sprintf("%-9s", k))+" "+StyleValue.Render(v))
	}
	add("path", d.Path)
	if d.ClassName != "" {
		add("class", d.ClassName)
	}
	add("kind", string(d.Kind))
	add("role", string(d.Role))
	if d.FlowMode != "" {
		add("flow", string(d.FlowMode))
	}
	if d.Repeat > 1 {
		add("repeat", fmt.Sprintf("%d", d.Repeat))
	}
	if d.Parameters != nil && d.Parameters.Count > 0 {
		add("params", render.FormatCount(d.Parameters.Count))
	}
	if g := m.scheduler.Latest(); g != nil {
		if n, ok := g.Node(r.id); ok {
			add("position", fmt.Sprintf("%.0f,%.0f  %.0f×%.0f", n.X, n.Y, n.Width, n.Height))
		}
	}
	return explorePaneStyle.Render(strings.Join(lines, "\n"))
}

// exploreRows lists the graph's nodes in containment pre-order.
func exploreRows(g *graph.Graph) []exploreRow {
	var rows []exploreRow
	var walk func(s *graph.Scope, depth int)
	walk = func(s *graph.Scope, depth int) {
		if d, ok := g.NodeMap[s.ID]; ok {
			rows = append(rows, exploreRow{id: s.ID, depth: depth, data: d})
		}
		for _, c := range s.Children {
			walk(c, depth+1)
		}
	}
	if g.Root != nil {
		walk(g.Root, 0)
	}
	return rows
}
