package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orthoroute/pkg/geom"
	"github.com/matzehuels/orthoroute/pkg/scene"
)

// inspectCommand opens a routed layout in an interactive browser.
func (c *CLI) inspectCommand() *cobra.Command {
	var fromScene bool

	cmd := &cobra.Command{
		Use:   "inspect [layout.json]",
		Short: "Browse the edges and channels of a routed layout",
		Example: `  orthoroute inspect diagram.json
  orthoroute inspect --scene diagram.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				layout *scene.Layout
				err    error
			)
			if fromScene {
				layout, err = c.routeForInspect(cmd, args[0])
			} else {
				layout, err = scene.ImportLayout(args[0])
			}
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(newInspectModel(layout), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().BoolVar(&fromScene, "scene", false, "the argument is a scene to route first")
	return cmd
}

func (c *CLI) routeForInspect(cmd *cobra.Command, path string) (*scene.Layout, error) {
	s, err := scene.ImportScene(path)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(cmd.Context(), false)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	opts := c.baseOptions()
	if err := opts.ValidateForRoute(); err != nil {
		return nil, err
	}
	layout, _, err := runner.Route(cmd.Context(), s, opts)
	return layout, err
}

// =============================================================================
// inspectModel - Interactive layout browser
// =============================================================================

type inspectTab int

const (
	tabEdges inspectTab = iota
	tabChannels
)

var (
	listDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	tabActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
	detailStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	fullStyle      = lipgloss.NewStyle().Foreground(colorYellow)
)

type inspectModel struct {
	layout *scene.Layout
	tab    inspectTab
	cursor [2]int
	offset [2]int
	height int
}

func newInspectModel(l *scene.Layout) inspectModel {
	return inspectModel{layout: l, height: 12}
}

func (m inspectModel) rows() int {
	if m.tab == tabEdges {
		return len(m.layout.Edges)
	}
	return len(m.layout.Channels)
}

func (m inspectModel) Init() tea.Cmd { return nil }

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		t := m.tab
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "left", "right", "h", "l":
			m.tab = 1 - m.tab
		case "up", "k":
			if m.cursor[t] > 0 {
				m.cursor[t]--
				if m.cursor[t] < m.offset[t] {
					m.offset[t] = m.cursor[t]
				}
			}
		case "down", "j":
			if m.cursor[t] < m.rows()-1 {
				m.cursor[t]++
				if m.cursor[t] >= m.offset[t]+m.height {
					m.offset[t] = m.cursor[t] - m.height + 1
				}
			}
		case "home", "g":
			m.cursor[t], m.offset[t] = 0, 0
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-16, 5)
	}
	return m, nil
}

func (m inspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Layout " + shortID(m.layout.ID)))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d boxes · %d edges · %d channels · %d bends · %d crossings",
		len(m.layout.Boxes), len(m.layout.Edges), len(m.layout.Channels), m.layout.Stats.Bends, m.layout.Stats.Crossings)))
	b.WriteString("\n\n")

	edges, channels := "Edges", "Channels"
	if m.tab == tabEdges {
		edges = tabActiveStyle.Render(edges)
		channels = listDimStyle.Render(channels)
	} else {
		edges = listDimStyle.Render(edges)
		channels = tabActiveStyle.Render(channels)
	}
	b.WriteString(edges + "   " + channels + "\n")

	if m.tab == tabEdges {
		b.WriteString(m.edgeTable())
		b.WriteString("\n")
		b.WriteString(m.edgeDetail())
	} else {
		b.WriteString(m.channelTable())
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  ↑/↓ navigate  tab switch  q quit", m.cursor[m.tab]+1, m.rows())))
	return b.String()
}

func (m inspectModel) window() (int, int) {
	start := m.offset[m.tab]
	return start, min(start+m.height, m.rows())
}

func (m inspectModel) edgeTable() string {
	start, end := m.window()
	var rows [][]string
	for i := start; i < end; i++ {
		e := m.layout.Edges[i]
		kind := strconv.Itoa(e.Bends)
		if e.SelfLoop {
			kind = "loop"
		}
		rows = append(rows, []string{cursorMark(i == m.cursor[tabEdges]), e.From, e.To, e.Label, kind, strconv.Itoa(len(e.Points))})
	}
	return m.table(rows, start, []string{"", "From", "To", "Label", "Bends", "Points"}, nil)
}

func (m inspectModel) edgeDetail() string {
	if len(m.layout.Edges) == 0 {
		return listDimStyle.Render("no edges")
	}
	e := m.layout.Edges[m.cursor[tabEdges]]
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", StyleValue.Render(e.From), iconArrow, StyleValue.Render(e.To))
	if e.Label != "" {
		fmt.Fprintf(&b, "  %s", StyleDim.Render(e.Label))
	}
	if e.SelfLoop {
		b.WriteString("\n" + StyleWarning.Render("self-loop, not routed"))
		return detailStyle.Render(b.String())
	}
	b.WriteString("\n" + formatPath(e.Points))
	return detailStyle.Render(b.String())
}

func (m inspectModel) channelTable() string {
	start, end := m.window()
	var rows [][]string
	for i := start; i < end; i++ {
		ch := m.layout.Channels[i]
		rows = append(rows, []string{
			cursorMark(i == m.cursor[tabChannels]),
			strconv.Itoa(i),
			ch.Orientation,
			formatRect(ch.Rect),
			strconv.Itoa(ch.Slots),
			strconv.Itoa(ch.Capacity),
		})
	}
	full := func(i int) bool {
		ch := m.layout.Channels[i]
		return ch.Slots > 0 && ch.Slots >= ch.Capacity
	}
	return m.table(rows, start, []string{"", "#", "Orient", "Rect", "Slots", "Capacity"}, full)
}

// table renders rows starting at list index start. Rows for which
// highlight returns true are drawn in the warning color.
func (m inspectModel) table(rows [][]string, start int, headers []string, highlight func(int) bool) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := start + row
			style := StyleValue
			if highlight != nil && highlight(idx) {
				style = fullStyle
			}
			if idx == m.cursor[m.tab] {
				return style.Bold(true).Foreground(colorGreen)
			}
			return style
		}).
		Render()
}

func cursorMark(selected bool) string {
	if selected {
		return "▸"
	}
	return " "
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatPoint(p geom.Point) string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

func formatRect(r geom.Rect) string {
	return formatPoint(r.Min) + "–" + formatPoint(r.Max)
}

// formatPath lists the points of a polyline, wrapping every four points.
func formatPath(pts []geom.Point) string {
	var b strings.Builder
	for i, p := range pts {
		switch {
		case i == 0:
		case i%4 == 0:
			b.WriteString("\n" + iconArrow + " ")
		default:
			b.WriteString(" " + iconArrow + " ")
		}
		b.WriteString(formatPoint(p))
	}
	return b.String()
}
