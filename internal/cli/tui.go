package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/superrelativity/relgraph/pkg/graph"
	"github.com/superrelativity/relgraph/pkg/layout"
	"github.com/superrelativity/relgraph/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listReverseStyle  = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// BrowseModel - Interactive collapse/expand of a layout
// =============================================================================

// treeRow is one visible node in display order.
type treeRow struct {
	node  graph.LayoutNode
	depth int
}

// BrowseModel is the bubbletea model for browsing a layout as a tree.
type BrowseModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	state  *layout.State

	Rows   []treeRow
	Cursor int
	Height int
	Offset int
}

// NewBrowseModel creates a browse model over state. Toggles go through
// runner so they reach the pipeline hooks.
func NewBrowseModel(ctx context.Context, runner *pipeline.Runner, state *layout.State) BrowseModel {
	m := BrowseModel{
		ctx:    ctx,
		runner: runner,
		state:  state,
		Height: 20,
	}
	m.refresh("")
	return m
}

// Selected returns the id under the cursor.
func (m BrowseModel) Selected() string {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return ""
	}
	return m.Rows[m.Cursor].node.ID
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ", "space":
			if id := m.Selected(); id != "" {
				m.runner.Toggle(m.ctx, m.state, id)
				m.refresh(id)
			}
		case "e":
			id := m.Selected()
			m.state.ExpandAll()
			m.refresh(id)
		case "c":
			id := m.Selected()
			m.state.CollapseAll()
			m.refresh(id)
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// refresh rebuilds the rows and keeps the cursor on keep when it is still
// visible.
func (m *BrowseModel) refresh(keep string) {
	m.Rows = visibleTree(m.state.Layout())
	m.Cursor = min(m.Cursor, max(len(m.Rows)-1, 0))
	for i, r := range m.Rows {
		if r.node.ID == keep {
			m.Cursor = i
			break
		}
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// visibleTree orders the visible nodes depth-first along primary parents.
// Nodes whose parent chain is cyclic are appended at depth 0.
func visibleTree(l graph.Layout) []treeRow {
	children := make(map[string][]int)
	var roots []int
	for i, n := range l.Nodes {
		if n.ParentID == "" {
			roots = append(roots, i)
			continue
		}
		children[n.ParentID] = append(children[n.ParentID], i)
	}

	seen := make([]bool, len(l.Nodes))
	var rows []treeRow
	var walk func(i, depth int)
	walk = func(i, depth int) {
		if seen[i] {
			return
		}
		seen[i] = true
		n := l.Nodes[i]
		if n.Hidden {
			return
		}
		rows = append(rows, treeRow{node: n, depth: depth})
		for _, c := range children[n.ID] {
			walk(c, depth+1)
		}
	}
	for _, i := range roots {
		walk(i, 0)
	}
	for i := range l.Nodes {
		walk(i, 0)
	}
	return rows
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Browse Layout"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle  e expand all  c collapse all  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))
	for i := m.Offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	st := m.state.Stats()
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] · %d visible · %d hidden", m.Cursor+1, len(m.Rows), st.Visible, st.Hidden)))
	return b.String()
}

func (m BrowseModel) renderRow(i int) string {
	r := m.Rows[i]
	n := r.node

	cursor := "  "
	if i == m.Cursor {
		cursor = "▸ "
	}

	marker := "·"
	switch {
	case n.Collapsible && n.Collapsed:
		marker = "+"
	case n.Collapsible:
		marker = "-"
	}

	style := listNormalStyle
	if n.IsReverse {
		style = listReverseStyle
	}
	if i == m.Cursor {
		style = listSelectedStyle
	}

	line := cursor + strings.Repeat("  ", r.depth) + marker + " " + style.Render(n.DisplayLabel())
	if n.NodeType != "" {
		line += " " + listDimStyle.Render(n.NodeType)
	}
	if n.IsReverse {
		line += " " + listDimStyle.Render("(reverse)")
	}
	return line
}
