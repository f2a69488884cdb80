// Package watchtui is the live terminal viewer over a syncing session: a
// read-only list of projected groups and rows with row selection and a sort
// direction toggle.
package watchtui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/strato-space/voicesync/internal/models"
	"github.com/strato-space/voicesync/internal/projection"
	"github.com/strato-space/voicesync/internal/syncer"
	"github.com/strato-space/voicesync/internal/timeline"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	summaryStyle  = lipgloss.NewStyle().Faint(true)
	avatarStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	markedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	imageStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	categoryStyle = lipgloss.NewStyle()
	statusStyle   = lipgloss.NewStyle().Faint(true)
)

type projectionChangedMsg struct{}

// entry is one selectable line: a row plus its position in the group list.
type entry struct {
	groupIndex int
	row        projection.Row
}

// Model is the bubbletea model for the watch view.
type Model struct {
	source *syncer.Syncer

	selection *projection.Selection
	ascending bool
	// sortOverridden is set once the user toggles direction manually; the
	// session-derived default stops applying from then on.
	sortOverridden bool
	showTimestamps bool

	cursor  int
	width   int
	height  int
	changes chan struct{}

	session models.Session
	groups  []projection.Group
	entries []entry
}

// New builds a watch model over the syncer. The model registers itself as
// the syncer's change listener.
func New(source *syncer.Syncer, showTimestamps bool) *Model {
	m := &Model{
		source:         source,
		selection:      projection.NewSelection(),
		showTimestamps: showTimestamps,
		changes:        make(chan struct{}, 1),
	}
	source.OnChange(func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	m.refresh()
	return m
}

// Init starts listening for projection changes.
func (m *Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return projectionChangedMsg{}
	}
}

// refresh pulls the current projection and re-sorts it for display.
func (m *Model) refresh() {
	m.session = m.source.Session()
	m.groups = m.source.Groups()
	if !m.sortOverridden {
		m.ascending = projection.DefaultAscending(m.session)
	}
	orderingID := m.session.OrderingID
	projection.SortGroups(m.groups, m.ascending, m.session.Source, func(g projection.Group) string {
		if orderingID != "" {
			return orderingID + ":" + g.MessageID
		}
		return g.MessageID
	})

	m.entries = m.entries[:0]
	for i, group := range m.groups {
		for _, row := range group.Rows {
			m.entries = append(m.entries, entry{groupIndex: i, row: row})
		}
	}
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Update handles input and change notifications.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case projectionChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "g":
			m.cursor = 0
		case "G":
			if len(m.entries) > 0 {
				m.cursor = len(m.entries) - 1
			}
		case " ":
			if m.cursor < len(m.entries) {
				m.selection.Toggle(m.entries[m.cursor].row.Key())
			}
		case "s":
			m.ascending = !m.ascending
			m.sortOverridden = true
			m.refresh()
		}
	}
	return m, nil
}

// View renders the group list with the status line at the bottom.
func (m *Model) View() string {
	var b strings.Builder

	lastGroup := -1
	for i, e := range m.entries {
		if e.groupIndex != lastGroup {
			lastGroup = e.groupIndex
			group := m.groups[e.groupIndex]
			b.WriteString(m.renderGroupHeader(group))
			b.WriteByte('\n')
		}
		b.WriteString(m.renderRow(e.row, i == m.cursor))
		b.WriteByte('\n')
	}

	if len(m.entries) == 0 {
		b.WriteString(summaryStyle.Render("no messages yet"))
		b.WriteByte('\n')
	}

	b.WriteString(m.renderStatus())
	return b.String()
}

func (m *Model) renderGroupHeader(group projection.Group) string {
	header := headerStyle.Render(group.MessageID)
	if group.MaterialGroupID != "" {
		header += " " + summaryStyle.Render("[material "+group.MaterialGroupID+"]")
	}
	if group.Summary != "" {
		header += " " + summaryStyle.Render(group.Summary)
	}
	return header
}

func (m *Model) renderRow(row projection.Row, active bool) string {
	var parts []string
	if m.showTimestamps {
		parts = append(parts, fmt.Sprintf("%8s-%-8s", timeline.LabelSeconds(row.Start), timeline.LabelSeconds(row.End)))
	}

	switch row.Kind {
	case projection.RowImage:
		name := row.ImageName
		if name == "" {
			name = row.ImageURI
		}
		parts = append(parts, imageStyle.Render("[img] "+name))
	default:
		if row.Avatar != "" {
			parts = append(parts, avatarStyle.Render(row.Avatar))
		}
		text := row.Text
		if row.Keyword != "" {
			text += " #" + row.Keyword
		}
		parts = append(parts, categoryStyle.Render(text))
	}

	line := "  " + strings.Join(parts, " ")
	if m.selection.Marked(row.Key()) {
		line = markedStyle.Render("*") + line[1:]
	}
	if active {
		return cursorStyle.Render(line)
	}
	return line
}

func (m *Model) renderStatus() string {
	direction := "desc"
	if m.ascending {
		direction = "asc"
	}
	state := "closed"
	if m.session.IsActive {
		state = "live"
	}
	return statusStyle.Render(fmt.Sprintf(
		"%s [%s] rows:%d marked:%d sort:%s  j/k move  space mark  s sort  q quit",
		m.session.Name, state, len(m.entries), m.selection.Len(), direction))
}
