// Package ui is the interactive review shown before delete mode runs. It
// lists every duplicate group and asks the user to type a confirmation
// code. The review never deletes anything itself.
package ui

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jdefrancesco/dskDupes/internal/dmap"
	"github.com/jdefrancesco/dskDupes/internal/dsklog"
	"github.com/jdefrancesco/dskDupes/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Styles using Lip Gloss
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("35")).
			Padding(0, 1)

	originalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	markedFileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("240")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)
)

const defaultWidth = 100

// treeNode is either a group header or a file inside a group.
type treeNode struct {
	text     string
	children []*treeNode
	expanded bool
	isFile   bool
	// Duplicates are marked; the original never is.
	marked bool
}

// model holds the state of the review.
type model struct {
	groups   []*treeNode
	flatList []*treeNode
	cursor   int
	width    int

	pending   int
	reclaimed uint64

	showingDialog bool
	dialogInput   string
	dialogCode    string
	dialogError   string

	confirmed bool
	quitting  bool
}

// ConfirmDeletion shows the review and returns true only if the user typed
// the confirmation code.
func ConfirmDeletion(dMap *dmap.Dmap) (bool, error) {
	p := tea.NewProgram(newModel(dMap), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("run review: %w", err)
	}
	m, ok := final.(model)
	return ok && m.confirmed, nil
}

func newModel(dMap *dmap.Dmap) model {
	m := model{
		groups:    buildTree(dMap),
		width:     defaultWidth,
		pending:   dMap.Len(),
		reclaimed: dMap.ReclaimableBytes(),
	}
	m.rebuildFlatList()
	return m
}

// Init is called when the program starts
func (m model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		return m, nil
	}

	if m.showingDialog {
		return m.updateDialog(msg)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.flatList)-1 {
			m.cursor++
		}

	case "enter", " ":
		// Toggle expand/collapse
		if m.cursor < len(m.flatList) {
			node := m.flatList[m.cursor]
			if !node.isFile && len(node.children) > 0 {
				node.expanded = !node.expanded
				m.rebuildFlatList()
			}
		}

	case "d":
		if m.pending > 0 {
			m.showingDialog = true
			m.dialogCode = GenConfirmationCode()
			m.dialogInput = ""
			m.dialogError = ""
		}
	}

	return m, nil
}

// updateDialog handles updates when the delete confirmation dialog is shown
func (m model) updateDialog(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "esc":
		m.showingDialog = false
		m.dialogInput = ""
		m.dialogError = ""

	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		if m.dialogInput == m.dialogCode {
			dsklog.Dlogger.Infof("Deletion of %d duplicates confirmed", m.pending)
			m.confirmed = true
			m.quitting = true
			return m, tea.Quit
		}
		m.dialogError = "Incorrect code. Try again."
		m.dialogInput = ""

	case "backspace":
		if len(m.dialogInput) > 0 {
			m.dialogInput = m.dialogInput[:len(m.dialogInput)-1]
		}

	default:
		s := key.String()
		if len(s) == 1 && len(m.dialogInput) < len(m.dialogCode) && utils.IsAlphanumeric(rune(s[0])) {
			m.dialogInput += s
		}
	}

	return m, nil
}

// View renders the UI
func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.showingDialog {
		return m.renderDialog()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("dskDupes: Review duplicates before deleting") + "\n")
	b.WriteString(helpStyle.Render("[d=delete marked, q=cancel, ↑↓=navigate, enter=expand/collapse]") + "\n\n")

	for i, node := range m.flatList {
		b.WriteString(m.renderNode(node, i == m.cursor))
		b.WriteString("\n")
	}

	footer := fmt.Sprintf("\n%d file(s) marked for deletion, %s reclaimable", m.pending, utils.DisplaySize(m.reclaimed))
	b.WriteString(helpStyle.Render(footer))

	return borderStyle.Render(b.String())
}

// renderNode renders a single tree node
func (m model) renderNode(node *treeNode, selected bool) string {
	var prefix string
	var style lipgloss.Style
	switch {
	case !node.isFile && node.expanded:
		prefix, style = "▼ ", headerStyle
	case !node.isFile:
		prefix, style = "▶ ", headerStyle
	case node.marked:
		prefix, style = "    [DEL]  ", markedFileStyle
	default:
		prefix, style = "    [KEEP] ", originalStyle
	}

	if selected {
		style = style.Inherit(selectedStyle)
	}

	// Leave room for the border and padding.
	text := runewidth.Truncate(prefix+node.text, max(m.width-6, 20), "…")
	return style.Render(text)
}

// renderDialog renders the delete confirmation dialog
func (m model) renderDialog() string {
	var b strings.Builder

	dialogStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(1, 2).
		Width(60)

	fmt.Fprintf(&b, "Type the confirmation code below to delete %d file(s):\n\n", m.pending)
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true).Render(m.dialogCode))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Code: %s\n", m.dialogInput)

	if m.dialogError != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.dialogError))
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("[enter=confirm, esc=back]"))

	return lipgloss.Place(
		80, 24,
		lipgloss.Center, lipgloss.Center,
		dialogStyle.Render(b.String()),
	)
}

// rebuildFlatList rebuilds the flat list of visible nodes for navigation
func (m *model) rebuildFlatList() {
	m.flatList = nil
	for _, g := range m.groups {
		m.flatList = append(m.flatList, g)
		if g.expanded {
			m.flatList = append(m.flatList, g.children...)
		}
	}

	if m.cursor >= len(m.flatList) {
		m.cursor = len(m.flatList) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// buildTree turns each duplicate group into a header with the original
// first and its duplicates marked underneath.
func buildTree(dMap *dmap.Dmap) []*treeNode {
	if dMap == nil {
		dsklog.Dlogger.Debug("dMap is nil")
		return nil
	}

	var groups []*treeNode
	for _, g := range dMap.Groups() {
		hashHex := g.Key.Digest.Hex()
		if len(hashHex) > 8 {
			hashHex = hashHex[:8]
		}
		total := uint64(max(g.Key.Size, 0)) * uint64(len(g.Duplicates)) // #nosec G115
		header := &treeNode{
			text:     fmt.Sprintf("%s - %d Duplicates - (%s reclaimable)", hashHex, len(g.Duplicates), utils.DisplaySize(total)),
			expanded: true,
		}
		header.children = append(header.children, &treeNode{text: g.Original, isFile: true})
		for _, path := range g.Duplicates {
			header.children = append(header.children, &treeNode{text: path, isFile: true, marked: true})
		}
		groups = append(groups, header)
	}
	return groups
}

// GenConfirmationCode generates a random alphanumeric confirmation code
// user will need to type to confirm the deletion of files.
func GenConfirmationCode() string {

	const kAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// #nosec G404 -- used intentionally. Not being used for crypto just UX.
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	length := r.Intn(4) + 5 // Random length between 5 and 8
	code := make([]byte, length)

	for i := range code {
		code[i] = kAlnum[r.Intn(len(kAlnum))]
	}

	return string(code)

}
