package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/services"
	"github.com/cryptodoc/cryptodoc-cli/pkg/appctx"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

// dashboardCmd represents the dashboard command
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash"},
	Short:   "Launch interactive dashboard (alias: dash)",
	Long: `Launch the full-screen document dashboard.

Views:
  1  Dashboard   stat cards and the document list
  2  Upload      send a local file with tags
  3  Analytics   expiration tracker and stored AI insights
  4  AI Insights summary and chat for the selected document
  5  Settings    account and theme

Keyboard Shortcuts:
  Navigation:
    ↑/k ↓/j     Move cursor
    Home / G    Jump to top / bottom
    /           Search

  Actions:
    Enter/p     Preview document
    i           Open AI insights
    c           Ask a question (insights view)
    g           Regenerate summary
    y           Copy hash
    d           Delete document
    u           Upload a file
    r           Refresh

  General:
    t           Toggle theme
    ?           Show help
    q           Quit dashboard`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	m := newDashboardModel(ctx, dashboardDeps{
		ctrl:    controller,
		session: appCtx,
		suggest: tagSuggester.SuggestString,
		backend: apiClient.BaseURL(),
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}

// Dashboard input modes
type viewMode int

const (
	modeList viewMode = iota
	modeSearch
	modeHelp
	modeConfirmDelete
	modeChatInput
	modeUploadPath
	modeUploadTags
)

// dashboardDeps are the collaborators of the dashboard model
type dashboardDeps struct {
	ctrl    *services.Controller
	session *appctx.Context         // nil disables theme and account actions
	suggest func(path string) string // tag suggestion for uploads, may be nil
	backend string
}

// Dashboard model
type dashboardModel struct {
	ctx  context.Context
	deps dashboardDeps

	filtered      []domain.Document // documents matching the search
	cursor        int
	offset        int
	mode          viewMode
	searchInput   textinput.Model
	input         textinput.Model // chat question, upload path and tags
	uploadPath    string
	transcript    viewport.Model
	spinner       spinner.Model
	help          help.Model
	keys          keyMap
	width         int
	height        int
	ready         bool
	message       string
	messageStyle  lipgloss.Style
	messageExpiry time.Time
	deleteTarget  *domain.Document
	now           func() time.Time
}

// Key bindings
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Views      key.Binding
	Preview    key.Binding
	Insights   key.Binding
	Chat       key.Binding
	Regenerate key.Binding
	CopyHash   key.Binding
	Delete     key.Binding
	Upload     key.Binding
	Refresh    key.Binding
	Search     key.Binding
	Theme      key.Binding
	SignOut    key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Help       key.Binding
	Quit       key.Binding
	Escape     key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Views, k.Preview, k.Insights, k.Search, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Search},
		{k.Preview, k.Insights, k.Chat, k.Regenerate, k.CopyHash, k.Delete, k.Upload},
		{k.Views, k.Refresh, k.Theme, k.SignOut, k.Help, k.Escape, k.Quit},
	}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Top: key.NewBinding(
		key.WithKeys("home"),
		key.WithHelp("home", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Views: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5"),
		key.WithHelp("1-5", "switch view"),
	),
	Preview: key.NewBinding(
		key.WithKeys("enter", "p"),
		key.WithHelp("enter/p", "preview"),
	),
	Insights: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "AI insights"),
	),
	Chat: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "ask AI"),
	),
	Regenerate: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "regenerate summary"),
	),
	CopyHash: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy hash"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Upload: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "upload"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Theme: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "toggle theme"),
	),
	SignOut: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "sign out"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "scroll down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "dismiss"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}

func newDashboardModel(ctx context.Context, deps dashboardDeps) dashboardModel {
	si := textinput.New()
	si.Placeholder = "Search documents..."
	si.CharLimit = 100
	si.Width = 50

	in := textinput.New()
	in.CharLimit = 500
	in.Width = 60

	vp := viewport.New(80, 12)
	vp.Style = lipgloss.NewStyle().Foreground(ui.ColorDefault)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.StylePrimary

	m := dashboardModel{
		ctx:         ctx,
		deps:        deps,
		mode:        modeList,
		searchInput: si,
		input:       in,
		transcript:  vp,
		spinner:     sp,
		help:        help.New(),
		keys:        keys,
		now:         time.Now,
	}
	m.applySearch()
	return m
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh())
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

		m.transcript.Width = msg.Width - 4
		m.transcript.Height = max(msg.Height-22, 6)
		m.adjustViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeHelp:
			return m.updateHelp(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case modeChatInput, modeUploadPath, modeUploadTags:
			return m.updateInput(msg)
		default:
			return m.updateList(msg)
		}

	case refreshedMsg:
		m.applySearch()
		m.syncTranscript()
		if msg.err != nil {
			cmd := m.setStatus("Refresh failed: "+userMessage(msg.err), ui.StyleError)
			return m, cmd
		}
		return m, nil

	case statusMsg:
		if msg.reload {
			m.applySearch()
			m.syncTranscript()
		}
		cmd := m.setStatus(msg.message, msg.style)
		return m, cmd

	case chatReplyMsg:
		m.syncTranscript()
		return m, nil

	case clearMessageMsg:
		if !m.now().Before(m.messageExpiry) {
			m.message = ""
		}
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.deps.ctrl.View()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.mode = modeHelp
		return m, nil

	case key.Matches(msg, m.keys.Views):
		idx := int(msg.String()[0] - '1')
		m.deps.ctrl.SetView(domain.NavItems[idx].View)
		m.syncTranscript()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keys.Escape):
		if _, previewing := m.deps.ctrl.Preview(); previewing {
			m.deps.ctrl.ClosePreview()
		} else {
			m.deps.ctrl.DismissError()
		}
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		return m, m.toggleTheme()

	case key.Matches(msg, m.keys.Upload):
		m.deps.ctrl.SetView(domain.ViewUpload)
		m.uploadPath = ""
		cmd := m.startInput(modeUploadPath, "Path to the file to upload", "")
		return m, cmd
	}

	switch view {
	case domain.ViewDashboard:
		return m.updateDocumentList(msg)
	case domain.ViewInsights:
		return m.updateInsights(msg)
	case domain.ViewSettings:
		if key.Matches(msg, m.keys.SignOut) {
			return m, m.signOut()
		}
	}
	return m, nil
}

func (m dashboardModel) updateDocumentList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.adjustViewport()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.adjustViewport()
		}

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.offset = 0

	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(len(m.filtered)-1, 0)
		m.adjustViewport()

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.searchInput.Focus()
		return m, textinput.Blink
	}

	doc, ok := m.current()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Preview):
		return m, m.previewDocument(doc)

	case key.Matches(msg, m.keys.Insights):
		if _, err := m.deps.ctrl.SelectForInsights(doc.ID); err != nil {
			cmd := m.setStatus(userMessage(err), ui.StyleError)
			return m, cmd
		}
		m.syncTranscript()

	case key.Matches(msg, m.keys.Regenerate):
		return m, m.regenerate(doc)

	case key.Matches(msg, m.keys.CopyHash):
		return m, m.copyHash(doc)

	case key.Matches(msg, m.keys.Delete):
		target := doc
		m.deleteTarget = &target
		m.mode = modeConfirmDelete
	}
	return m, nil
}

func (m dashboardModel) updateInsights(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ScrollUp):
		m.transcript.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.transcript.ViewDown()
		return m, nil
	}

	doc, ok := m.current()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Chat):
		cmd := m.startInput(modeChatInput, "Ask about "+doc.Name+"...", "")
		return m, cmd
	case key.Matches(msg, m.keys.Regenerate):
		return m, m.regenerate(doc)
	case key.Matches(msg, m.keys.Preview):
		return m, m.previewDocument(doc)
	case key.Matches(msg, m.keys.CopyHash):
		return m, m.copyHash(doc)
	}
	return m, nil
}

func (m dashboardModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = modeList
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.cursor = 0
		m.offset = 0
		m.applySearch()
		return m, nil

	// Keep the filter and return to the list
	case msg.Type == tea.KeyEnter:
		m.mode = modeList
		m.searchInput.Blur()
		return m, nil

	// Only arrow keys navigate in search mode, j/k are typed
	case msg.Type == tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
			m.adjustViewport()
		}

	case msg.Type == tea.KeyDown:
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.adjustViewport()
		}

	default:
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.applySearch()
		return m, cmd
	}

	return m, nil
}

func (m dashboardModel) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Quit):
		m.mode = modeList
	}
	return m, nil
}

func (m dashboardModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		doc := m.deleteTarget
		m.deleteTarget = nil
		m.mode = modeList
		return m, m.deleteConfirmed(doc)

	case key.Matches(msg, m.keys.Cancel):
		m.deleteTarget = nil
		m.mode = modeList
		cmd := m.setStatus("Delete cancelled", ui.StyleMuted)
		return m, cmd
	}
	return m, nil
}

func (m dashboardModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		m.stopInput()
		m.uploadPath = ""
		return m, nil

	case msg.Type == tea.KeyEnter:
		return m.submitInput()

	default:
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m dashboardModel) submitInput() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	switch m.mode {
	case modeChatInput:
		if value == "" {
			m.stopInput()
			return m, nil
		}
		doc, ok := m.current()
		if !ok {
			m.stopInput()
			return m, nil
		}
		// Stay in chat mode for follow-up questions
		m.input.SetValue("")
		return m, m.sendChat(doc, value)

	case modeUploadPath:
		path := expandHome(value)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			cmd := m.setStatus("Not a file: "+value, ui.StyleError)
			return m, cmd
		}
		m.uploadPath = path
		suggested := ""
		if m.deps.suggest != nil {
			suggested = m.deps.suggest(path)
		}
		cmd := m.startInput(modeUploadTags, "Tags (comma-separated)", suggested)
		return m, cmd

	case modeUploadTags:
		path := m.uploadPath
		m.uploadPath = ""
		m.stopInput()
		return m, m.upload(path, value)
	}
	return m, nil
}

func (m *dashboardModel) startInput(mode viewMode, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return textinput.Blink
}

func (m *dashboardModel) stopInput() {
	m.mode = modeList
	m.input.Blur()
	m.input.SetValue("")
}

func (m dashboardModel) View() string {
	if !m.ready {
		return "\n  Loading dashboard..."
	}

	switch m.mode {
	case modeHelp:
		return m.viewHelp()
	case modeConfirmDelete:
		return m.viewConfirmDelete()
	}

	state := m.deps.ctrl.Snapshot()

	var s strings.Builder
	s.WriteString(m.renderHeader(state))
	s.WriteString("\n")
	s.WriteString(m.renderNav(state.View))
	s.WriteString("\n")
	if banner := m.renderBanner(state); banner != "" {
		s.WriteString(banner)
		s.WriteString("\n")
	}
	s.WriteString("\n")

	switch state.View {
	case domain.ViewUpload:
		s.WriteString(m.viewUpload())
	case domain.ViewAnalytics:
		s.WriteString(m.viewAnalytics())
	case domain.ViewInsights:
		s.WriteString(m.viewInsights())
	case domain.ViewSettings:
		s.WriteString(m.viewSettings())
	default:
		s.WriteString(m.viewDashboard(state))
	}

	s.WriteString("\n")
	s.WriteString(m.renderFooter(state.View))
	return s.String()
}

func (m dashboardModel) viewDashboard(state services.State) string {
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().Bold(true).Padding(0, 1).Render("Welcome back, " + m.displayName()))
	s.WriteString("\n")
	s.WriteString(m.renderStatCards(state.Stats))
	s.WriteString("\n")
	s.WriteString(m.renderSearchBar())
	s.WriteString("\n")
	s.WriteString(m.renderDocumentList())
	return s.String()
}

func (m dashboardModel) renderStatCards(stats []domain.Stat) string {
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorMuted).
		Padding(0, 2).
		MarginRight(1)

	cards := make([]string, 0, len(stats))
	for _, stat := range stats {
		body := ui.StyleMuted.Render(stat.Label) + "\n" + ui.StyleBold.Render(stat.Value)
		if stat.Change != "" {
			body += " " + ui.StyleSuccess.Render(stat.Change)
		}
		cards = append(cards, cardStyle.Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m dashboardModel) renderSearchBar() string {
	borderColor := ui.ColorMuted
	if m.mode == modeSearch {
		borderColor = ui.ColorPrimary
	}

	searchStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(max(m.width-4, 20))

	prompt := ui.StyleMuted.Render("🔍 ")
	if m.mode == modeSearch {
		prompt = ui.StylePrimary.Render("🔍 ")
	}

	content := prompt + m.searchInput.View()
	if m.mode != modeSearch && m.searchInput.Value() == "" {
		content = prompt + ui.StyleMuted.Render("Press / to search...")
	}
	return searchStyle.Render(content)
}

func (m dashboardModel) renderDocumentList() string {
	if len(m.filtered) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Italic(true).
			Padding(1, 4)

		if m.searchInput.Value() != "" {
			return emptyStyle.Render("No documents match your search.")
		}
		return emptyStyle.Render("No documents yet. Press 'u' to upload your first document!")
	}

	var s strings.Builder
	end := min(m.offset+m.listHeight(), len(m.filtered))
	for i := m.offset; i < end; i++ {
		s.WriteString(m.renderDocumentItem(m.filtered[i], i == m.cursor))
	}
	return s.String()
}

func (m dashboardModel) renderDocumentItem(doc domain.Document, selected bool) string {
	cursor := "  "
	nameStyle := lipgloss.NewStyle().Foreground(ui.ColorDefault)
	if selected {
		cursor = ui.StylePrimary.Render("▶ ")
		nameStyle = ui.StylePrimary
	}

	icon := ui.TypeIcon(doc.Type)
	if doc.IsLocal() {
		icon = ui.IconLocal
		if !selected {
			nameStyle = ui.StyleTableDim
		}
	}

	nameWidth := max(m.width-78, 20)
	name := padRight(nameStyle.Render(ui.Truncate(doc.Name, nameWidth)), nameWidth)

	return fmt.Sprintf("%s%s %s  %s  %s  %s  %s\n",
		cursor,
		icon,
		name,
		padRight(ui.StyleMuted.Render(ui.FormatRelativeDate(doc.Date, m.now())), 8),
		padRight(ui.StyleAccent.Render(ui.Truncate(doc.Category, 18)), 18),
		padRight(ui.VerificationBadge(doc.VerificationStatus), 12),
		ui.AIStatusBadge(doc.AIStatus),
	)
}

func (m dashboardModel) viewUpload() string {
	var s strings.Builder

	s.WriteString(ui.StyleHeader.Render(ui.IconUpload + " Upload Document"))
	s.WriteString("\n\n")
	s.WriteString(ui.StyleMuted.Render("Files are hashed, anchored on the blockchain and summarized by the AI."))
	s.WriteString("\n\n")

	switch m.mode {
	case modeUploadPath:
		s.WriteString(ui.RenderKeyValue("File", ""))
		s.WriteString("\n  ")
		s.WriteString(m.input.View())
	case modeUploadTags:
		s.WriteString(ui.RenderKeyValue("File", m.uploadPath))
		s.WriteString("\n")
		s.WriteString(ui.RenderKeyValue("Tags", ""))
		s.WriteString("\n  ")
		s.WriteString(m.input.View())
	default:
		s.WriteString(ui.StyleInfo.Render("Press 'u' to choose a file."))
	}
	s.WriteString("\n\n")

	docs := m.deps.ctrl.Documents()
	if len(docs) > 0 {
		s.WriteString(ui.StyleBold.Render("Recent"))
		s.WriteString("\n")
		for _, d := range docs[:min(len(docs), 5)] {
			s.WriteString(fmt.Sprintf("  %s %s  %s\n",
				ui.TypeIcon(d.Type), d.Name, ui.StyleMuted.Render(ui.FormatRelativeDate(d.Date, m.now()))))
		}
	}
	return s.String()
}

func (m dashboardModel) viewAnalytics() string {
	var s strings.Builder
	now := m.now()

	summary := m.deps.ctrl.ExpirationSummary(now)
	s.WriteString(ui.StyleHeader.Render(ui.IconClock + " Expiration Tracker"))
	s.WriteString("\n")
	s.WriteString(ui.StyleMuted.Render(fmt.Sprintf("%d tracked  %d expired  %d expiring soon  %d need action  %d processed",
		summary.Tracked, summary.Expired, summary.ExpiringSoon, summary.ActionRequired, summary.Processed)))
	s.WriteString("\n\n")

	tracked := m.deps.ctrl.Expirations(now)
	if len(tracked) == 0 {
		s.WriteString(ui.StyleSubtle.Render("No documents with a trackable expiration date."))
	} else {
		s.WriteString(expirationTable(tracked).Render())
	}
	s.WriteString("\n\n")

	s.WriteString(ui.StyleHeader.Render(ui.IconSparkle + " Stored Insights"))
	s.WriteString("\n")
	insights := m.deps.ctrl.Insights()
	if len(insights) == 0 {
		s.WriteString(ui.StyleSubtle.Render("No processed documents yet."))
		s.WriteString("\n")
	}
	for _, d := range insights {
		s.WriteString("  ")
		s.WriteString(ui.StyleBold.Render(d.Name))
		s.WriteString("  ")
		s.WriteString(ui.StyleAccent.Render(d.Category))
		s.WriteString("\n")
		if d.HasSummary() {
			s.WriteString("    ")
			s.WriteString(ui.StyleMuted.Render(ui.Truncate(d.Summary, max(m.width-6, 40))))
			s.WriteString("\n")
		}
	}
	return s.String()
}

func (m dashboardModel) viewInsights() string {
	doc, ok := m.deps.ctrl.Selected()
	if !ok {
		return ui.StyleSubtle.Render("Select a document on the dashboard and press 'i' to see its insights.")
	}

	var s strings.Builder
	s.WriteString(ui.StyleHeader.Render(ui.IconSparkle + " " + doc.Name))
	s.WriteString("\n")
	s.WriteString(ui.RenderKeyValue("Category", doc.Category))
	s.WriteString("\n")
	if doc.HasValidity() {
		s.WriteString(ui.RenderKeyValue("Validity", doc.Validity))
		s.WriteString("\n")
	}
	s.WriteString(ui.RenderKeyValue("Hash", doc.Hash))
	s.WriteString("  ")
	s.WriteString(ui.VerificationBadge(doc.VerificationStatus))
	s.WriteString("\n\n")

	summary := doc.Summary
	if !doc.HasSummary() {
		summary = "No summary yet (" + string(doc.AIStatus) + "). Press 'g' to regenerate."
	}
	s.WriteString(lipgloss.NewStyle().Width(max(m.width-4, 40)).Render(summary))
	s.WriteString("\n\n")

	s.WriteString(ui.StyleBold.Render("Conversation"))
	s.WriteString("\n")
	s.WriteString(m.transcript.View())
	s.WriteString("\n")

	if m.mode == modeChatInput {
		s.WriteString(ui.StyleAccent.Render("you> "))
		s.WriteString(m.input.View())
	} else {
		s.WriteString(ui.StyleMuted.Render("Press 'c' to ask a question"))
	}
	return s.String()
}

func (m dashboardModel) viewSettings() string {
	var s strings.Builder

	s.WriteString(ui.StyleHeader.Render("Settings"))
	s.WriteString("\n\n")

	s.WriteString(ui.StyleBold.Render("Account"))
	s.WriteString("\n")
	var session *domain.Session
	if m.deps.session != nil {
		session = m.deps.session.Session()
	}
	if session != nil {
		avatar := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorPrimary).Render("(" + session.Initials() + ")")
		s.WriteString("  " + avatar + " " + session.DisplayName() + "\n")
		s.WriteString(ui.RenderKeyValue("Email", session.Email))
		s.WriteString("\n")
	} else {
		s.WriteString(ui.StyleMuted.Render("  Not signed in. Run 'cryptodoc login'."))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	theme := appctx.ThemeAuto
	if m.deps.session != nil {
		theme = m.deps.session.Theme()
	}
	s.WriteString(ui.StyleBold.Render("Appearance"))
	s.WriteString("\n")
	s.WriteString(ui.RenderKeyValue("Theme", theme))
	s.WriteString("\n\n")

	s.WriteString(ui.StyleBold.Render("Backend"))
	s.WriteString("\n")
	s.WriteString(ui.RenderKeyValue("API", m.deps.backend))
	s.WriteString("\n")
	return s.String()
}

func (m dashboardModel) viewHelp() string {
	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ui.ColorPrimary).
		Padding(1, 2)

	s.WriteString(titleStyle.Render("CryptoDoc Dashboard - Keyboard Shortcuts"))
	s.WriteString("\n")

	m.help.ShowAll = true
	s.WriteString(lipgloss.NewStyle().Padding(0, 2).Render(m.help.View(m.keys)))
	s.WriteString("\n\n")
	s.WriteString(ui.StyleMuted.Render("  Press ESC or ? to return to dashboard"))
	s.WriteString("\n")
	return s.String()
}

func (m dashboardModel) viewConfirmDelete() string {
	if m.deleteTarget == nil {
		return ""
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorWarning).
		Padding(1, 2).
		Width(60).
		Align(lipgloss.Center)

	titleStyle := lipgloss.NewStyle().
		Foreground(ui.ColorWarning).
		Bold(true)

	promptStyle := lipgloss.NewStyle().
		Foreground(ui.ColorDefault).
		MarginTop(1)

	content := fmt.Sprintf("%s\n\n%s\n%s\n\n%s",
		titleStyle.Render("Delete Document?"),
		ui.StylePrimary.Render(m.deleteTarget.Name),
		ui.StyleMuted.Render(m.deleteTarget.Category+"  "+m.deleteTarget.ShortHash(16)),
		promptStyle.Render("Press 'y' to confirm, 'n' or ESC to cancel"),
	)

	box := boxStyle.Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m dashboardModel) renderHeader(state services.State) string {
	titleStyle := lipgloss.NewStyle().
		Foreground(ui.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	statsStyle := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		Align(lipgloss.Right)

	title := titleStyle.Render(ui.IconChain + " CryptoDoc")

	right := fmt.Sprintf("%d documents  %s", len(state.Documents), m.deps.backend)
	if state.Loading {
		right = m.spinner.View() + " " + right
	}
	stats := statsStyle.Render(right)

	spacer := max(m.width-lipgloss.Width(title)-lipgloss.Width(stats), 0)
	return lipgloss.JoinHorizontal(lipgloss.Top, title, strings.Repeat(" ", spacer), stats)
}

func (m dashboardModel) renderNav(active domain.View) string {
	items := make([]string, 0, len(domain.NavItems))
	for _, item := range domain.NavItems {
		label := fmt.Sprintf("[%s] %s", item.Key, item.Label)
		if item.View == active {
			items = append(items, ui.StylePrimary.Underline(true).Render(label))
		} else {
			items = append(items, ui.StyleMuted.Render(label))
		}
	}
	return " " + strings.Join(items, "  ")
}

func (m dashboardModel) renderBanner(state services.State) string {
	switch {
	case state.Err != nil:
		return lipgloss.NewStyle().
			Foreground(ui.ColorError).
			Bold(true).
			Padding(0, 1).
			Render(userMessage(state.Err) + "  [r] retry  [esc] dismiss")
	case state.Preview != nil:
		return lipgloss.NewStyle().
			Foreground(ui.ColorInfo).
			Padding(0, 1).
			Render("Previewing: " + state.Preview.Name + "  [esc] close")
	}
	return ""
}

func (m dashboardModel) renderFooter(view domain.View) string {
	var statusLine string
	if m.message != "" && m.now().Before(m.messageExpiry) {
		statusLine = m.messageStyle.Render(m.message)
	} else {
		statusLine = ui.StyleMuted.Render("Ready")
	}

	var hint string
	switch view {
	case domain.ViewInsights:
		hint = "[c] Ask  [g] Regenerate  [p] Preview  [y] Copy hash  [PgUp/PgDn] Scroll  [1-5] Views  [q] Quit"
	case domain.ViewSettings:
		hint = "[t] Toggle theme  [L] Sign out  [1-5] Views  [q] Quit"
	case domain.ViewUpload:
		hint = "[u] Choose file  [Enter] Next  [Esc] Cancel  [1-5] Views  [q] Quit"
	default:
		hint = "[↑↓/jk] Navigate  [Enter] Preview  [i] Insights  [d] Delete  [/] Search  [r] Refresh  [?] Help  [q] Quit"
	}

	footerStyle := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorMuted).
		Padding(0, 1)

	return footerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, statusLine, ui.StyleMuted.Render(hint)))
}

func padRight(s string, width int) string {
	realLen := lipgloss.Width(s)
	if realLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-realLen)
}

func (m dashboardModel) listHeight() int {
	return max(m.height-18, 3)
}

func (m *dashboardModel) adjustViewport() {
	listHeight := m.listHeight()

	if m.cursor >= m.offset+listHeight {
		m.offset = m.cursor - listHeight + 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
}

// applySearch re-reads the controller and filters by the search query
func (m *dashboardModel) applySearch() {
	docs := m.deps.ctrl.Documents()
	if query := strings.TrimSpace(m.searchInput.Value()); query != "" {
		docs = services.SearchDocuments(docs, query)
	}
	m.filtered = docs

	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustViewport()
}

// current is the document actions apply to: the selected row on the
// dashboard, the insights selection elsewhere
func (m dashboardModel) current() (domain.Document, bool) {
	if m.deps.ctrl.View() == domain.ViewDashboard {
		if len(m.filtered) == 0 {
			return domain.Document{}, false
		}
		return m.filtered[m.cursor], true
	}
	return m.deps.ctrl.Selected()
}

func (m *dashboardModel) syncTranscript() {
	doc, ok := m.deps.ctrl.Selected()
	if !ok {
		m.transcript.SetContent("")
		return
	}

	var s strings.Builder
	for _, msg := range m.deps.ctrl.Transcript(doc.ID) {
		switch {
		case msg.Role == services.RoleUser:
			s.WriteString(ui.StyleAccent.Render("you> "))
		case msg.Failed:
			s.WriteString(ui.StyleError.Render("ai> "))
		default:
			s.WriteString(ui.StylePrimary.Render("ai> "))
		}
		s.WriteString(msg.Text)
		s.WriteString("\n")
	}
	m.transcript.SetContent(s.String())
	m.transcript.GotoBottom()
}

func (m dashboardModel) displayName() string {
	if m.deps.session == nil {
		return (*domain.Session)(nil).DisplayName()
	}
	return m.deps.session.Session().DisplayName()
}

func (m *dashboardModel) setStatus(message string, style lipgloss.Style) tea.Cmd {
	m.message = message
	m.messageStyle = style
	m.messageExpiry = m.now().Add(3 * time.Second)
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearMessageMsg{}
	})
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Commands

type statusMsg struct {
	message string
	style   lipgloss.Style
	reload  bool // the collection changed, re-read the controller
}

type clearMessageMsg struct{}

type refreshedMsg struct {
	err error
}

type chatReplyMsg struct {
	reply services.ChatMessage
}

func failedStatus(prefix string, err error) statusMsg {
	return statusMsg{message: prefix + ": " + userMessage(err), style: ui.StyleError}
}

func (m dashboardModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.deps.ctrl.Refresh(m.ctx)}
	}
}

func (m dashboardModel) previewDocument(doc domain.Document) tea.Cmd {
	return func() tea.Msg {
		url, err := m.deps.ctrl.RequestPreview(m.ctx, doc.ID)
		switch {
		case err != nil && url == "":
			return failedStatus("Preview failed", err)
		case err != nil:
			return statusMsg{message: "Could not open viewer. URL: " + url, style: ui.StyleWarning}
		}
		return statusMsg{message: "Opened: " + doc.Name, style: ui.StyleSuccess}
	}
}

func (m dashboardModel) deleteConfirmed(doc *domain.Document) tea.Cmd {
	return func() tea.Msg {
		if doc == nil {
			return nil
		}

		// The confirmation dialog already ran
		confirmed := ports.ConfirmFunc(func(context.Context, domain.Document) (bool, error) {
			return true, nil
		})
		if err := m.deps.ctrl.Delete(m.ctx, doc.ID, confirmed); err != nil {
			return failedStatus("Delete failed", err)
		}
		return statusMsg{message: "✓ Deleted: " + doc.Name, style: ui.StyleSuccess, reload: true}
	}
}

func (m dashboardModel) regenerate(doc domain.Document) tea.Cmd {
	return func() tea.Msg {
		updated, err := m.deps.ctrl.RegenerateSummary(m.ctx, doc.ID)
		if err != nil {
			return failedStatus("Regenerate failed", err)
		}
		return statusMsg{message: "✓ Summary updated: " + updated.Name, style: ui.StyleSuccess, reload: true}
	}
}

func (m dashboardModel) upload(path, tags string) tea.Cmd {
	return func() tea.Msg {
		doc, err := uploadWith(m.ctx, m.deps.ctrl, path, tags)
		if err != nil {
			return failedStatus("Upload failed", err)
		}
		return statusMsg{message: "✓ Uploaded: " + doc.Name + " (" + doc.Category + ")", style: ui.StyleSuccess, reload: true}
	}
}

func (m dashboardModel) sendChat(doc domain.Document, question string) tea.Cmd {
	return func() tea.Msg {
		// Failures come back as an agent message in the transcript
		reply, _ := m.deps.ctrl.Chat(m.ctx, doc.ID, question)
		return chatReplyMsg{reply: reply}
	}
}

func (m dashboardModel) copyHash(doc domain.Document) tea.Cmd {
	return func() tea.Msg {
		if doc.Hash == "" || doc.Hash == domain.HashPending {
			return statusMsg{message: "Hash not available yet", style: ui.StyleWarning}
		}
		if err := clipboard.WriteAll(doc.Hash); err != nil {
			return failedStatus("Clipboard access failed", err)
		}
		return statusMsg{message: "Hash copied: " + doc.ShortHash(16), style: ui.StyleSuccess}
	}
}

func (m dashboardModel) toggleTheme() tea.Cmd {
	if m.deps.session == nil {
		return nil
	}
	theme := m.deps.session.ToggleTheme()
	return func() tea.Msg {
		return statusMsg{message: "Theme: " + theme, style: ui.StyleInfo}
	}
}

func (m dashboardModel) signOut() tea.Cmd {
	return func() tea.Msg {
		if m.deps.session == nil || !m.deps.session.SignedIn() {
			return statusMsg{message: "Not signed in", style: ui.StyleMuted}
		}
		if err := m.deps.session.SignOut(m.ctx); err != nil {
			return statusMsg{message: "Signed out locally (" + userMessage(err) + ")", style: ui.StyleWarning}
		}
		return statusMsg{message: "Signed out", style: ui.StyleSuccess}
	}
}
