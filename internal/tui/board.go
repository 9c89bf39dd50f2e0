// ABOUTME: Interactive TUI for browsing and posting to the board feed.
// ABOUTME: Bubbletea model wiring scroll-driven pagination, debounced search, and compose.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"strontium/internal/api"
	"strontium/internal/feed"
	"strontium/internal/models"
	"strontium/internal/session"
)

// debounceInterval is the quiet period after the last search keystroke
// before a query is issued.
const debounceInterval = 300 * time.Millisecond

// Mode is the board's current input mode.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeSearch
	ModeCompose
	ModeAttach
	ModeEdit
	ModeConfirmDelete
)

// feedLoadedMsg carries the outcome of one feed retrieval, tagged with the
// request it was issued for so stale responses can be discarded.
type feedLoadedMsg struct {
	req  feed.Request
	msgs []models.Message
	err  error
}

// searchDebounceMsg fires when a search quiet period elapses. Only the
// latest-scheduled sequence number is honored; earlier ones are stale.
type searchDebounceMsg struct {
	seq int
}

// uploadDoneMsg carries the outcome of an attachment upload.
type uploadDoneMsg struct {
	urls []string
	err  error
}

// mutationAction names the store mutation a mutationDoneMsg reports on.
type mutationAction int

const (
	actionCreate mutationAction = iota
	actionUpdate
	actionDelete
)

// mutationDoneMsg carries the outcome of a create/update/delete call.
type mutationDoneMsg struct {
	action mutationAction
	err    error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	attachStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// BoardModel is the bubbletea model for the board view.
//
// The engine is held by pointer so that the value-receiver Update required
// by tea.Model mutates one shared state machine across model copies.
type BoardModel struct {
	client  *api.Client
	session *session.Store
	engine  *feed.Engine

	mode   Mode
	cursor int

	viewport    viewport.Model
	searchInput textinput.Model
	compose     textarea.Model
	attachInput textinput.Model
	spin        spinner.Model

	// searchSeq is the debounce handle: each keystroke bumps it and
	// schedules a tick carrying its value; a tick whose value no longer
	// matches was superseded and is dropped.
	searchSeq int

	// attachments collects uploaded URLs for the current compose session,
	// in upload order. uploading blocks both a second upload and submit.
	attachments []string
	uploading   bool

	editID int

	status    string
	statusErr bool
	ready     bool
	quitting  bool
}

// NewBoardModel creates the board view bound to an API client and session.
func NewBoardModel(client *api.Client, sess *session.Store) BoardModel {
	search := textinput.New()
	search.Placeholder = "search messages"
	search.Width = 40

	compose := textarea.New()
	compose.Placeholder = "What's on your mind?"
	compose.SetWidth(60)
	compose.SetHeight(4)
	compose.CharLimit = 2000

	attach := textinput.New()
	attach.Placeholder = "path/to/file"
	attach.Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot

	vp := viewport.New(80, 18)

	return BoardModel{
		client:      client,
		session:     sess,
		engine:      feed.NewEngine(),
		viewport:    vp,
		searchInput: search,
		compose:     compose,
		attachInput: attach,
		spin:        s,
	}
}

// Init implements tea.Model: issue the initial unfiltered load.
func (m BoardModel) Init() tea.Cmd {
	req, _ := m.engine.Start(true)
	return tea.Batch(m.loadCmd(req), m.spin.Tick)
}

// Update implements tea.Model.
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-7, 3)
		m.ready = true
		m.syncViewport()
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case feedLoadedMsg:
		if !m.engine.Apply(msg.req, msg.msgs, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			m.setError(friendlyError(msg.err))
		}
		if m.cursor >= m.engine.Len() {
			m.cursor = max(m.engine.Len()-1, 0)
		}
		m.syncViewport()
		return m, nil

	case searchDebounceMsg:
		if msg.seq != m.searchSeq {
			return m, nil
		}
		m.engine.SetSearch(m.searchInput.Value())
		req, _ := m.engine.Start(true)
		m.cursor = 0
		return m, tea.Batch(m.loadCmd(req), m.spin.Tick)

	case uploadDoneMsg:
		m.uploading = false
		if msg.err != nil {
			m.setError(friendlyError(msg.err))
			return m, nil
		}
		m.attachments = append(m.attachments, msg.urls...)
		m.setStatus(fmt.Sprintf("attached %d file(s)", len(msg.urls)))
		m.mode = ModeCompose
		m.attachInput.SetValue("")
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			m.setError(friendlyError(msg.err))
			return m, nil
		}
		if msg.action == actionCreate {
			m.compose.Reset()
			m.attachments = nil
		}
		m.editID = 0
		m.mode = ModeBrowse
		m.setStatus(mutationStatus(msg.action))
		req, _ := m.engine.Start(true)
		m.cursor = 0
		return m, tea.Batch(m.loadCmd(req), m.spin.Tick)

	case spinner.TickMsg:
		if m.engine.Loading() || m.uploading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m BoardModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.mode {
	case ModeBrowse:
		return m.updateBrowse(msg)
	case ModeSearch:
		return m.updateSearch(msg)
	case ModeCompose:
		return m.updateCompose(msg)
	case ModeAttach:
		return m.updateAttach(msg)
	case ModeEdit:
		return m.updateEdit(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m, nil
}

func (m BoardModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.clearStatus()
		m.engine.ClearErr()
		return m, nil

	case "j", "down":
		return m.moveCursor(1)

	case "k", "up":
		return m.moveCursor(-1)

	case "/":
		m.mode = ModeSearch
		m.searchInput.Focus()
		return m, textinput.Blink

	case "n":
		m.mode = ModeCompose
		m.compose.Focus()
		return m, textarea.Blink

	case "r":
		req, _ := m.engine.Start(true)
		m.cursor = 0
		return m, tea.Batch(m.loadCmd(req), m.spin.Tick)

	case "e":
		sel, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editID = sel.ID
		m.compose.SetValue(sel.Content)
		m.compose.Focus()
		m.mode = ModeEdit
		return m, textarea.Blink

	case "d":
		if _, ok := m.selected(); !ok {
			return m, nil
		}
		m.mode = ModeConfirmDelete
		return m, nil
	}
	return m, nil
}

// moveCursor shifts the selection and fires the scroll trigger when the
// terminal record comes into view. The trigger re-arms naturally: the
// predicate is evaluated against the current terminal record on every move.
func (m BoardModel) moveCursor(delta int) (tea.Model, tea.Cmd) {
	if m.engine.Len() == 0 {
		return m, nil
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= m.engine.Len() {
		m.cursor = m.engine.Len() - 1
	}
	m.syncViewport()

	if m.engine.ShouldExtend(m.cursor == m.engine.Len()-1) {
		req, ok := m.engine.Start(false)
		if ok {
			return m, tea.Batch(m.loadCmd(req), m.spin.Tick)
		}
	}
	return m, nil
}

func (m BoardModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape, tea.KeyEnter:
		m.searchInput.Blur()
		m.mode = ModeBrowse
		return m, nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	if m.searchInput.Value() != before {
		m.searchSeq++
		return m, tea.Batch(cmd, debounceCmd(m.searchSeq))
	}
	return m, cmd
}

func (m BoardModel) updateCompose(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		// Draft and attachments are kept for when compose reopens.
		m.compose.Blur()
		m.mode = ModeBrowse
		return m, nil

	case tea.KeyCtrlA:
		m.mode = ModeAttach
		m.attachInput.Focus()
		return m, textinput.Blink

	case tea.KeyCtrlS:
		return m.submitCompose()
	}

	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

// submitCompose runs the create flow. Submit is blocked while an upload is
// unresolved: attachment URLs must exist before create may reference them.
func (m BoardModel) submitCompose() (tea.Model, tea.Cmd) {
	if m.uploading {
		m.setError("still uploading - wait for the attachment to finish")
		return m, nil
	}
	content := strings.TrimSpace(m.compose.Value())
	if content == "" {
		m.setError("message is empty")
		return m, nil
	}
	if !m.session.Authenticated() {
		m.setError("log in first: strontium login <email>")
		return m, nil
	}
	return m, tea.Batch(m.createCmd(content, m.attachments), m.spin.Tick)
}

func (m BoardModel) updateAttach(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.attachInput.Blur()
		m.mode = ModeCompose
		return m, textarea.Blink

	case tea.KeyEnter:
		if m.uploading {
			return m, nil
		}
		path := strings.TrimSpace(m.attachInput.Value())
		if path == "" {
			return m, nil
		}
		m.uploading = true
		return m, tea.Batch(m.uploadCmd(path), m.spin.Tick)
	}

	var cmd tea.Cmd
	m.attachInput, cmd = m.attachInput.Update(msg)
	return m, cmd
}

func (m BoardModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.editID = 0
		m.compose.Reset()
		m.compose.Blur()
		m.mode = ModeBrowse
		return m, nil

	case tea.KeyCtrlS:
		content := strings.TrimSpace(m.compose.Value())
		if content == "" {
			m.setError("message is empty")
			return m, nil
		}
		if !m.session.Authenticated() {
			m.setError("log in first: strontium login <email>")
			return m, nil
		}
		return m, tea.Batch(m.updateCmd(m.editID, content), m.spin.Tick)
	}

	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m BoardModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		sel, ok := m.selected()
		if !ok {
			m.mode = ModeBrowse
			return m, nil
		}
		if !m.session.Authenticated() {
			m.mode = ModeBrowse
			m.setError("log in first: strontium login <email>")
			return m, nil
		}
		m.mode = ModeBrowse
		return m, tea.Batch(m.deleteCmd(sel.ID), m.spin.Tick)

	case "n", "esc":
		m.mode = ModeBrowse
		return m, nil
	}
	return m, nil
}

// selected returns the message under the cursor.
func (m BoardModel) selected() (models.Message, bool) {
	msgs := m.engine.Messages()
	if m.cursor < 0 || m.cursor >= len(msgs) {
		return models.Message{}, false
	}
	return msgs[m.cursor], true
}

func (m *BoardModel) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *BoardModel) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m *BoardModel) clearStatus() {
	m.status = ""
	m.statusErr = false
}

// --- commands ---

func (m BoardModel) loadCmd(req feed.Request) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		msgs, err := client.ListMessages(context.Background(), req.Query)
		return feedLoadedMsg{req: req, msgs: msgs, err: err}
	}
}

func debounceCmd(seq int) tea.Cmd {
	return tea.Tick(debounceInterval, func(time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq}
	})
}

func (m BoardModel) uploadCmd(path string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return uploadDoneMsg{err: fmt.Errorf("%w: %v", api.ErrUploadFailed, err)}
		}
		urls, err := client.Upload(context.Background(), []api.UploadFile{
			{Name: filepath.Base(path), Data: data},
		})
		return uploadDoneMsg{urls: urls, err: err}
	}
}

func (m BoardModel) createCmd(content string, fileURLs []string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		_, err := client.CreateMessage(context.Background(), content, fileURLs)
		return mutationDoneMsg{action: actionCreate, err: err}
	}
}

func (m BoardModel) updateCmd(id int, content string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		_, err := client.UpdateMessage(context.Background(), id, content)
		return mutationDoneMsg{action: actionUpdate, err: err}
	}
}

func (m BoardModel) deleteCmd(id int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.DeleteMessage(context.Background(), id)
		return mutationDoneMsg{action: actionDelete, err: err}
	}
}

// --- view ---

// View implements tea.Model.
func (m BoardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("STRONTIUM"))
	b.WriteString(metaStyle.Render("  message board"))
	if term := m.engine.Search(); term != "" {
		b.WriteString(metaStyle.Render(fmt.Sprintf("  (filter: %q)", term)))
	}
	b.WriteString("\n")

	if m.mode == ModeSearch {
		b.WriteString("search: " + m.searchInput.View() + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.engine.Loading() || m.uploading {
		b.WriteString(m.spin.View())
		if m.uploading {
			b.WriteString(" uploading...")
		} else {
			b.WriteString(" loading...")
		}
	}
	b.WriteString("\n")

	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.status))
	}
	b.WriteString("\n")

	switch m.mode {
	case ModeCompose, ModeEdit:
		label := "new message"
		if m.mode == ModeEdit {
			label = fmt.Sprintf("edit message %d", m.editID)
		}
		b.WriteString(metaStyle.Render(label))
		if len(m.attachments) > 0 && m.mode == ModeCompose {
			b.WriteString(attachStyle.Render(fmt.Sprintf("  [%d attachment(s)]", len(m.attachments))))
		}
		b.WriteString("\n")
		b.WriteString(m.compose.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("ctrl+s send - ctrl+a attach - esc cancel"))

	case ModeAttach:
		b.WriteString("attach file: " + m.attachInput.View() + "\n")
		b.WriteString(helpStyle.Render("enter upload - esc back"))

	case ModeConfirmDelete:
		sel, _ := m.selected()
		b.WriteString(errorStyle.Render(fmt.Sprintf("delete message %d? [y/n]", sel.ID)))

	case ModeSearch:
		b.WriteString(helpStyle.Render("type to filter - enter/esc done"))

	default:
		b.WriteString(helpStyle.Render("j/k move - / search - n new - e edit - d delete - r refresh - q quit"))
	}

	return b.String()
}

// syncViewport re-renders the feed into the viewport and keeps the cursor's
// block in view.
func (m *BoardModel) syncViewport() {
	msgs := m.engine.Messages()
	if len(msgs) == 0 {
		if m.engine.Loading() {
			m.viewport.SetContent(metaStyle.Render("loading feed..."))
		} else {
			m.viewport.SetContent(metaStyle.Render("no messages"))
		}
		return
	}

	var b strings.Builder
	for i, msg := range msgs {
		b.WriteString(m.renderMessage(msg, i == m.cursor))
	}
	if !m.engine.HasMore() {
		b.WriteString(metaStyle.Render("- end of feed -"))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())

	// Each message renders as exactly messageLines lines.
	top := m.cursor * messageLines
	bottom := top + messageLines
	if top < m.viewport.YOffset {
		m.viewport.SetYOffset(top)
	} else if bottom > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(bottom - m.viewport.Height)
	}
}

// messageLines is the fixed render height of one feed entry.
const messageLines = 3

func (m *BoardModel) renderMessage(msg models.Message, selected bool) string {
	meta := fmt.Sprintf("#%d  user %d  %s", msg.ID, msg.OwnerID, msg.Timestamp.Format("2006-01-02 15:04"))
	if n := len(msg.FileURLs); n > 0 {
		meta += fmt.Sprintf("  [%d file(s)]", n)
	}

	content := strings.ReplaceAll(msg.Content, "\n", " ")
	width := max(m.viewport.Width-4, 20)
	if len(content) > width {
		content = content[:width-3] + "..."
	}

	prefix := "  "
	contentStyle := lipgloss.NewStyle()
	if selected {
		prefix = "> "
		contentStyle = selectedStyle
	}
	return prefix + metaStyle.Render(meta) + "\n" + prefix + contentStyle.Render(content) + "\n\n"
}

// friendlyError maps API errors to user-facing banner text. All of these are
// transient: the feed keeps its accumulated records and the user retries.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, api.ErrAuthRequired):
		return "log in first: strontium login <email>"
	case errors.Is(err, api.ErrSessionInvalid):
		return "session expired - log in again"
	case errors.Is(err, api.ErrForbidden):
		return "you can only modify your own messages"
	case errors.Is(err, api.ErrUploadFailed):
		return err.Error()
	default:
		return "request failed: " + err.Error()
	}
}

func mutationStatus(action mutationAction) string {
	switch action {
	case actionCreate:
		return "message posted"
	case actionUpdate:
		return "message updated"
	case actionDelete:
		return "message deleted"
	}
	return ""
}
