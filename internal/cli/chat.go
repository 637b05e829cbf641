package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/soyeahso/concierge/internal/engagement"
	"github.com/soyeahso/concierge/internal/hooks"
	"github.com/soyeahso/concierge/internal/leads"
	"github.com/soyeahso/concierge/internal/logging"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		page      string
		altScreen bool
		record    bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run the site widget in the terminal",
		Long: "Chat runs one engagement controller locally, with the same timers, copy and\n" +
			"provider as the gateway. Logs go to chat.log under the logs directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			// Console output would draw over the TUI, so logs only go to a file.
			logFile, err := os.OpenFile(filepath.Join(paths.Logs, "chat.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("opening chat log: %w", err)
			}
			defer logFile.Close()
			chatLog := logging.New(logFile, level)

			hookMgr := hooks.NewManager(chatLog)
			if record {
				s, closer, err := openLeadStore(cfg, chatLog)
				if err != nil {
					return err
				}
				defer closer.Close()
				if s != nil {
					recorder := leads.NewRecorder(s, newNotifier(cfg), chatLog)
					recorder.Attach(hookMgr)
					defer recorder.Wait()
				}
			}

			ctrl := engagement.NewController(newResponder(cfg, chatLog), chatLog,
				engagement.WithPolicy(engagement.PolicyFromConfig(cfg.Engagement)),
				engagement.WithHooks(hookMgr),
				engagement.WithReplyTimeout(cfg.Engagement.ReplyTimeout),
			)
			defer ctrl.Close()

			tag := engagement.ParseContext(page)
			if tag == "" {
				tag = engagement.ContextHome
			}

			opts := []tea.ProgramOption{}
			if altScreen {
				opts = append(opts, tea.WithAltScreen())
			}
			p := tea.NewProgram(newChatModel(ctrl, tag), opts...)
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&page, "context", string(engagement.ContextHome), "page context to mount on (home, services, news, about, client-area)")
	cmd.Flags().BoolVar(&altScreen, "alt-screen", false, "use the terminal alternate screen")
	cmd.Flags().BoolVar(&record, "record", false, "store scheduling requests in the lead store")

	return cmd
}

// snapshotFeed hands controller snapshots to the bubbletea loop. Only the
// newest snapshot is kept; notify wakes the waiting command.
type snapshotFeed struct {
	mu     sync.Mutex
	latest engagement.Snapshot
	notify chan struct{}
}

func newSnapshotFeed() *snapshotFeed {
	return &snapshotFeed{notify: make(chan struct{}, 1)}
}

func (f *snapshotFeed) put(s engagement.Snapshot) {
	f.mu.Lock()
	if s.Seq >= f.latest.Seq {
		f.latest = s
	}
	f.mu.Unlock()
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

func (f *snapshotFeed) get() engagement.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

type snapshotMsg engagement.Snapshot

type statusMsg string

func (f *snapshotFeed) wait() tea.Cmd {
	return func() tea.Msg {
		<-f.notify
		return snapshotMsg(f.get())
	}
}

// chatCommand is a parsed slash command from the input line.
type chatCommand struct {
	name string
	arg  string
}

// parseChatCommand recognises "/name arg" lines. Plain text returns false.
func parseChatCommand(line string) (chatCommand, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return chatCommand{}, false
	}
	name, arg, _ := strings.Cut(line[1:], " ")
	return chatCommand{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

type chatModel struct {
	ctrl *engagement.Controller
	feed *snapshotFeed
	tag  engagement.ContextTag

	snap     engagement.Snapshot
	input    textinput.Model
	timeline viewport.Model
	spinner  spinner.Model
	theme    chatTheme
	status   string
	width    int
	height   int
}

func newChatModel(ctrl *engagement.Controller, tag engagement.ContextTag) chatModel {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 2000
	input.Placeholder = "Digite sua mensagem... (/help para comandos)"
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points

	theme := newChatTheme()
	sp.Style = theme.waiting

	feed := newSnapshotFeed()
	ctrl.OnChange(feed.put)

	return chatModel{
		ctrl:     ctrl,
		feed:     feed,
		tag:      tag,
		input:    input,
		timeline: viewport.New(0, 0),
		spinner:  sp,
		theme:    theme,
		status:   "tab abre ou fecha o chat",
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.feed.wait(),
		m.mountCmd(),
	)
}

func (m chatModel) mountCmd() tea.Cmd {
	return func() tea.Msg {
		m.ctrl.Mount(m.tag)
		return nil
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
	case snapshotMsg:
		if engagement.Snapshot(msg).Seq >= m.snap.Seq {
			m.snap = engagement.Snapshot(msg)
			m.layout()
		}
		cmds = append(cmds, m.feed.wait())
	case statusMsg:
		m.status = string(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.ctrl.Close()
			return m, tea.Quit
		case "tab":
			m.ctrl.Toggle()
			return m, nil
		case "esc":
			m.ctrl.Collapse()
			return m, nil
		case "enter":
			line := m.input.Value()
			m.input.Reset()
			return m, m.submit(line)
		}
		if n, ok := quickReplyKey(msg.String()); ok {
			return m, m.pickQuickReply(n)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.timeline, cmd = m.timeline.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// quickReplyKey maps alt+1..alt+9 to a chip index.
func quickReplyKey(key string) (int, bool) {
	digit, ok := strings.CutPrefix(key, "alt+")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(digit)
	if err != nil || n < 1 || n > 9 {
		return 0, false
	}
	return n, true
}

func (m chatModel) submit(line string) tea.Cmd {
	if cmd, ok := parseChatCommand(line); ok {
		return m.runCommand(cmd)
	}
	if strings.TrimSpace(line) == "" {
		return nil
	}
	return m.send(line)
}

func (m chatModel) send(text string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		if !ctrl.Snapshot().IsOpen {
			ctrl.Open()
		}
		if err := ctrl.Submit(text); err != nil {
			return statusMsg(submitStatus(err))
		}
		return statusMsg("")
	}
}

func submitStatus(err error) string {
	switch {
	case errors.Is(err, engagement.ErrBusy):
		return "aguarde a resposta anterior"
	case errors.Is(err, engagement.ErrEmptyMessage):
		return "mensagem vazia"
	case errors.Is(err, engagement.ErrNotOpen):
		return "abra o chat antes de enviar"
	case errors.Is(err, engagement.ErrClosed):
		return "sessão encerrada"
	default:
		return err.Error()
	}
}

func (m chatModel) pickQuickReply(n int) tea.Cmd {
	if n < 1 || n > len(m.snap.QuickReplies) {
		return nil
	}
	return m.send(m.snap.QuickReplies[n-1])
}

func (m chatModel) runCommand(c chatCommand) tea.Cmd {
	ctrl := m.ctrl
	switch c.name {
	case "open":
		ctrl.Open()
	case "close":
		ctrl.Collapse()
	case "restart":
		ctrl.Restart()
	case "dismiss":
		ctrl.DismissTeaser()
	case "go", "page":
		tag := engagement.ParseContext(c.arg)
		if tag == "" {
			return statusCmd("uso: /go <home|services|news|about|client-area>")
		}
		ctrl.Navigate(tag)
		return statusCmd("página: " + string(tag))
	case "quit", "exit":
		ctrl.Close()
		return tea.Quit
	case "help":
		return statusCmd("/open /close /restart /dismiss /go <página> /1../9 /quit · alt+N escolhe sugestão")
	default:
		if n, err := strconv.Atoi(c.name); err == nil {
			return m.pickQuickReply(n)
		}
		return statusCmd(fmt.Sprintf("comando desconhecido: /%s", c.name))
	}
	return nil
}

func statusCmd(s string) tea.Cmd {
	return func() tea.Msg { return statusMsg(s) }
}

// layout sizes the transcript pane and refreshes its content.
func (m *chatModel) layout() {
	width := max(m.width, 40)
	m.input.Width = width - 6
	m.timeline.Width = width - 2
	m.timeline.Height = max(m.height-chatChromeHeight(m.snap), 3)
	m.timeline.SetContent(renderTranscript(m.theme, m.snap, m.timeline.Width))
	m.timeline.GotoBottom()
}

func (m chatModel) View() string {
	header := renderHeader(m.theme, m.snap)

	var body string
	if m.snap.IsOpen {
		body = m.timeline.View()
		if m.snap.Waiting {
			body += "\n" + m.spinner.View() + m.theme.waiting.Render(" digitando...")
		}
		if chips := renderQuickReplies(m.theme, m.snap.QuickReplies); chips != "" {
			body += "\n" + chips
		}
		body += "\n" + m.input.View()
	} else {
		body = renderClosed(m.theme, m.snap)
		body += "\n" + m.input.View()
	}

	footer := m.theme.help.Render(m.status)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
