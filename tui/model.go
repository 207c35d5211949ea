package tui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// tickMsg is fired every second to update the wait timer.
type tickMsg time.Time

// state represents the current phase of sign-in.
type state int

const (
	stateInit       state = iota
	stateRefreshing       // exchanging the refresh token
	stateAwaiting         // browser opened, waiting for the redirect
	stateSuccess          // credential in hand
	stateError            // fatal error
)

// statusKind distinguishes line types in the status log.
type statusKind int

const (
	statusOK   statusKind = iota
	statusWarn            // warning / non-fatal
	statusInfo            // neutral info
)

type statusLine struct {
	kind statusKind
	text string
}

// Model is the BubbleTea model for the sign-in display.
type Model struct {
	state   state
	spinner spinner.Model
	width   int
	height  int

	authURL      string
	callbackAddr string
	waitStarted  time.Time
	deadline     time.Time
	now          time.Time

	tokenPreview string
	expiresIn    time.Duration
	errMsg       string

	statusLines []statusLine
}

var (
	styleTitleBox = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 2)

	styleURLBox = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("228")).
			Padding(0, 1)

	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleBold = lipgloss.NewStyle().Bold(true)
)

// NewModel creates the initial TUI model.
func NewModel() Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("39"))),
	)
	return Model{
		state:   stateInit,
		spinner: s,
	}
}

// Init starts the spinner animation.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.now = time.Time(msg)
		if m.state == stateAwaiting {
			return m, tickAfterSecond()
		}
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case MsgTokensNotFound:
		m.addStatus(statusInfo, "No stored credential, starting browser sign-in")
		return m, nil

	case MsgTokenExpired:
		m.state = stateRefreshing
		m.addStatus(statusWarn, "Access token expired")
		return m, nil

	case MsgRefreshOK:
		m.addStatus(statusOK, "Token refreshed successfully")
		return m, nil

	case MsgRefreshFailed:
		m.addStatus(statusWarn, fmt.Sprintf("Refresh failed: %v", msg.Err))
		return m, nil

	case MsgAuthURLReady:
		m.authURL = msg.AuthURL
		m.callbackAddr = msg.CallbackAddr
		m.addStatus(statusInfo, "Listening on "+msg.CallbackAddr)
		return m, nil

	case MsgWaitingForCallback:
		m.state = stateAwaiting
		m.waitStarted = time.Now()
		m.now = m.waitStarted
		m.deadline = msg.Deadline
		return m, tickAfterSecond()

	case MsgAuthSuccess:
		m.addStatus(statusOK, "Authorization successful!")
		return m, nil

	case MsgDone:
		m.tokenPreview = msg.Preview
		m.expiresIn = msg.ExpiresIn
		m.state = stateSuccess
		return m, nil

	case MsgFatal:
		m.errMsg = msg.Err.Error()
		m.state = stateError
		return m, nil
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() tea.View {
	switch m.state {
	case stateSuccess:
		return tea.NewView(m.viewSuccess())
	case stateError:
		return tea.NewView(m.viewError())
	default:
		return tea.NewView(m.viewMain())
	}
}

func (m Model) viewMain() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  XTV Sign-In  "))
	b.WriteString("\n\n")

	switch m.state {
	case stateAwaiting:
		b.WriteString(styleBold.Render("Your browser should open. If it does not, visit:"))
		b.WriteString("\n")
		b.WriteString(styleURLBox.Render(m.authURL))
		b.WriteString("\n\n")

		b.WriteString(m.spinner.View())
		b.WriteString(" Waiting for the redirect on " + m.callbackAddr + "  ")
		if m.deadline.IsZero() {
			b.WriteString(styleDim.Render(formatDuration(m.now.Sub(m.waitStarted)) + " elapsed"))
		} else {
			b.WriteString(styleDim.Render(formatDuration(m.deadline.Sub(m.now)) + " remaining"))
		}
		b.WriteString("\n")

	case stateRefreshing:
		b.WriteString(m.spinner.View())
		b.WriteString(" Refreshing access token...\n")

	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" Checking stored credential...\n")
	}

	b.WriteString(m.viewStatusLog())
	return b.String()
}

func (m Model) viewSuccess() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleOK.Render("  ✓ Signed in"))
	b.WriteString("\n\n")

	b.WriteString(styleBold.Render("Access Token: "))
	b.WriteString(m.tokenPreview + "...\n")

	b.WriteString(styleBold.Render("Expires In:   "))
	b.WriteString(formatDuration(m.expiresIn) + "\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleErr.Render("  ✗ Sign-in failed"))
	b.WriteString("\n\n")
	b.WriteString(styleDim.Render("  " + m.errMsg))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

func (m Model) viewStatusLog() string {
	if len(m.statusLines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	for _, line := range m.statusLines {
		switch line.kind {
		case statusOK:
			b.WriteString(styleOK.Render("  ✓ " + line.text))
		case statusWarn:
			b.WriteString(styleWarn.Render("  ⚠ " + line.text))
		default:
			b.WriteString(styleDim.Render("  · " + line.text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) addStatus(kind statusKind, text string) {
	m.statusLines = append(m.statusLines, statusLine{kind: kind, text: text})
}

func tickAfterSecond() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// formatDuration formats a duration as "Xm Ys" or "Xs".
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
