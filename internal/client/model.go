package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cardroom/blackjack-online/internal/server"
)

// phase tracks where the client is in the session lifecycle. It mirrors the
// server's message flow rather than the game state machine: the client only
// ever reacts to what the server tells it.
type phase int

const (
	phaseConnecting phase = iota
	phaseWaiting
	phasePlaying
	phaseAskContinue
	phaseOver
)

// envelopeMsg delivers one server message into the Bubble Tea update loop
type envelopeMsg struct {
	msg *server.Message
}

// connClosedMsg signals that the read loop ended
type connClosedMsg struct {
	err error
}

// Model is the Bubble Tea model for the blackjack client
type Model struct {
	playerID string
	send     func(action string) error

	phase    phase
	opponent string
	round    int
	state    *server.GameStateData
	result   *server.RoundResultData
	status   string
	errLine  string
	overText string

	spinner  spinner.Model
	width    int
	height   int
	quitting bool
}

// NewModel creates the client model. The send function delivers one action
// envelope to the server and is called only from Update.
func NewModel(playerID string, send func(action string) error) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return &Model{
		playerID: playerID,
		send:     send,
		phase:    phaseConnecting,
		status:   "connecting...",
		spinner:  sp,
	}
}

// Init starts the spinner
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles terminal events and server messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case envelopeMsg:
		return m.handleServerMessage(msg.msg)

	case connClosedMsg:
		if m.phase != phaseOver {
			m.phase = phaseOver
			if msg.err != nil {
				m.overText = "connection lost"
			} else {
				m.overText = "connection closed"
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.quitting = true
		_ = m.send(server.ActionQuit)
		return m, tea.Quit
	}

	switch m.phase {
	case phasePlaying:
		if m.state == nil || !m.state.IsMyTurn {
			break
		}
		switch key {
		case "h":
			m.errLine = ""
			_ = m.send(server.ActionHit)
		case "s":
			m.errLine = ""
			_ = m.send(server.ActionStand)
		}

	case phaseAskContinue:
		switch key {
		case "y":
			m.errLine = ""
			m.status = "waiting for opponent to decide..."
			_ = m.send(server.ActionContinue)
		case "n", "q":
			_ = m.send(server.ActionQuit)
		}

	case phaseOver:
		// Any key leaves the table.
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// handleServerMessage applies one decoded envelope to the display state
func (m *Model) handleServerMessage(msg *server.Message) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case server.MessageTypeWaiting:
		var data server.WaitingData
		_ = json.Unmarshal(msg.Data, &data)
		m.phase = phaseWaiting
		m.status = data.Message

	case server.MessageTypeMatched:
		var data server.MatchedData
		_ = json.Unmarshal(msg.Data, &data)
		m.opponent = data.Opponent
		m.status = fmt.Sprintf("matched with %s", data.Opponent)

	case server.MessageTypeRoundStart:
		var data server.RoundStartData
		_ = json.Unmarshal(msg.Data, &data)
		m.phase = phasePlaying
		m.round = data.Round
		m.result = nil
		m.errLine = ""

	case server.MessageTypeGameState:
		var data server.GameStateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return m, nil
		}
		m.state = &data
		m.phase = phasePlaying

	case server.MessageTypeRoundResult:
		var data server.RoundResultData
		_ = json.Unmarshal(msg.Data, &data)
		m.result = &data

	case server.MessageTypeAskContinue:
		m.phase = phaseAskContinue

	case server.MessageTypeGameOver:
		var data server.GameOverData
		_ = json.Unmarshal(msg.Data, &data)
		m.phase = phaseOver
		switch {
		case data.QuitBy == m.playerID:
			m.overText = "you left the table"
		case data.Reason != "":
			m.overText = data.Reason
		default:
			m.overText = "game over"
		}

	case server.MessageTypeError:
		var data server.ErrorData
		_ = json.Unmarshal(msg.Data, &data)
		m.errLine = data.Message
	}

	return m, nil
}

// View renders the current phase
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Blackjack Online"))
	b.WriteString("\n\n")

	switch m.phase {
	case phaseConnecting, phaseWaiting:
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), m.status))

	case phasePlaying, phaseAskContinue:
		b.WriteString(m.renderTable())

	case phaseOver:
		if m.result != nil {
			b.WriteString(m.renderResult())
			b.WriteString("\n")
		}
		b.WriteString(m.overText)
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("press any key to exit"))
		b.WriteString("\n")
	}

	if m.errLine != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.errLine))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderTable() string {
	var b strings.Builder

	if m.round > 0 {
		b.WriteString(fmt.Sprintf("Round %d\n\n", m.round))
	}

	if m.state != nil {
		b.WriteString(renderPlayer("opponent", m.state.OpponentInfo))
		b.WriteString("\n")
		b.WriteString(renderPlayer("you", m.state.MyInfo))
		b.WriteString("\n")
	}

	if m.result != nil {
		b.WriteString(m.renderResult())
		b.WriteString("\n")
	}

	switch {
	case m.phase == phaseAskContinue:
		b.WriteString(turnStyle.Render("Play another round?"))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("[y] continue  [n] quit"))
		b.WriteString("\n")
	case m.state != nil && m.state.IsMyTurn:
		b.WriteString(turnStyle.Render(">>> your turn"))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("[h] hit  [s] stand  [ctrl+c] quit"))
		b.WriteString("\n")
	case m.state != nil && m.state.State == "finished":
		b.WriteString(fmt.Sprintf("%s waiting...\n", m.spinner.View()))
	case m.state != nil:
		b.WriteString(fmt.Sprintf("%s %s's turn...\n", m.spinner.View(), m.state.CurrentTurn))
	}

	return b.String()
}

func (m *Model) renderResult() string {
	var style lipgloss.Style
	switch m.result.Result {
	case "win":
		style = winStyle
	case "lose":
		style = loseStyle
	default:
		style = drawStyle
	}
	return style.Render(m.result.Message)
}

// renderPlayer draws one side of the table: name, cards, value, and record
func renderPlayer(label string, info server.PlayerInfo) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s (%s)\n", label, info.PlayerID))
	b.WriteString("  ")
	b.WriteString(renderHand(info.Hand))
	b.WriteString("\n")
	b.WriteString(recordStyle.Render(fmt.Sprintf("  W:%d L:%d D:%d", info.Wins, info.Losses, info.Draws)))
	b.WriteString("\n")

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderHand(h server.HandView) string {
	if len(h.Cards) == 0 {
		return hiddenCardStyle.Render("(no cards)")
	}

	cards := make([]string, 0, len(h.Cards))
	for _, c := range h.Cards {
		cards = append(cards, renderCard(c))
	}
	line := strings.Join(cards, " ")

	if h.Hidden {
		return line
	}

	line += "  " + handValueStyle.Render(fmt.Sprintf("(%d)", h.Value))
	if h.IsBlackjack {
		line += "  " + winStyle.Render("blackjack!")
	}
	if h.IsBust {
		line += "  " + loseStyle.Render("bust!")
	}
	return line
}

func renderCard(c server.CardView) string {
	if c.Rank == "?" {
		return hiddenCardStyle.Render("[??]")
	}
	text := "[" + c.Rank + c.Suit + "]"
	if c.Suit == "♥" || c.Suit == "♦" {
		return redCardStyle.Render(text)
	}
	return blackCardStyle.Render(text)
}
