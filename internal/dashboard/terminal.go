package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 2).Width(44)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Width(20)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func card(title string, lines ...string) string {
	body := titleStyle.Render(title) + "\n" + strings.Join(lines, "\n")
	return boxStyle.Render(body)
}

func figureLine(v FigureView) string {
	switch v.State {
	case StateLoading:
		return mutedStyle.Render("Loading...")
	case StateError:
		return errorStyle.Render(v.Text)
	case StateEmpty:
		return mutedStyle.Render(v.Text)
	default:
		return valueStyle.Render(v.Text)
	}
}

func rowLine(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

// RenderTerminal renders a snapshot as cards for a terminal.
func RenderTerminal(s Snapshot) string {
	cards := []string{
		card("Current Jackpot", figureLine(FigureView(s.Jackpot))),
		card("Last Jackpot", lastJackpotLines(s.LastJackpot)...),
		card("Round",
			rowLine("Ticket Price:", figureLine(s.TicketPrice)),
			rowLine("Time Remaining:", figureLine(s.TimeRemaining)),
			rowLine("Odds:", figureLine(s.Odds)),
		),
	}
	if s.Wallet != "" {
		cards = append(cards, card("Withdraw Winnings", withdrawLines(s.Withdraw)...))
	}
	if s.PastWinners.State == StateSuccess {
		cards = append(cards, card("Past Winners", pastWinnerLines(s.PastWinners)...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...) + "\n"
}

func lastJackpotLines(v LastJackpotView) []string {
	switch v.State {
	case StateLoading:
		return []string{mutedStyle.Render("Loading...")}
	case StateError:
		return []string{errorStyle.Render(v.Message)}
	}
	lines := make([]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		lines = append(lines, rowLine(r.Label, r.Value))
	}
	return lines
}

func withdrawLines(v WithdrawView) []string {
	switch v.State {
	case StateLoading:
		return []string{mutedStyle.Render("Loading...")}
	case StateError:
		return []string{errorStyle.Render(v.Message)}
	}
	lines := []string{valueStyle.Render(v.Amount)}
	switch {
	case v.Pending:
		lines = append(lines, mutedStyle.Render("Withdrawal pending..."))
	case v.ButtonDisabled:
		lines = append(lines, mutedStyle.Render("Nothing to withdraw"))
	default:
		lines = append(lines, mutedStyle.Render("Run `jackpot withdraw` to claim"))
	}
	if v.WriteError != "" {
		lines = append(lines, errorStyle.Render(v.WriteError))
	}
	if v.TxHash != "" {
		lines = append(lines, mutedStyle.Render(v.TxHash))
	}
	return lines
}

func pastWinnerLines(v PastWinnersView) []string {
	lines := make([]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		value := r.WinAmount
		if r.Tickets != "" {
			value += " (" + r.Tickets + " Tickets)"
		}
		lines = append(lines, rowLine(r.Winner, value))
	}
	return lines
}
