package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/soyeahso/concierge/internal/engagement"
)

type chatTheme struct {
	header  lipgloss.Style
	user    lipgloss.Style
	bot     lipgloss.Style
	card    lipgloss.Style
	title   lipgloss.Style
	action  lipgloss.Style
	chip    lipgloss.Style
	teaser  lipgloss.Style
	waiting lipgloss.Style
	help    lipgloss.Style
}

func newChatTheme() chatTheme {
	navy := lipgloss.Color("#0b1f3a")
	gold := lipgloss.Color("#c9a227")
	text := lipgloss.Color("#f3f3f3")
	muted := lipgloss.Color("#8a94a6")

	return chatTheme{
		header: lipgloss.NewStyle().
			Background(navy).
			Foreground(text).
			Bold(true).
			Padding(0, 1),
		user: lipgloss.NewStyle().
			Foreground(gold).
			Bold(true),
		bot: lipgloss.NewStyle().
			Foreground(text),
		card: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(gold).
			Padding(0, 1),
		title:  lipgloss.NewStyle().Foreground(gold).Bold(true),
		action: lipgloss.NewStyle().Foreground(navy).Background(gold).Padding(0, 1),
		chip: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		teaser: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(gold).
			Padding(0, 1),
		waiting: lipgloss.NewStyle().Foreground(muted).Italic(true),
		help:    lipgloss.NewStyle().Foreground(muted),
	}
}

// chatChromeHeight is the number of rows taken by everything but the
// transcript pane.
func chatChromeHeight(s engagement.Snapshot) int {
	rows := 4 // header, input, footer, spacing
	if s.Waiting {
		rows++
	}
	if len(s.QuickReplies) > 0 {
		rows += 3
	}
	return rows
}

func renderHeader(t chatTheme, s engagement.Snapshot) string {
	tag := s.Context
	if tag == "" {
		tag = engagement.ContextHome
	}
	return t.header.Render(fmt.Sprintf("Grand Prime · Consultor Virtual  [%s · %s]", tag, s.Phase))
}

// renderTranscript draws every turn. Scheduling card turns become the
// booking card; everything else is a labelled bubble.
func renderTranscript(t chatTheme, s engagement.Snapshot, width int) string {
	if width <= 0 {
		width = 60
	}
	bubble := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, turn := range s.Transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		switch {
		case turn.IsSchedulingCard():
			b.WriteString(renderSchedulingCard(t, width))
		case turn.Sender == engagement.SenderUser:
			b.WriteString(bubble.Render(t.user.Render("Você: ") + turn.Text))
		default:
			b.WriteString(bubble.Render(t.bot.Render("Consultor: ") + turn.Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderSchedulingCard(t chatTheme, width int) string {
	card := engagement.SchedulingCard()
	inner := max(width-4, 20)
	body := lipgloss.NewStyle().Width(inner).Render(card.Body)
	actions := t.action.Render(card.PrimaryAction) + "  " + t.action.Render(card.SecondaryAction)
	return t.card.Render(lipgloss.JoinVertical(lipgloss.Left,
		t.title.Render(card.Title),
		body,
		"",
		actions,
	))
}

// renderQuickReplies numbers the chips so they can be picked with alt+N.
func renderQuickReplies(t chatTheme, replies []string) string {
	if len(replies) == 0 {
		return ""
	}
	chips := make([]string, 0, len(replies))
	for i, r := range replies {
		chips = append(chips, t.chip.Render(fmt.Sprintf("%d. %s", i+1, r)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

// renderClosed draws the collapsed widget: the teaser bubble when it is
// showing, a hint otherwise.
func renderClosed(t chatTheme, s engagement.Snapshot) string {
	if s.TeaserShown {
		return t.teaser.Render(s.TeaserText) + "\n" + t.help.Render("tab abre o chat · /dismiss fecha o balão")
	}
	return t.help.Render("chat fechado · tab para abrir")
}
