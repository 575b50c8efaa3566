package chat

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizchat/internal/quiz"
	"github.com/abhisek/quizchat/internal/ui/theme"
)

const (
	userLabel = "🧒 나"
	botLabel  = "🤖 퀴즈봇"
)

// View renders the transcript tail, the streaming reply, notices and the
// input line.
func (s *ChatScreen) View(width, height int) string {
	bodyWidth := width - 4
	s.input.Model.SetWidth(bodyWidth - 4)

	var b strings.Builder
	for _, m := range s.env.Session.Transcript() {
		b.WriteString(s.renderMessage(m, bodyWidth, true))
		b.WriteString("\n\n")
	}

	if s.turn != nil {
		if text := s.turn.UserText(); text != "" {
			b.WriteString(s.renderMessage(quiz.UserMessage(text), bodyWidth, false))
			b.WriteString("\n\n")
		}
		b.WriteString(theme.BotLabel.Render(botLabel) + " " + s.spinner.View())
		if partial := s.turn.Text(); partial != "" {
			b.WriteString("\n")
			b.WriteString(s.md.render(partial, bodyWidth, false))
		}
		b.WriteString("\n\n")
	}

	if s.info != "" {
		b.WriteString(theme.Info.Width(bodyWidth).Render(s.info))
		b.WriteString("\n\n")
	}
	if s.errMsg != "" {
		b.WriteString(theme.ErrorText.Width(bodyWidth).Render(s.errMsg))
		b.WriteString("\n\n")
	}

	rule := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(bodyWidth, 0)))
	footer := rule + "\n" + s.input.View()

	transcriptHeight := height - lipgloss.Height(footer)
	transcript := tail(strings.TrimRight(b.String(), "\n"), transcriptHeight)

	return lipgloss.NewStyle().
		Padding(0, 2).
		Render(lipgloss.NewStyle().Height(max(transcriptHeight, 0)).Render(transcript) + "\n" + footer)
}

func (s *ChatScreen) renderMessage(m quiz.Message, width int, cache bool) string {
	label := theme.BotLabel.Render(botLabel)
	if m.Role == quiz.RoleUser {
		label = theme.UserLabel.Render(userLabel)
	}
	return label + "\n" + s.md.render(m.Content, width, cache)
}

// tail keeps the last n lines of text.
func tail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
