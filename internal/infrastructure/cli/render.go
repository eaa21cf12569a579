package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskpilot/taskpilot/pkg/domain/conversation"
)

var (
	questionPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1).
				Width(76)

	questionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	questionHintStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	understandingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("36")).
				Italic(true)
)

// renderQuestion formats a clarifying question as a bordered panel with
// optional context and suggested answers.
func renderQuestion(index int, q conversation.Question) string {
	var b strings.Builder
	b.WriteString(questionTitleStyle.Render(fmt.Sprintf("Question %d", index)))
	b.WriteString("\n")
	b.WriteString(q.Question)
	if q.Context != "" {
		b.WriteString("\n")
		b.WriteString(questionHintStyle.Render(q.Context))
	}
	if len(q.Suggestions) > 0 {
		b.WriteString("\n")
		b.WriteString(questionHintStyle.Render("Suggestions: " + strings.Join(q.Suggestions, ", ")))
	}
	return questionPanelStyle.Render(b.String())
}

// isTerminal reports whether stdout is attached to a terminal.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// renderMarkdown pretty-prints Markdown for terminals and falls back to
// the raw text when rendering fails or stdout is piped.
func renderMarkdown(markdown string) string {
	if !isTerminal() {
		return markdown
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
