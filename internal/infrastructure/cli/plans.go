package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/pkg/storage"
)

var plansInteractive bool

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List saved plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := storage.NewHomeRepository()
		if err != nil {
			return err
		}
		summaries, err := repo.ListPlans()
		if err != nil {
			return MapError(err)
		}
		if len(summaries) == 0 {
			fmt.Println("No saved plans. Run 'taskpilot plan --save \"...\"' to create one.")
			return nil
		}

		if plansInteractive {
			if os.Getenv("TASKPILOT_SKIP_TUI") == "true" {
				return nil
			}
			p := tea.NewProgram(newPlansModel(summaries))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("plans browser failed: %w", err)
			}
			return nil
		}

		for _, s := range summaries {
			fmt.Printf("%s  %-40s %2d steps  %s\n", s.CreatedAt.Format("2006-01-02"), s.Title, s.Steps, s.Name)
		}
		return nil
	},
}

func init() {
	plansCmd.Flags().BoolVarP(&plansInteractive, "interactive", "i", false, "Browse plans in an interactive table")
	RootCmd.AddCommand(plansCmd)
}

// Styles
var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

var footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

type plansModel struct {
	table     table.Model
	summaries []storage.PlanSummary
	preview   string
	err       error
}

func newPlansModel(summaries []storage.PlanSummary) plansModel {
	columns := []table.Column{
		{Title: "Created", Width: 10},
		{Title: "Title", Width: 40},
		{Title: "Steps", Width: 5},
		{Title: "Name", Width: 30},
	}

	rows := []table.Row{}
	for _, s := range summaries {
		rows = append(rows, table.Row{
			s.CreatedAt.Format("2006-01-02"),
			s.Title,
			fmt.Sprintf("%d", s.Steps),
			s.Name,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	return plansModel{table: t, summaries: summaries}
}

func (m plansModel) Init() tea.Cmd { return nil }

func (m plansModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.preview = m.loadPreview()
			return m, nil
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m plansModel) loadPreview() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.summaries) {
		return ""
	}
	repo, err := storage.NewHomeRepository()
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	plan, err := repo.LoadPlan(m.summaries[idx].Name)
	if err != nil || plan == nil {
		return fmt.Sprintf("Could not load %s", m.summaries[idx].Name)
	}
	preview := fmt.Sprintf("%s\n%s\n", plan.Title, plan.Summary)
	for i, step := range plan.Steps {
		preview += fmt.Sprintf("%d. [%s] %s\n", i+1, step.Priority, step.Title)
	}
	return preview
}

func (m plansModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading plans: %v\nPress q to quit.", m.err)
	}

	header := headerStyle.Render(fmt.Sprintf("Saved plans (%d)", len(m.summaries)))
	footer := footerStyle.Render("enter: preview  q: quit")

	sections := []string{header, m.table.View()}
	if m.preview != "" {
		sections = append(sections, m.preview)
	}
	sections = append(sections, footer)

	return baseStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
