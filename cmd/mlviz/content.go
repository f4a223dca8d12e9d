package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/config"
	"github.com/san-kum/mlviz/internal/content"
	"github.com/san-kum/mlviz/internal/experiment"
	"github.com/spf13/cobra"
)

var (
	errorPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#ff4444")).
			Padding(0, 1)
	errorTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
	rawStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
	rightStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	wrongStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
)

func listCourses(cmd *cobra.Command, args []string) error {
	fmt.Printf("%s (%d/%d ready)\n\n", content.Module1.Name, content.Completed(), len(content.Module1.Courses))
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "#", "Title", "Duration", "Difficulty", "Exercises", "Status")
	for _, c := range content.Catalog() {
		if err := table.Append([]string{
			c.ID,
			strconv.Itoa(c.Number),
			c.Title,
			c.Duration,
			c.Difficulty,
			strconv.Itoa(c.Exercises),
			string(c.Status),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func newFetcher(cmd *cobra.Command) (*content.Fetcher, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("base-url") {
		cfg.Content.BaseURL = baseURL
	}
	if cfg.Content.BaseURL == "" {
		return nil, errors.New("no content server configured (set --base-url or content.base_url)")
	}
	return content.NewFetcher(cfg.Content, nil)
}

func fetchLesson(cmd *cobra.Command, id string) (content.Course, []byte, error) {
	f, err := newFetcher(cmd)
	if err != nil {
		return content.Course{}, nil, err
	}
	defer f.Close()
	c, body, err := f.Lesson(context.Background(), id)
	var fe *content.FetchError
	if errors.As(err, &fe) && fe.Retryable() {
		return c, nil, fmt.Errorf("%w (try again later)", err)
	}
	return c, body, err
}

func showLesson(cmd *cobra.Command, args []string) error {
	c, body, err := fetchLesson(cmd, args[0])
	if err != nil {
		return err
	}
	title := content.Title(body)
	if title == "" {
		title = c.Title
	}
	fmt.Printf("%s  %s\n", c.ID, title)
	fmt.Printf("%s, %s, %d exercises\n\n", c.Duration, c.Difficulty, c.Exercises)
	for _, o := range c.Objectives {
		fmt.Printf("  - %s\n", o)
	}

	registry := experiment.NewRegistry()
	widgets := content.Widgets(body, registry.Has)
	if len(widgets) > 0 {
		fmt.Println("\nwidgets:")
	}
	quiz := 0
	for _, w := range widgets {
		switch w.Kind {
		case content.WidgetQuiz:
			quiz++
			if w.Err != nil {
				fmt.Printf("  line %-4d quiz %d (malformed)\n", w.Line, quiz)
				continue
			}
			fmt.Printf("  line %-4d quiz %d: %s\n", w.Line, quiz, w.Quiz.Question)
		case content.WidgetVisualization:
			fmt.Printf("  line %-4d visualization: mlviz tui %s\n", w.Line, w.Language)
		case content.WidgetTrainingFlow:
			fmt.Printf("  line %-4d training flow: mlviz tui ml-training-flow\n", w.Line)
		case content.WidgetDiagram:
			fmt.Printf("  line %-4d diagram\n", w.Line)
		}
	}

	if htmlOut != "" {
		html, err := content.RenderHTML(body)
		if err != nil {
			return err
		}
		if err := os.WriteFile(htmlOut, html, 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", htmlOut)
	}
	return nil
}

func answerQuiz(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return fmt.Errorf("quiz number must be a positive integer, got %q", args[1])
	}
	_, body, err := fetchLesson(cmd, args[0])
	if err != nil {
		return err
	}
	var quizzes []content.Widget
	for _, w := range content.Widgets(body, nil) {
		if w.Kind == content.WidgetQuiz {
			quizzes = append(quizzes, w)
		}
	}
	if n > len(quizzes) {
		return fmt.Errorf("%s has %d quizzes", args[0], len(quizzes))
	}
	w := quizzes[n-1]
	if w.Err != nil {
		var qe *content.QuizError
		raw := w.Body
		if errors.As(w.Err, &qe) {
			raw = qe.Raw
		}
		fmt.Println(errorPanel.Render(
			errorTitle.Render("quiz failed to load") + "\n" +
				w.Err.Error() + "\n\n" +
				rawStyle.Render(strings.TrimRight(raw, "\n"))))
		return nil
	}

	q := w.Quiz
	fmt.Println(promptStyle.Render(q.Question))
	if q.Type == content.Multiple {
		fmt.Println("(several answers)")
	}
	for _, o := range q.Options {
		fmt.Printf("  %s) %s\n", o.ID, o.Text)
	}
	if len(answers) == 0 {
		fmt.Printf("\nanswer with: mlviz quiz %s %d --answer <id>\n", args[0], n)
		return nil
	}

	res, err := q.Grade(answers)
	if err != nil {
		return err
	}
	fmt.Println()
	if res.Correct {
		fmt.Println(rightStyle.Render("correct"))
	} else {
		fmt.Println(wrongStyle.Render("not quite"))
		if len(res.Wrong) > 0 {
			fmt.Printf("  wrong: %s\n", strings.Join(res.Wrong, ", "))
		}
		if len(res.Missed) > 0 {
			fmt.Printf("  missed: %s\n", strings.Join(res.Missed, ", "))
		}
	}
	if q.Explanation != "" {
		fmt.Printf("\n%s\n", q.Explanation)
	}
	return nil
}
