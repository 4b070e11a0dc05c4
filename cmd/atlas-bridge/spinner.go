package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/entrhq/atlas-bridge/pkg/workflow"
)

type workDoneMsg struct {
	err error
}

// stepMsg carries the workflow step currently running.
type stepMsg string

type workSpinnerModel struct {
	spinner spinner.Model
	label   string
	step    string
	steps   <-chan string
	work    tea.Cmd
	err     error
	done    bool
}

func newWorkSpinnerModel(label string, steps <-chan string, work tea.Cmd) workSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return workSpinnerModel{
		spinner: s,
		label:   label,
		steps:   steps,
		work:    work,
	}
}

// waitForStep delivers the next reported step. It yields nothing once the
// work has finished and the channel is closed.
func waitForStep(steps <-chan string) tea.Cmd {
	if steps == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-steps
		if !ok {
			return nil
		}
		return stepMsg(s)
	}
}

func (m workSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work, waitForStep(m.steps))
}

func (m workSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepMsg:
		m.step = string(msg)
		return m, waitForStep(m.steps)
	case workDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m workSpinnerModel) View() string {
	if m.done {
		return ""
	}

	if m.step == "" {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	}
	return fmt.Sprintf("%s %s %s", m.spinner.View(), m.label, labelStyle.Render(m.step))
}

// runWithSpinner runs work while a spinner animates on output, showing the
// workflow step reported through ctx. When output is not a terminal, work
// runs without one.
func runWithSpinner(ctx context.Context, output io.Writer, label string, work func(context.Context) error) error {
	if !isTerminal(output) {
		return work(ctx)
	}

	steps := make(chan string, 8)
	ctx = workflow.WithProgress(ctx, func(step string) {
		// steps are dropped while the view lags behind
		select {
		case steps <- step:
		default:
		}
	})
	workCmd := func() tea.Msg {
		err := work(ctx)
		close(steps)
		return workDoneMsg{err: err}
	}

	p := tea.NewProgram(
		newWorkSpinnerModel(label, steps, workCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(workSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
