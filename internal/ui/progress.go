package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrTransferCancelled is returned when the user interrupts a transfer.
var ErrTransferCancelled = errors.New("transfer cancelled")

type progressMsg struct{ current, total int64 }
type finishedMsg struct{ err error }

// ProgressModel is a bubbletea model showing a byte transfer.
type ProgressModel struct {
	err      error
	TaskName string
	progress progress.Model
	Total    int64
	Current  int64
	done     bool
}

func NewProgressModel(taskName string, total int64) ProgressModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)
	return ProgressModel{
		progress: p,
		TaskName: taskName,
		Total:    total,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - padding*2 - 4
		if m.progress.Width > maxWidth {
			m.progress.Width = maxWidth
		}
		return m, nil

	case progressMsg:
		m.Current = msg.current
		if msg.total > 0 {
			m.Total = msg.total
		}
		return m, nil

	case finishedMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m ProgressModel) ratio() float64 {
	if m.Total <= 0 {
		return 0
	}
	r := float64(m.Current) / float64(m.Total)
	if r > 1 {
		r = 1
	}
	return r
}

func (m ProgressModel) View() string {
	if m.done {
		if m.err != nil {
			return fmt.Sprintf("Error: %v\n", m.err)
		}
		return fmt.Sprintf("Done! %s (%s)\n", m.TaskName, FormatSize(m.Current))
	}

	pad := strings.Repeat(" ", padding)
	counts := MutedStyle.Render(fmt.Sprintf("%s / %s", FormatSize(m.Current), FormatSize(m.Total)))
	return "\n" +
		pad + m.TaskName + "\n" +
		pad + m.progress.ViewAs(m.ratio()) + " " + counts + "\n\n"
}

const (
	padding  = 2
	maxWidth = 80
)

// RunTransfer runs action while showing progress. On a terminal a bubbletea
// progress bar is drawn on out; otherwise a single line is printed when done.
// The context passed to action is cancelled when the user quits the progress
// bar, and RunTransfer returns only after action has returned.
func RunTransfer(ctx context.Context, out io.Writer, taskName string, size int64, action func(ctx context.Context, send func(curr, total int64)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !IsTerminal(out) {
		var last int64
		err := action(ctx, func(curr, _ int64) { last = curr })
		if err == nil {
			fmt.Fprintf(out, "%s: %s\n", taskName, FormatSize(last))
		}
		return err
	}

	p := tea.NewProgram(NewProgressModel(taskName, size), tea.WithOutput(out))

	errCh := make(chan error, 1)
	go func() {
		err := action(ctx, func(curr, total int64) {
			p.Send(progressMsg{current: curr, total: total})
		})
		errCh <- err
		p.Send(finishedMsg{err: err})
	}()

	_, uiErr := p.Run()
	return settleTransfer(uiErr, errCh, cancel)
}

// settleTransfer returns the outcome of a transfer once its action has
// stopped. If the progress UI ended first, the action is cancelled and
// awaited so nothing writes after the caller regains control.
func settleTransfer(uiErr error, errCh <-chan error, cancel context.CancelFunc) error {
	select {
	case err := <-errCh:
		if uiErr != nil {
			return uiErr
		}
		return err
	default:
	}

	cancel()
	<-errCh
	if uiErr != nil {
		return uiErr
	}
	return ErrTransferCancelled
}
