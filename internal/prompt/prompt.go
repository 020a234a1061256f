// Package prompt asks an operator to pick among ranked flavor candidates.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// None is returned when no choice applies.
const None = -1

// Choice is one ranked option.
type Choice struct {
	Label string
	Score float64
}

// Chooser picks an index into choices, or None.
type Chooser interface {
	Choose(ctx context.Context, question string, choices []Choice) (int, error)
}

// Skip declines every question.
type Skip struct{}

func (Skip) Choose(context.Context, string, []Choice) (int, error) { return None, nil }

// Scripted replays fixed answers in order and records the questions asked.
// Once the answers run out it returns None.
type Scripted struct {
	mu        sync.Mutex
	Answers   []int
	Questions []string
	Offered   [][]Choice
}

func (s *Scripted) Choose(_ context.Context, question string, choices []Choice) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Questions = append(s.Questions, question)
	s.Offered = append(s.Offered, append([]Choice(nil), choices...))
	if len(s.Answers) == 0 {
		return None, nil
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	if answer < None || answer >= len(choices) {
		return None, fmt.Errorf("scripted answer %d out of range for %d choices", answer, len(choices))
	}
	return answer, nil
}

// Terminal prompts on a line-oriented reader and writer.
type Terminal struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewTerminal returns a Terminal reading from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{reader: bufio.NewReader(in), out: out}
}

// Choose renders the ranked options and reads a number. 0 selects "none of
// these"; invalid input is asked again; end of input answers None.
func (t *Terminal) Choose(ctx context.Context, question string, choices []Choice) (int, error) {
	if len(choices) == 0 {
		return None, nil
	}
	fmt.Fprintln(t.out, question)
	fmt.Fprintln(t.out, renderChoices(choices))
	for {
		fmt.Fprintf(t.out, "Select 1-%d (0 for none of these): ", len(choices))
		line, err := t.readLine(ctx)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(t.out)
			return None, nil
		}
		if err != nil {
			return None, err
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil || n < 0 || n > len(choices) {
			fmt.Fprintf(t.out, "Invalid selection %q\n", strings.TrimSpace(line))
			continue
		}
		return n - 1, nil
	}
}

type lineResult struct {
	line string
	err  error
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	done := make(chan lineResult, 1)
	go func() {
		line, err := t.reader.ReadString('\n')
		if err != nil && line != "" && errors.Is(err, io.EOF) {
			err = nil
		}
		done <- lineResult{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.line, res.err
	}
}

func renderChoices(choices []Choice) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Candidate", "Similarity"})
	for i, c := range choices {
		tw.AppendRow(table.Row{i + 1, c.Label, fmt.Sprintf("%.2f", c.Score)})
	}
	tw.AppendFooter(table.Row{0, "none of these", ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return tw.Render()
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ForStdio returns a Terminal chooser when interactive is requested and both
// stdin and stdout are terminals, and Skip otherwise.
func ForStdio(interactive bool) Chooser {
	if interactive && IsTerminal(os.Stdin) && IsTerminal(os.Stdout) {
		return NewTerminal(os.Stdin, os.Stdout)
	}
	return Skip{}
}
