package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/spf13/cast"
)

// CancelToken backs out of any prompt that can be cancelled
const CancelToken = "c"

var (
	// ErrCancelled is returned when the player backs out of a prompt
	ErrCancelled = errors.New("cancelled")
	// ErrInputClosed is returned when the input stream ends
	ErrInputClosed = errors.New("input closed")
)

// Prompter asks questions on a line-based terminal and keeps asking until
// it gets a valid answer.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter creates a prompter reading answers from in and writing
// questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Out is where questions and messages are written
func (p *Prompter) Out() io.Writer {
	return p.out
}

// Println writes a line of output
func (p *Prompter) Println(a ...interface{}) {
	fmt.Fprintln(p.out, a...)
}

// Printf writes formatted output
func (p *Prompter) Printf(format string, a ...interface{}) {
	fmt.Fprintf(p.out, format, a...)
}

func (p *Prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !strings.HasSuffix(prompt, "\n") {
		fmt.Fprintln(p.out)
	}
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInputClosed, err)
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// parseInt reads a decimal integer. Leading zeros are dropped first so "08"
// is eight rather than a malformed octal literal.
func parseInt(s string) (int, error) {
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	if s == "" || strings.ContainsAny(s, "xXoObB_.") {
		return 0, fmt.Errorf("not an integer")
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	return cast.ToIntE(sign + s)
}

// Int asks for an integer within [lower, upper]
func (p *Prompter) Int(prompt string, lower, upper int) (int, error) {
	for {
		answer, err := p.ask(prompt)
		if err != nil {
			return 0, err
		}
		n, err := parseInt(answer)
		if err != nil {
			p.Println("Answer is not an integer")
			continue
		}
		if n < lower || n > upper {
			p.Println("Answer is out of range")
			continue
		}
		return n, nil
	}
}

// IntAtLeast asks for an integer no smaller than lower
func (p *Prompter) IntAtLeast(prompt string, lower int) (int, error) {
	return p.Int(prompt, lower, math.MaxInt)
}

// Menu lists options numbered from 1 and returns the chosen index, counting
// from 0
func (p *Prompter) Menu(question string, options []string) (int, error) {
	var b strings.Builder
	b.WriteString(question)
	for i, option := range options {
		fmt.Fprintf(&b, "\n%d) %s", i+1, option)
	}
	b.WriteString("\n")
	n, err := p.Int(b.String(), 1, len(options))
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

// MenuWithCancel is Menu with a trailing Cancel option that returns
// ErrCancelled
func (p *Prompter) MenuWithCancel(question string, options []string) (int, error) {
	choice, err := p.Menu(question, append(append([]string{}, options...), "Cancel"))
	if err != nil {
		return 0, err
	}
	if choice == len(options) {
		return 0, ErrCancelled
	}
	return choice, nil
}

// Confirm asks a yes or no question
func (p *Prompter) Confirm(prompt string) (bool, error) {
	for {
		answer, err := p.ask(prompt + " (y or n)\n")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
		p.Println("Invalid answer")
	}
}

// Key is a single-key option
type Key struct {
	Key   string
	Label string
}

// Choice asks the player to press one of keys, case-insensitively. A
// trailing "C) Cancel" option is always offered.
func (p *Prompter) Choice(question string, keys []Key) (string, error) {
	var b strings.Builder
	b.WriteString(question)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s) %s", strings.ToUpper(k.Key), k.Label)
	}
	b.WriteString("\nC) Cancel\n")

	for {
		answer, err := p.ask(b.String())
		if err != nil {
			return "", err
		}
		if strings.EqualFold(answer, CancelToken) {
			return "", ErrCancelled
		}
		if len(answer) != 1 {
			p.Println("That answer is invalid")
			continue
		}
		for _, k := range keys {
			if strings.EqualFold(answer, k.Key) {
				return strings.ToUpper(k.Key), nil
			}
		}
		p.Printf("Answer must not contain %s\n", answer)
	}
}

// Text asks for free text between minLen and maxLen characters
func (p *Prompter) Text(prompt string, minLen, maxLen int) (string, error) {
	for {
		answer, err := p.ask(prompt)
		if err != nil {
			return "", err
		}
		if n := len([]rune(answer)); n < minLen || n > maxLen {
			p.Println("That answer is invalid")
			continue
		}
		return answer, nil
	}
}

// Coord asks for a coordinate on a length x width board. Typing the cancel
// token returns ErrCancelled.
func (p *Prompter) Coord(prompt string, length, width int) (engine.Coord, error) {
	example := engine.FormatCoord(engine.Coord{}, width)
	question := fmt.Sprintf("%s Enter coordinate (e.g., %s, '%s' to cancel)\n", prompt, example, CancelToken)
	for {
		answer, err := p.ask(question)
		if err != nil {
			return engine.Coord{}, err
		}
		if strings.EqualFold(answer, CancelToken) {
			return engine.Coord{}, ErrCancelled
		}
		c, err := engine.ParseCoord(answer, length, width)
		if err != nil {
			switch {
			case errors.Is(err, engine.ErrOutOfBounds):
				p.Println("Coordinate is out of bounds")
			default:
				p.Println("Coordinate is not valid")
			}
			continue
		}
		return c, nil
	}
}
