// Package prompt asks the user the few questions a watch session needs.
package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/yato-cli/yato/util"
)

var (
	// ErrNotInteractive is returned when stdin or stdout is not a terminal.
	ErrNotInteractive = errors.New("not an interactive terminal")
	// ErrCancelled is returned when the user interrupts a prompt.
	ErrCancelled = errors.New("cancelled by user")
)

// Prompter asks questions through survey.
type Prompter struct {
	// Interactive reports whether a terminal is attached. Defaults to util.IsTerminal.
	Interactive func() bool
	opts        []survey.AskOpt
}

// New returns a Prompter bound to the process terminal.
func New(opts ...survey.AskOpt) *Prompter {
	return &Prompter{Interactive: util.IsTerminal, opts: opts}
}

func (p *Prompter) ask(q survey.Prompt, response any, opts ...survey.AskOpt) error {
	if p.Interactive != nil && !p.Interactive() {
		return ErrNotInteractive
	}

	err := survey.AskOne(q, response, append(p.opts, opts...)...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrCancelled
	}
	return err
}

// Confirm asks a yes/no question defaulting to yes.
func (p *Prompter) Confirm(message string) (bool, error) {
	var answer bool
	err := p.ask(&survey.Confirm{Message: message, Default: true}, &answer)
	return answer, err
}

// Score asks for a score between 1 and 10.
func (p *Prompter) Score() (float64, error) {
	var answer string
	err := p.ask(&survey.Input{
		Message: "Rate this anime (1-10):",
		Help:    "The score is sent to AniList",
	}, &answer, survey.WithValidator(validateScore))
	if err != nil {
		return 0, err
	}

	return parseScore(answer)
}

// Input asks for a line of text. Empty answers are rejected.
func (p *Prompter) Input(message string) (string, error) {
	var answer string
	err := p.ask(&survey.Input{Message: message}, &answer, survey.WithValidator(survey.Required))
	return strings.TrimSpace(answer), err
}

// Select asks the user to pick one of options and returns its index.
func (p *Prompter) Select(message string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("nothing to select")
	}

	var index int
	err := p.ask(&survey.Select{
		Message: message,
		Options: options,
	}, &index, survey.WithPageSize(util.Clamp(len(options), 1, 15)))
	return index, err
}

func parseScore(answer string) (float64, error) {
	score, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
	if err != nil {
		return 0, fmt.Errorf("score must be a number: %w", err)
	}
	if score < 1 || score > 10 {
		return 0, fmt.Errorf("score must be between 1 and 10, got %v", score)
	}
	return score, nil
}

func validateScore(answer any) error {
	s, ok := answer.(string)
	if !ok {
		return fmt.Errorf("unexpected answer type %T", answer)
	}
	_, err := parseScore(s)
	return err
}
