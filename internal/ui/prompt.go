package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// Prompter asks the user questions. The interactive commands take one so
// tests can script the answers.
type Prompter interface {
	Select(message string, options []string, def string) (string, error)
	Input(message, def string) (string, error)
	Password(message string) (string, error)
	Confirm(message string, def bool) (bool, error)
}

// SurveyPrompter prompts on the terminal
type SurveyPrompter struct{}

// Select displays a searchable selection prompt
func (SurveyPrompter) Select(message string, options []string, def string) (string, error) {
	var result string
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 10,
		Filter: func(filter string, value string, index int) bool {
			return strings.Contains(strings.ToLower(value), strings.ToLower(filter))
		},
	}
	if def != "" {
		prompt.Default = def
	}
	err := survey.AskOne(prompt, &result)
	return result, err
}

// Input displays a text input prompt
func (SurveyPrompter) Input(message, def string) (string, error) {
	var result string
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &result)
	return result, err
}

// Password displays a masked input prompt
func (SurveyPrompter) Password(message string) (string, error) {
	var result string
	err := survey.AskOne(&survey.Password{Message: message}, &result)
	return result, err
}

// Confirm displays a yes/no prompt
func (SurveyPrompter) Confirm(message string, def bool) (bool, error) {
	result := def
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &result)
	return result, err
}

// SelectInt offers ints as choices and parses the answer back
func SelectInt(p Prompter, message string, options []int) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("%s: nothing to choose from", message)
	}
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = strconv.Itoa(o)
	}
	answer, err := p.Select(message, labels, labels[len(labels)-1])
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(answer)
}

// InputInt asks for a positive integer, falling back to def on empty input
func InputInt(p Prompter, message string, def int) (int, error) {
	answer, err := p.Input(message, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a positive number", answer)
	}
	return n, nil
}
