package console

import (
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes = "y"
	No  = "n"
)

// Confirm asks a yes/no question. An empty or unknown answer picks def.
func Confirm(question string, def bool) (bool, error) {
	choices := "[y/N]"
	if def {
		choices = "[Y/n]"
	}
	rl, err := readline.New(question + " " + choices + ": ")
	if err != nil {
		return false, err
	}
	defer func() { _ = rl.Close() }()
	response, err := rl.Readline()
	if err != nil {
		return false, err
	}
	return parseAnswer(response, def), nil
}

func parseAnswer(response string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(response)) {
	case Yes, "yes":
		return true
	case No, "no":
		return false
	default:
		return def
	}
}
