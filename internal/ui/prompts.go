package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// ProjectPromptChoice is the user's answer to the project-not-found prompt
// (spec.md §6.1): create the project, leave the task project-less, or
// cancel the whole command.
type ProjectPromptChoice string

const (
	ProjectPromptCreate ProjectPromptChoice = "y"
	ProjectPromptLeave  ProjectPromptChoice = "n"
	ProjectPromptCancel ProjectPromptChoice = "c"
)

// PromptProjectNotFound asks whether to create a missing project name,
// defaulting to "y" (spec.md §6.1). On a TTY it renders a huh single-select
// form; otherwise it falls back to the plain bufio prompt below.
func PromptProjectNotFound(name string) (ProjectPromptChoice, error) {
	if !IsTerminal() {
		fmt.Printf("Project %q not found (non-interactive, defaulting to create)\n", name)
		return ProjectPromptCreate, nil
	}

	choice := string(ProjectPromptCreate)
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Project %q not found", name)).
				Options(
					huh.NewOption("Create it", string(ProjectPromptCreate)),
					huh.NewOption("Leave task project-less", string(ProjectPromptLeave)),
					huh.NewOption("Cancel command", string(ProjectPromptCancel)),
				).
				Value(&choice),
		),
	).Run()
	if err != nil {
		// EOF / interrupt: fall back to the default per spec.md §6.1.
		return ProjectPromptCreate, nil
	}
	return ProjectPromptChoice(choice), nil
}

// PromptYesNo displays a yes/no question and returns the user's answer.
// It defaults to the `defaultYes` value if the user just presses Enter or in non-interactive mode.
func PromptYesNo(question string, defaultYes bool) bool {
	var input string
	var prompt string

	if defaultYes {
		prompt = fmt.Sprintf("%s [Y/n] ", question)
	} else {
		prompt = fmt.Sprintf("%s [y/N] ", question)
	}

	// In non-interactive mode (e.g., CI/script), return default
	if !IsTerminal() {
		fmt.Printf("%s (non-interactive, defaulting to %t)\n", prompt, defaultYes)
		return defaultYes
	}

	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		// On error (e.g., EOF), default
		fmt.Printf("(error reading input, defaulting to %t)\n", defaultYes)
		return defaultYes
	}

	input = strings.ToLower(strings.TrimSpace(line))

	if input == "y" || input == "yes" {
		return true
	}
	if input == "n" || input == "no" {
		return false
	}

	// Default if empty or invalid input
	return defaultYes
}

// Prompt for simple string input
func Prompt(question, defaultValue string) string {
	var input string
	prompt := fmt.Sprintf("%s (default: %q): ", question, defaultValue)

	if !IsTerminal() {
		fmt.Printf("%s (non-interactive, defaulting to %q)\n", prompt, defaultValue)
		return defaultValue
	}

	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		fmt.Printf("(error reading input, defaulting to %q)\n", defaultValue)
		return defaultValue
	}

	input = strings.TrimSpace(line)
	if input == "" {
		return defaultValue
	}
	return input
}
