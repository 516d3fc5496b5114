package main

import (
	"fmt"
	"strconv"
	"strings"
)

// Command tables for abbreviation resolution (spec.md §6.1, ported from
// original_source/src/cli/abbrev.rs).
var topLevelCommands = []string{
	"projects", "add", "list", "modify", "on", "off", "offon", "onoff",
	"dequeue", "annotate", "finish", "close", "reopen", "delete", "enqueue",
	"sessions", "show", "queue",
}

var projectCommands = []string{"add", "list", "rename", "archive", "unarchive", "report"}
var sessionsCommands = []string{"list", "show", "modify", "delete", "add", "report"}
var queueCommands = []string{"show", "pick", "roll", "drop", "clear", "sort"}
var taskSubcommands = []string{"enqueue", "dequeue", "modify", "finish", "close", "delete", "annotate", "show", "on"}

func getSubcommands(command string) []string {
	switch command {
	case "projects":
		return projectCommands
	case "sessions":
		return sessionsCommands
	case "queue":
		return queueCommands
	default:
		return nil
	}
}

// findMatchingCommands returns every command in commands whose name starts
// with prefix, case-insensitively.
func findMatchingCommands(prefix string, commands []string) []string {
	lower := strings.ToLower(prefix)
	var out []string
	for _, c := range commands {
		if strings.HasPrefix(strings.ToLower(c), lower) {
			out = append(out, c)
		}
	}
	return out
}

// findUniqueCommand resolves prefix against commands. An exact
// case-insensitive match always wins over a prefix match — "on" matches
// "on", not "onoff" — even when "on" is itself also a prefix of another
// command. Otherwise a single prefix match is accepted; zero or multiple
// prefix matches are reported to the caller as ambiguity/no-match.
func findUniqueCommand(prefix string, commands []string) (string, []string, error) {
	lower := strings.ToLower(prefix)
	for _, c := range commands {
		if strings.ToLower(c) == lower {
			return c, nil, nil
		}
	}
	matches := findMatchingCommands(prefix, commands)
	switch len(matches) {
	case 0:
		return "", nil, errNoMatch
	case 1:
		return matches[0], nil, nil
	default:
		return "", matches, errAmbiguous
	}
}

var errNoMatch = fmt.Errorf("no matching command")
var errAmbiguous = fmt.Errorf("ambiguous command")

func isFlag(s string) bool { return strings.HasPrefix(s, "-") }

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// expandCommandAbbreviations rewrites argv so unique command/subcommand
// prefixes become their full names and a leading "<id> <subcommand>" pair is
// normalized to "<subcommand> <id>" before cobra ever sees it (spec.md §6.1
// "Task-id-first syntax"). It is a direct port of
// original_source/src/cli/abbrev.rs's expand_command_abbreviations.
func expandCommandAbbreviations(args []string) ([]string, error) {
	if len(args) == 0 {
		return args, nil
	}

	out := make([]string, 0, len(args))
	i := 0
	for i < len(args) {
		arg := args[i]

		if i == 0 && !isFlag(arg) && !isInteger(arg) {
			full, matches, err := findUniqueCommand(arg, topLevelCommands)
			switch err {
			case nil:
				out = append(out, full)
				if subs := getSubcommands(full); subs != nil && i+1 < len(args) {
					next := args[i+1]
					if !isFlag(next) && !isInteger(next) {
						subFull, subMatches, subErr := findUniqueCommand(next, subs)
						switch subErr {
						case nil:
							out = append(out, subFull)
							i += 2
							continue
						case errAmbiguous:
							return nil, fmt.Errorf("ambiguous subcommand '%s'. Did you mean one of: %s?", next, strings.Join(subMatches, ", "))
						default: // errNoMatch: next could be a filter/task-id token
						}
					}
				}
				i++
				continue
			case errAmbiguous:
				return nil, fmt.Errorf("ambiguous command '%s'. Did you mean one of: %s?", arg, strings.Join(matches, ", "))
			default: // errNoMatch: arg could be a filter token, pass through
			}
			out = append(out, arg)
			i++
			continue
		}

		if i == 0 && !isFlag(arg) && isInteger(arg) && i+1 < len(args) {
			next := args[i+1]
			if !isFlag(next) {
				subFull, subMatches, subErr := findUniqueCommand(next, taskSubcommands)
				switch subErr {
				case nil:
					out = append(out, subFull, arg)
					i += 2
					continue
				case errAmbiguous:
					return nil, fmt.Errorf("ambiguous task subcommand '%s'. Did you mean one of: %s?", next, strings.Join(subMatches, ", "))
				default: // errNoMatch: next could be a filter token
				}
			}
		}

		out = append(out, arg)
		i++
	}
	return out, nil
}
