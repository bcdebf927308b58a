package console

import "fmt"

// MissingHelpError is returned when --help is requested for a command that
// declares no help text.
type MissingHelpError struct {
	Command string
}

func (e *MissingHelpError) Error() string {
	if e.Command == "" {
		return "no help available"
	}
	return fmt.Sprintf("no help available for command %q", e.Command)
}

// MissingCommandError is returned when an app with named commands is run
// without one.
type MissingCommandError struct{}

func (e *MissingCommandError) Error() string {
	return "missing command; run with --help to list commands"
}

// NotFoundError is returned for an unknown command name.
type NotFoundError struct {
	Command string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("command %q not found", e.Command)
}

// MainAndSubcommandsConflictError is returned at link time when an app
// declares a MAIN command next to named commands.
type MainAndSubcommandsConflictError struct {
	Main     string
	Commands []string
}

func (e *MainAndSubcommandsConflictError) Error() string {
	return fmt.Sprintf("main command %s cannot be combined with named commands %v", e.Main, e.Commands)
}

// DuplicateCommandNameError is returned at link time when two endpoints
// resolve to the same command name.
type DuplicateCommandNameError struct {
	Name string
}

func (e *DuplicateCommandNameError) Error() string {
	return fmt.Sprintf("duplicate command name %q", e.Name)
}

// InvalidFlagError is returned when a flag value cannot be read as the type
// a command asks for.
type InvalidFlagError struct {
	Flag  string
	Value any
	Want  string
}

func (e *InvalidFlagError) Error() string {
	return fmt.Sprintf("flag --%s: %v is not %s", e.Flag, e.Value, e.Want)
}
