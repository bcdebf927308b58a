package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// App is the linked CLI application.
type App struct {
	name     string
	help     string
	main     *command
	commands map[string]*command
	names    []string
}

// Commands lists the named commands, sorted.
func (a *App) Commands() []string { return append([]string(nil), a.names...) }

// HasMain reports whether the app runs a single MAIN command.
func (a *App) HasMain() bool { return a.main != nil }

// Run parses argv and dispatches it. A MAIN command always runs with every
// positional argument. Otherwise the first positional selects the command and
// is dropped from its arguments. --help or -h prints help instead of running
// anything.
func (a *App) Run(ctx context.Context, argv []string, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	args := Parse(argv, "help", "h")
	help := args.Bool("help") || args.Bool("h")

	if a.main != nil {
		if help {
			return printHelp(out, a.main)
		}
		return a.main.run(NewContext(ctx, args, out))
	}

	if len(args.Positional) == 0 {
		if help {
			return a.usage(out)
		}
		return &MissingCommandError{}
	}
	name := args.Positional[0]
	cmd, ok := a.commands[name]
	if !ok {
		return &NotFoundError{Command: name}
	}
	if help {
		return printHelp(out, cmd)
	}
	args.Positional = args.Positional[1:]
	return cmd.run(NewContext(ctx, args, out))
}

func printHelp(out io.Writer, cmd *command) error {
	help := cmd.Help()
	if help == "" {
		return &MissingHelpError{Command: cmd.name}
	}
	_, err := fmt.Fprintln(out, help)
	return err
}

func (a *App) usage(out io.Writer) error {
	if a.help != "" {
		fmt.Fprintf(out, "%s\n\n", a.help)
	}
	fmt.Fprintf(out, "Usage: %s <command> [options]\n\nCommands:\n", a.name)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range a.names {
		fmt.Fprintf(tw, "  %s\t%s\n", name, a.commands[name].Help())
	}
	return tw.Flush()
}

// Print writes a command result: strings and byte slices verbatim, Stringers
// through String, nil not at all, anything else as indented JSON.
func Print(out io.Writer, v any) error {
	var err error
	switch v := v.(type) {
	case nil:
	case string:
		_, err = fmt.Fprintln(out, v)
	case []byte:
		_, err = out.Write(v)
	case fmt.Stringer:
		_, err = fmt.Fprintln(out, v.String())
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	}
	return err
}
