package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"agatypes/internal/engine/types"
)

const versionString = "1.0.0"
const defaultConfigPath = "./agatypes.toml"

const usage = `usage: agatypes [flags] <command> [args]

commands:
  tokens <file>                        print the file's tokens as JSON
  type <file> <line> <col>             print the type at a position
  hover <file> <line> <col>            print the hover text at a position
  definition <file> <line> <col>       print where the symbol is defined
  hints <file>                         print inline type hints
  rename <file> <line> <col> <name>    print the edits of a rename
  complete <file>                      print completion labels
  semantic <file>                      print legend-mapped semantic tokens
  watch [paths...]                     refresh files as they are saved
  inspect <file>                       browse tokens in a terminal UI

Lines and columns are 0-based.
`

type cliOptions struct {
	configPath string
	maxLength  int
	verbose    bool
	version    bool
	command    string
	args       []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("agatypes", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fmt.Fprintln(stderr, "\nflags:")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.IntVar(&opts.maxLength, "max", -1, "Maximum rendered type length for the type command (-1 for no limit)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		opts.command = rest[0]
		args, err := trailingMax(rest[1:], &opts.maxLength)
		if err != nil {
			return cliOptions{}, err
		}
		opts.args = args
	}
	return opts, nil
}

// trailingMax accepts --max after the positional arguments, where the flag
// package no longer looks.
func trailingMax(args []string, maxLength *int) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		value, found := "", false
		switch {
		case a == "--max" || a == "-max":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("flag needs an argument: %s", a)
			}
			value, found = args[i+1], true
			i++
		case strings.HasPrefix(a, "--max="), strings.HasPrefix(a, "-max="):
			value, found = a[strings.Index(a, "=")+1:], true
		}
		if !found {
			out = append(out, a)
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for --max", value)
		}
		*maxLength = n
	}
	return out, nil
}

// commandArity is the number of positional arguments each command takes;
// -1 means any.
var commandArity = map[string]int{
	"tokens":     1,
	"type":       3,
	"hover":      3,
	"definition": 3,
	"hints":      1,
	"rename":     4,
	"complete":   1,
	"semantic":   1,
	"watch":      -1,
	"inspect":    1,
}

func validateCommand(opts cliOptions) error {
	if opts.command == "" {
		return fmt.Errorf("a command is required")
	}
	n, ok := commandArity[opts.command]
	if !ok {
		return fmt.Errorf("unknown command %q", opts.command)
	}
	if n >= 0 && len(opts.args) != n {
		return fmt.Errorf("%s takes %d argument(s), got %d", opts.command, n, len(opts.args))
	}
	return nil
}

func parsePosition(line, col string) (types.Position, error) {
	l, err := strconv.Atoi(line)
	if err != nil || l < 0 {
		return types.Position{}, fmt.Errorf("invalid line %q", line)
	}
	c, err := strconv.Atoi(col)
	if err != nil || c < 0 {
		return types.Position{}, fmt.Errorf("invalid column %q", col)
	}
	return types.Position{Line: l, Column: c}, nil
}
