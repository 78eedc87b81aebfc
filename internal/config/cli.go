package config

import (
	"flag"
	"fmt"
	"os"
)

// CLI holds the options parsed from the command line.
type CLI struct {
	Command        string
	ConfigPath     string
	LogLevel       string
	Workers        int
	NonInteractive bool
	TestMode       bool
	Detailed       bool
}

// ParseCLI parses os.Args into a CLI. The first argument selects the
// command: sync, compare or tree.
func ParseCLI(args []string) (*CLI, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: drivesync <command> [flags]\nCommands: sync, compare, tree")
	}

	cmd := args[1]
	switch cmd {
	case "sync", "compare", "tree":
	default:
		return nil, fmt.Errorf("unknown command: %s", cmd)
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	cli := &CLI{Command: cmd}

	fs.StringVar(&cli.ConfigPath, "config", "./config.json", "Path to the configuration file")
	fs.StringVar(&cli.LogLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	if cmd == "sync" {
		fs.IntVar(&cli.Workers, "workers", 0, "Number of concurrent file copies (overrides config)")
		fs.BoolVar(&cli.NonInteractive, "non-interactive", false, "Disable prompts and progress bars")
		fs.BoolVar(&cli.TestMode, "test", false, "Use the configured test folder pair")
	}
	if cmd == "compare" {
		fs.BoolVar(&cli.Detailed, "detailed", false, "Include per-file and per-folder listings")
	}

	if err := fs.Parse(args[2:]); err != nil {
		return nil, err
	}
	return cli, nil
}

// ParseArgs is the entry point used by main.
func ParseArgs() (*CLI, error) {
	return ParseCLI(os.Args)
}
