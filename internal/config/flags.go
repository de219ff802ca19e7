package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/waterwatch/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, so the config file flag does not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-n", "-k", "-l", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.Namespace, "n", cfg.Namespace, "secure store namespace")
	fs.StringVar(&cfg.KeyFile, "k", cfg.KeyFile, "master key file")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (text, json, console)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
