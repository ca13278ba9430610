package config

import (
	"flag"
	"os"
	"time"

	"github.com/serviya/serviya-go/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the backend
//	-k string   API key
//	-t int      request timeout in seconds
//	-r int      max retries for transient failures
//	-d string   credential database path
//
// Arguments are filtered through flagx.FilterArgs so CLI subcommands and the
// -c/-config flag keep working untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-t", "-r", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "base URL of the backend")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "API key")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	retries := fs.Uint64("r", cfg.MaxRetries, "max retries for transient failures")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "credential database path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Whole-second flags must not clobber finer-grained values coming from
	// the JSON file, so they apply only when actually passed.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		case "r":
			cfg.MaxRetries = *retries
		}
	})
}
