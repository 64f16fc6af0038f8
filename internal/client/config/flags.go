package config

import (
	"flag"
	"os"

	"github.com/framezapp/framez/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-u string   backend project URL
//	-k string   backend anon key
//	-b string   storage bucket for post images
//	-l string   local callback listen address
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-k", "-b", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "u", cfg.BackendURL, "backend project URL")
	fs.StringVar(&cfg.AnonKey, "k", cfg.AnonKey, "backend anon key")
	fs.StringVar(&cfg.Bucket, "b", cfg.Bucket, "storage bucket for post images")
	fs.StringVar(&cfg.CallbackAddr, "l", cfg.CallbackAddr, "local callback listen address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
