// Package main provides the radioforms CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fieldworks/radioforms/pkg/types"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "radioforms:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error to the CLI exit code: validation and
// state-machine rejections are user errors, everything else is a
// system error.
func exitCodeFor(err error) int {
	var vErr *types.ValidationError
	var tErr *types.TransitionError
	var cErr *types.ConfigError
	switch {
	case errors.As(err, &vErr), errors.As(err, &tErr), errors.As(err, &cErr):
		return exitUserError
	case errors.Is(err, types.ErrNotFound), errors.Is(err, errUsage):
		return exitUserError
	default:
		return exitSysError
	}
}
