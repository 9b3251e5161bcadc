package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/cellar/internal/cli"
	cerrors "github.com/matzehuels/cellar/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, "Error:", cerrors.UserMessage(err))
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	c := cli.New(os.Stderr, cli.LogInfo)
	return c.RootCommand().ExecuteContext(ctx)
}

// exitCode maps failures that scripts commonly test for to distinct codes.
func exitCode(err error) int {
	switch cerrors.GetCode(err) {
	case cerrors.ErrCodePackageNotFound, cerrors.ErrCodeNotInstalled, cerrors.ErrCodeNoSuchKeg:
		return 2
	case cerrors.ErrCodeLocked:
		return 3
	default:
		return 1
	}
}
