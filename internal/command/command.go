// Package command runs helper programs (such as man(1)) on behalf of the reactor command.
package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// New constructs a new [exec.Cmd] with the given arguments, leaving its stdout and stderr connected
// to stdout and stderr.
func New(ctx context.Context, wd string, args ...string) *exec.Cmd {
	slog.DebugContext(ctx, "running command", "wd", wd, "args", args)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = wd
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Feed runs the command with stdin connected to in and waits for it to exit.
func Feed(ctx context.Context, in io.Reader, wd string, args ...string) error {
	cmd := New(ctx, wd, args...)
	cmd.Stdin = in
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %q failed: %w", strings.Join(args, " "), err)
	}
	return nil
}
