package biometric

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/mrz1836/lockgate/internal/lock"
)

// ReasonEnv carries the challenge reason to the external verifier.
const ReasonEnv = "LOCKGATE_REASON"

// Command delegates each challenge to an external program. Exit status 0
// means the user was verified; any other exit status means they were not.
type Command struct {
	name     string
	args     []string
	modality lock.Modality

	once     sync.Once
	resolved string
	lookErr  error
}

// NewCommand parses a whitespace-separated command line such as
// "fprintd-verify" or "fprintd-verify -f right-index-finger".
func NewCommand(line string, modality lock.Modality) *Command {
	fields := strings.Fields(line)
	c := &Command{modality: modality}
	if len(fields) > 0 {
		c.name = fields[0]
		c.args = fields[1:]
	}
	return c
}

func (c *Command) resolve() (string, error) {
	c.once.Do(func() {
		if c.name == "" {
			c.lookErr = errors.New("no biometric command configured") //nolint:err113 // Reported once per process
			return
		}
		c.resolved, c.lookErr = exec.LookPath(c.name)
	})
	return c.resolved, c.lookErr
}

// Available reports whether the command exists on PATH and a modality is set.
func (c *Command) Available() bool {
	if c.modality == lock.ModalityNone {
		return false
	}
	_, err := c.resolve()
	return err == nil
}

// Modality returns the configured sensor kind.
func (c *Command) Modality() lock.Modality { return c.modality }

// Authenticate runs the command and waits for it. Ending ctx kills it.
func (c *Command) Authenticate(ctx context.Context, reason string) (bool, error) {
	path, err := c.resolve()
	if err != nil {
		return false, err
	}

	cmd := exec.CommandContext(ctx, path, c.args...) //nolint:gosec // Command comes from the user's own config
	cmd.Env = append(os.Environ(), ReasonEnv+"="+reason)

	out, err := cmd.CombinedOutput()
	if err == nil {
		return true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, fmt.Errorf("running %s: %w (%s)", c.name, err, strings.TrimSpace(string(out)))
}
