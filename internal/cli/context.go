package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lockgate/internal/biometric"
	"github.com/mrz1836/lockgate/internal/config"
	"github.com/mrz1836/lockgate/internal/host"
	"github.com/mrz1836/lockgate/internal/lock"
	"github.com/mrz1836/lockgate/internal/metrics"
	"github.com/mrz1836/lockgate/internal/output"
	"github.com/mrz1836/lockgate/internal/store"
	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Config    *config.Config
	Logger    *config.Logger
	Formatter *output.Formatter
	Notifier  *output.Notifier
	Metrics   *metrics.Metrics

	// stdin is the raw input, kept to detect a terminal for hidden PIN entry.
	stdin io.Reader
	// Lines is the only reader of stdin. The host session, PIN prompts and
	// the prompted biometric all take their lines from it.
	Lines  *host.LineFeed
	ErrOut io.Writer
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(
	cfg *config.Config,
	logger *config.Logger,
	formatter *output.Formatter,
) *CommandContext {
	return &CommandContext{
		Config:    cfg,
		Logger:    logger,
		Formatter: formatter,
		Notifier:  output.NewNotifier(formatter.Writer(), os.Stderr, formatter.Format()),
		Metrics:   metrics.Global,
		stdin:     os.Stdin,
		Lines:     host.NewLineFeed(os.Stdin),
		ErrOut:    os.Stderr,
	}
}

// WithNotifier sets the toast notifier.
func (c *CommandContext) WithNotifier(n *output.Notifier) *CommandContext {
	c.Notifier = n
	return c
}

// WithInput sets where prompts and the host session read from.
func (c *CommandContext) WithInput(r io.Reader) *CommandContext {
	c.stdin = r
	c.Lines = host.NewLineFeed(r)
	return c
}

// WithErrOut sets where prompts are written.
func (c *CommandContext) WithErrOut(w io.Writer) *CommandContext {
	c.ErrOut = w
	return c
}

// WithMetrics sets the metrics sink.
func (c *CommandContext) WithMetrics(m *metrics.Metrics) *CommandContext {
	c.Metrics = m
	return c
}

// commandContext builds a CommandContext from the globals set up in
// PersistentPreRunE and the command's I/O streams.
func commandContext(cmd *cobra.Command) *CommandContext {
	return NewCommandContext(cfg, logger, formatter).
		WithNotifier(notifier).
		WithInput(cmd.InOrStdin()).
		WithErrOut(cmd.ErrOrStderr())
}

// Gate is an engine together with the store it persists to.
type Gate struct {
	*lock.Engine

	store *store.Store
}

// Backend names the store backend behind the gate.
func (g *Gate) Backend() string {
	return g.store.Backend()
}

// SettingsSavedAt reports when the settings were last written, where the
// backend tracks it.
func (g *Gate) SettingsSavedAt() (time.Time, bool, error) {
	return g.store.SettingsSavedAt()
}

// ClearStore deletes the stored records behind the gate. The engine's
// in-memory state is unchanged.
func (g *Gate) ClearStore() error {
	return g.store.Reset()
}

// Close stops the engine and releases the store.
func (g *Gate) Close() error {
	engineErr := g.Engine.Close()
	if err := g.store.Close(); err != nil {
		return err
	}
	return engineErr
}

// EngineOptions translates the configuration into engine options.
func (c *CommandContext) EngineOptions() ([]lock.Option, error) {
	hasher, err := lock.NewHasher(c.Config.Lock.HashScheme)
	if err != nil {
		return nil, err
	}

	return []lock.Option{
		lock.WithHasher(hasher),
		lock.WithTickInterval(time.Duration(c.Config.Lock.TickSeconds) * time.Second),
		lock.WithCorruptPolicy(lock.CorruptPolicy(c.Config.Lock.CorruptPolicy)),
		lock.WithBiometric(biometric.New(c.Config.Biometric, c.Lines, c.ErrOut)),
		lock.WithLogger(c.Logger),
		lock.WithMetrics(c.Metrics),
	}, nil
}

// OpenGate opens the configured store and builds an engine over it.
func (c *CommandContext) OpenGate(ctx context.Context) (*Gate, error) {
	opts, err := c.EngineOptions()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, c.Config)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("opened %s store at %s", st.Backend(), c.Config.StorePath())

	return &Gate{Engine: lock.NewEngine(st, opts...), store: st}, nil
}

// OpenEphemeralGate builds an engine over an in-memory copy of the
// configured store. The configured store is closed before returning.
func (c *CommandContext) OpenEphemeralGate(ctx context.Context) (*Gate, error) {
	opts, err := c.EngineOptions()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, c.Config)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	mem, err := store.CloneToMemory(st)
	if err != nil {
		return nil, gateerr.WithCause(gateerr.ErrStoreUnavailable, err)
	}
	c.Logger.Debug("ephemeral session over a copy of the %s store", st.Backend())

	return &Gate{Engine: lock.NewEngine(mem, opts...), store: mem}, nil
}
