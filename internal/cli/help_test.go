package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renderHelp writes cmd's help into a buffer and restores the writer after.
func renderHelp(t *testing.T, cmd *cobra.Command) string {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	t.Cleanup(func() { cmd.SetOut(nil) })
	require.NoError(t, cmd.Help())
	return buf.String()
}

func TestAllCommandsHaveShortDescription(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Short, "%s: missing Short description", cmd.CommandPath())
		})
	})
}

func TestAllCommandsHaveLongDescription(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Long, "%s: missing Long description", cmd.CommandPath())
		})
	})
}

// TestLeafCommandsHaveExamples checks every runnable command carries an Example.
func TestLeafCommandsHaveExamples(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		// cobra's own help command is added on first Execute
		if (cmd.RunE == nil && cmd.Run == nil) || cmd.Name() == "help" {
			return
		}
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Example, "%s: leaf command missing Example field", cmd.CommandPath())
		})
	})
}

func TestNoEmbeddedExamplesInLong(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.False(t,
				strings.Contains(cmd.Long, "\nExample:") || strings.Contains(cmd.Long, "\nExamples:"),
				"%s: Long contains embedded examples; move to Example field", cmd.CommandPath())
		})
	})
}

func TestAllFlagsHaveDescriptions(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			t.Run(cmd.CommandPath()+"/--"+f.Name, func(t *testing.T) {
				assert.NotEmpty(t, f.Usage, "flag --%s on %s has no description", f.Name, cmd.CommandPath())
			})
		})
	})
}

func TestCommandGroupsAssigned(t *testing.T) {
	for _, cmd := range rootCmd.Commands() {
		if !cmd.IsAvailableCommand() {
			continue
		}
		t.Run(cmd.Name(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.GroupID, "top-level command %q missing GroupID", cmd.Name())
		})
	}
}

func TestRootHelpContainsGroups(t *testing.T) {
	r := mustExecute(t, t.TempDir(), "", "--help")
	assert.Contains(t, r.stdout, "Lock Gate:")
	assert.Contains(t, r.stdout, "Configuration:")
	assert.NotContains(t, r.stdout, "Available Commands:")
}

func TestParentCommandsShowSubcommandsInHelp(t *testing.T) {
	walkCommands(rootCmd, enrichParentLong)

	for _, parent := range []*cobra.Command{pinCmd, policyCmd, configCmd} {
		t.Run(parent.Name(), func(t *testing.T) {
			help := renderHelp(t, parent)
			assert.Contains(t, help, "Available Commands:")
			assert.Contains(t, help, "Subcommands:")
			assert.Equal(t, 1, strings.Count(parent.Long, "Subcommands:"), "enrichment is idempotent")

			for _, sub := range parent.Commands() {
				if sub.IsAvailableCommand() {
					assert.Contains(t, help, sub.Name())
				}
			}
		})
	}
	assert.NotContains(t, rootCmd.Long, "Subcommands:")
}

func TestLeafCommandHelpShowsExamplesSection(t *testing.T) {
	for _, cmd := range []*cobra.Command{pinSetCmd, policyTriggerCmd, runCmd, statusCmd} {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			help := renderHelp(t, cmd)
			assert.Contains(t, help, "Examples:")
			assert.Contains(t, help, "lockgate")
		})
	}
}

func TestWalkCommandsVisitsAll(t *testing.T) {
	var visited []string
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		visited = append(visited, cmd.CommandPath())
	})

	for _, path := range []string{
		"lockgate",
		"lockgate pin set",
		"lockgate pin change",
		"lockgate pin disable",
		"lockgate pin verify",
		"lockgate policy trigger",
		"lockgate policy timeout",
		"lockgate policy biometrics",
		"lockgate status",
		"lockgate run",
		"lockgate config init",
		"lockgate config show",
		"lockgate config get",
		"lockgate config set",
		"lockgate completion",
		"lockgate version",
	} {
		assert.Contains(t, visited, path)
	}
}
