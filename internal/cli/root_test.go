package cli

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-filterpack/pkg/page"
)

// executeCommand runs the CLI with args and captures stdout and stderr.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	return executeRoot(context.Background(), NewRootCommand(), args...)
}

func executeRoot(ctx context.Context, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(ctx)
	return outBuf.String(), errBuf.String(), err
}

// rootWith returns the root command with sub replacing the subcommand of
// the same name.
func rootWith(sub *cobra.Command) *cobra.Command {
	root := NewRootCommand()
	for _, c := range root.Commands() {
		if c.Name() == sub.Name() {
			root.RemoveCommand(c)
		}
	}
	root.AddCommand(sub)
	return root
}

// writeDemoFiles copies the bundled demo page and lists into a temp dir.
func writeDemoFiles(t *testing.T) (pagePath, listsPath string) {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{page.DemoPage, page.DemoLists} {
		data, err := fs.ReadFile(page.DemoFS(), name)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	return filepath.Join(dir, page.DemoPage), filepath.Join(dir, page.DemoLists)
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()

	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.Code)
}

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	require.NoError(t, err)

	for _, sub := range []string{"render", "run", "inspect", "serve", "watch", "version"} {
		assert.Contains(t, stdout, sub, "help should mention %q subcommand", sub)
	}
	for _, flag := range []string{"--config", "--log-level", "--log-format", "--quiet", "--lists", "--store-url", "--current-user"} {
		assert.Contains(t, stdout, flag, "help should mention %q flag", flag)
	}
}

func TestRootCommand_UnknownFlag(t *testing.T) {
	_, _, err := executeCommand("--nonexistent")
	requireExitCode(t, err, 2)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	_, _, err := executeCommand("render", "--log-level", "loud")
	requireExitCode(t, err, 2)

	_, _, err = executeCommand("render", "--store-url", "not-a-url")
	requireExitCode(t, err, 2)
}

func TestRootCommand_ConfigFile(t *testing.T) {
	pagePath, listsPath := writeDemoFiles(t)
	cfgPath := filepath.Join(filepath.Dir(pagePath), "filterpack.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("lists: "+filepath.Base(listsPath)+"\ncurrent-user: grace@example.com\n"), 0o600))

	stdout, _, err := executeCommand("render", pagePath, "--config", cfgPath, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Grace Hopper")
	assert.Contains(t, stdout, "Oslo")
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 3}
	assert.Equal(t, "exit code 3", err.Error())

	wrapped := usageError("bad %s", "input")
	assert.Equal(t, "bad input", wrapped.Error())
}
