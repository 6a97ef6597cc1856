package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// env is an isolated database and config file for one test.
type env struct {
	db     string
	config string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "timetable.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_level = \"error\"\n"), 0o644))
	for _, k := range []string{"TIMETABLE_DB", "TIMETABLE_LOG_LEVEL", "TIMETABLE_LOG_FORMAT", "TIMETABLE_QUOTA_BYTES"} {
		t.Setenv(k, "")
	}
	return env{db: filepath.Join(dir, "timetable.db"), config: cfg}
}

// run executes the CLI with args against e and returns stdout, stderr and
// the command error.
func (e env) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(append([]string{"--db", e.db, "--config", e.config}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "timetable", cmd.Use)
	assert.Contains(t, cmd.Long, "six-period")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"show", "open", "set", "toggle", "delete", "color", "clear", "status", "tui", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"db", "config", "log-format"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestConfirmFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"delete", "clear"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		yes := sub.Flags().Lookup("yes")
		require.NotNil(t, yes, name)
		assert.Equal(t, "y", yes.Shorthand)
	}
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run(t, "", "--format", "invalid", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInvalidConfigFile(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(e.config, []byte("bogus = 1\n"), 0o644))

	_, _, err := e.run(t, "", "show")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestInvalidLogFormatFlag(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run(t, "", "--log-format", "xml", "show")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerboseLogsToStderr(t *testing.T) {
	e := newEnv(t)
	out, errOut, err := e.run(t, "", "-v", "show")
	require.NoError(t, err)
	assert.Contains(t, errOut, "configuration resolved")
	assert.NotContains(t, out, "configuration resolved")
	assert.Contains(t, errOut, "opened "+e.db+": 0 cells, write sequence 0")
	assert.NotContains(t, out, "write sequence")
}

func TestExecuteJSONError(t *testing.T) {
	e := newEnv(t)
	var out bytes.Buffer
	stdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	execErr := Execute(context.Background(), []string{"--db", e.db, "--config", e.config, "--format", "json", "toggle", "r9-c9", "1"})
	w.Close()
	os.Stdout = stdout
	_, _ = out.ReadFrom(r)

	require.Error(t, execErr)
	assert.Equal(t, ExitCommandError, GetExitCode(execErr))
	assert.Contains(t, out.String(), `"status":"error"`)
	assert.Contains(t, out.String(), `"code":"E002"`)
}
