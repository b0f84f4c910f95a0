package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/bartune/internal/version"
)

type cliResult struct {
	stdout string
	stderr string
}

// runCLI executes a fresh command tree in an isolated working directory.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	a := newApp(strings.NewReader(stdin))
	var out, errOut bytes.Buffer
	a.root.SetOut(&out)
	a.root.SetErr(&errOut)
	a.root.SetArgs(args)
	a.execute(context.Background())
	return cliResult{stdout: out.String(), stderr: errOut.String()}
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "bartune", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"accuracy", "speed", "templates", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommandHelp(t *testing.T) {
	res := runCLI(t, "", "--help")
	assert.Contains(t, res.stdout, "Usage:")
	assert.Contains(t, res.stdout, "Available Commands:")
	assert.Contains(t, res.stdout, "accuracy")
}

func TestRootCommandVersionFlag(t *testing.T) {
	res := runCLI(t, "", "--version")
	assert.Equal(t, version.Version+"\n", res.stdout)
}

func TestVersionCommand(t *testing.T) {
	res := runCLI(t, "", "version")
	assert.Contains(t, res.stdout, "bartune "+version.Version)
	assert.Contains(t, res.stdout, "go: ")
}

func TestErrorsArePrintedNotReturned(t *testing.T) {
	res := runCLI(t, "", "speed")
	assert.Contains(t, res.stdout, "accepts 1 arg(s), received 0")

	res = runCLI(t, "", "--no-such-flag")
	assert.Contains(t, res.stdout, "unknown flag: --no-such-flag")
}

func TestWaitPrompt(t *testing.T) {
	res := runCLI(t, "\n", "version", "--wait")
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	assert.Equal(t, WaitPrompt, lines[len(lines)-1])

	res = runCLI(t, "", "version")
	assert.NotContains(t, res.stdout, WaitPrompt)
}

func TestWaitPromptAfterError(t *testing.T) {
	res := runCLI(t, "", "accuracy", "--wait", "--log-level", "loud", "x.png")
	assert.Contains(t, res.stdout, "invalid log level: loud")
	assert.True(t, strings.HasSuffix(res.stdout, WaitPrompt+"\n"))
}

func TestConfigFileFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bartune.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  format: pdf\n"), 0o600))

	res := runCLI(t, "", "--config", cfgPath, "version")
	assert.Contains(t, res.stdout, "unsupported output format")
}

func TestEnvironmentConfig(t *testing.T) {
	t.Setenv("BARTUNE_DECODE_STRATEGIES", "bogus")
	res := runCLI(t, "", "accuracy", "x.png")
	assert.Contains(t, res.stdout, "invalid decode strategy: bogus")
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		verbose bool
		want    string
	}{
		{"debug", "debug", false, "DEBUG"},
		{"warn", "warn", false, "WARN"},
		{"error", "error", false, "ERROR"},
		{"unknown falls back", "", false, "INFO"},
		{"verbose wins", "error", true, "DEBUG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newApp(nil)
			a.v.Set("log_level", tt.level)
			a.v.Set("verbose", tt.verbose)
			cfgLevel := logLevel(configFor(t, a))
			assert.Equal(t, tt.want, cfgLevel.String())
		})
	}
}
