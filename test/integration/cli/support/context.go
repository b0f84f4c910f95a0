package support

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/bartune/internal/testutil"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastStderr    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	ProjectRoot string
	TempDir     string
	EnvVars     []string

	// Images created by the scenario, keyed by file name
	Images map[string]string

	// License server state
	LicenseServer   *httptest.Server
	LicenseRequests int
}

// NewTestContext creates a context with its own temporary working
// directory, home and config directories.
func NewTestContext() (*TestContext, error) {
	root, err := testutil.GetProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "bartune-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	ctx := &TestContext{
		ProjectRoot: root,
		TempDir:     tempDir,
		Images:      map[string]string{},
	}
	ctx.AddEnvVar("HOME", tempDir)
	ctx.AddEnvVar("XDG_CONFIG_HOME", filepath.Join(tempDir, ".config"))
	return ctx, nil
}

// Cleanup stops the license server and removes the temporary directory.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.LicenseServer != nil {
		testCtx.LicenseServer.Close()
		testCtx.LicenseServer = nil
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}

// AddEnvVar adds an environment variable for command execution.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// Path returns the absolute path of name inside the scenario directory.
func (testCtx *TestContext) Path(name string) string {
	return filepath.Join(testCtx.TempDir, name)
}

// substituteCommandVariables expands {tmp}, {license} and {root}.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	command = strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
	command = strings.ReplaceAll(command, "{root}", testCtx.ProjectRoot)
	if testCtx.LicenseServer != nil {
		command = strings.ReplaceAll(command, "{license}", testCtx.LicenseServer.URL)
	}
	return command
}
