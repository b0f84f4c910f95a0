package support

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// iRunCommand executes a command in the scenario directory and stores the
// result.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = testCtx.TempDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)
	cmd.Stdin = strings.NewReader("\n")

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	testCtx.LastExitCode = 0
	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	}
	return nil
}

// theCommandShouldSucceed verifies the process exited with status 0.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s\nStderr: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput, testCtx.LastStderr)
	}
	return nil
}

// theOutputShouldContain verifies stdout contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBe compares stdout line by line with the doc string.
// Lines of the form /regexp/ are matched as regular expressions.
func (testCtx *TestContext) theOutputShouldBe(doc *godog.DocString) error {
	want := strings.Split(doc.Content, "\n")
	got := strings.Split(strings.TrimSuffix(testCtx.LastOutput, "\n"), "\n")
	if len(want) != len(got) {
		return fmt.Errorf("expected %d lines, got %d\nActual output:\n%s", len(want), len(got), testCtx.LastOutput)
	}
	for i := range want {
		if err := matchLine(want[i], got[i]); err != nil {
			return fmt.Errorf("line %d: %w\nActual output:\n%s", i+1, err, testCtx.LastOutput)
		}
	}
	return nil
}

func matchLine(want, got string) error {
	if len(want) > 1 && strings.HasPrefix(want, "/") && strings.HasSuffix(want, "/") {
		re, err := regexp.Compile("^" + want[1:len(want)-1] + "$")
		if err != nil {
			return fmt.Errorf("bad pattern %q: %w", want, err)
		}
		if !re.MatchString(got) {
			return fmt.Errorf("%q does not match %s", got, want)
		}
		return nil
	}
	if want != got {
		return fmt.Errorf("want %q, got %q", want, got)
	}
	return nil
}

// theLogsShouldContain verifies stderr contains specific text.
func (testCtx *TestContext) theLogsShouldContain(text string) error {
	if !strings.Contains(testCtx.LastStderr, text) {
		return fmt.Errorf("logs do not contain '%s'\nActual logs: %s", text, testCtx.LastStderr)
	}
	return nil
}

// theFileShouldBeValidJSONWithSteps checks a JSON report and its step count.
func (testCtx *TestContext) theFileShouldBeValidJSONWithSteps(name string, steps int) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	var doc struct {
		Steps []json.RawMessage `json:"steps"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s is not valid JSON: %w", name, err)
	}
	if len(doc.Steps) != steps {
		return fmt.Errorf("expected %d steps in %s, got %d", steps, name, len(doc.Steps))
	}
	return nil
}

// theFileShouldExist verifies a file exists in the scenario directory.
func (testCtx *TestContext) theFileShouldExist(name string) error {
	if _, err := os.Stat(testCtx.Path(name)); err != nil {
		return fmt.Errorf("file %s does not exist: %w", name, err)
	}
	return nil
}

// theFileShouldContain verifies a file contains specific text.
func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain '%s'\nContent: %s", name, text, data)
	}
	return nil
}

// aConfigFileWith writes bartune.yaml into the scenario directory.
func (testCtx *TestContext) aConfigFileWith(doc *godog.DocString) error {
	return os.WriteFile(testCtx.Path("bartune.yaml"), []byte(doc.Content), 0o600)
}

// theEnvironmentVariableIsSetTo sets an environment variable for the next commands.
func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	testCtx.AddEnvVar(name, value)
	return nil
}

// RegisterCommonSteps registers command and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be:$`, testCtx.theOutputShouldBe)
	sc.Step(`^the logs should contain "([^"]*)"$`, testCtx.theLogsShouldContain)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the file "([^"]*)" should be a JSON report with (\d+) steps?$`, testCtx.theFileShouldBeValidJSONWithSteps)
	sc.Step(`^a config file with:$`, testCtx.aConfigFileWith)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
}
