package support

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// TestContext holds the state for integration tests.
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
	TempDir string
	// Fixtures maps fixture names used in steps to their paths.
	Fixtures map[string]string

	// Server management
	HTTPTestServer *HTTPTestServerWrapper

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string
}

// NewTestContext creates a new test context.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "qrscan-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		TempDir:         tempDir,
		Fixtures:        map[string]string{},
		LastHTTPHeaders: map[string]string{},
	}, nil
}

// Cleanup stops the test server and removes the temporary directory.
func (testCtx *TestContext) Cleanup() error {
	testCtx.stopTestHTTPServer()

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}

// fixturePath returns the path a named fixture is written to.
func (testCtx *TestContext) fixturePath(name string) string {
	return filepath.Join(testCtx.TempDir, name)
}

// writeFixture stores data as the named fixture.
func (testCtx *TestContext) writeFixture(name string, data []byte) error {
	path := testCtx.fixturePath(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write fixture %s: %w", name, err)
	}
	testCtx.Fixtures[name] = path
	return nil
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// substituteCommandVariables replaces {tmp} with the scenario's temporary
// directory and {name} with the path of the fixture called name.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	return placeholderPattern.ReplaceAllStringFunc(command, func(m string) string {
		key := strings.Trim(m, "{}")
		if key == "tmp" {
			return testCtx.TempDir
		}
		if p, ok := testCtx.Fixtures[key]; ok {
			return p
		}
		return m
	})
}
