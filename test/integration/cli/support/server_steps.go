package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/qrscan/internal/config"
	"github.com/MeKo-Tech/qrscan/internal/server"
	"github.com/cucumber/godog"
)

// HTTPTestServerWrapper wraps httptest.Server for integration tests.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
}

// theServerIsRunning starts an in-process analysis server with default settings.
func (testCtx *TestContext) theServerIsRunning() error {
	return testCtx.startTestHTTPServer(config.DefaultConfig())
}

func (testCtx *TestContext) startTestHTTPServer(cfg config.Config) error {
	testCtx.stopTestHTTPServer()

	srv, err := server.NewServer(server.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSOrigin:  cfg.Server.CORSOrigin,
		MaxUploadMB: int64(cfg.Server.MaxUploadMB),
		TimeoutSec:  cfg.Server.TimeoutSec,
		Version:     "test",
		Extract:     cfg.ToExtractOptions(),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:     httptest.NewServer(srv.Handler()),
		TestServer: srv,
	}
	return nil
}

func (testCtx *TestContext) stopTestHTTPServer() {
	if testCtx.HTTPTestServer != nil {
		testCtx.HTTPTestServer.Server.Close()
		testCtx.HTTPTestServer = nil
	}
}

func (testCtx *TestContext) serverURL(path string) (string, error) {
	if testCtx.HTTPTestServer == nil {
		return "", fmt.Errorf("server is not running")
	}
	return testCtx.HTTPTestServer.Server.URL + path, nil
}

func (testCtx *TestContext) storeResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(body)
	testCtx.LastHTTPHeaders = map[string]string{}
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

// iSendAGETRequestTo performs a GET against the running server.
func (testCtx *TestContext) iSendAGETRequestTo(path string) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	resp, err := http.Get(url) //nolint:gosec,noctx // G107: Test URL built from httptest server
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return testCtx.storeResponse(resp)
}

// iUploadTheFixture posts a fixture to /v1/analyze. fields holds extra form
// values as "key=value" pairs separated by commas.
func (testCtx *TestContext) iUploadTheFixture(name, fields string) error {
	path, ok := testCtx.Fixtures[name]
	if !ok {
		return fmt.Errorf("unknown fixture %q", name)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: Test fixture with controlled path
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	for _, kv := range strings.Split(fields, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(kv), "=")
		if !found {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	url, err := testCtx.serverURL("/v1/analyze")
	if err != nil {
		return err
	}
	resp, err := http.Post(url, mw.FormDataContentType(), &body) //nolint:gosec,noctx // Test URL
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return testCtx.storeResponse(resp)
}

func (testCtx *TestContext) iUploadTheFixtureWithoutFields(name string) error {
	return testCtx.iUploadTheFixture(name, "")
}

// theResponseStatusShouldBe checks the last HTTP status code.
func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("expected status %d, got %d\nBody: %s", code, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

// theResponseShouldContain checks the last HTTP response body.
func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

// theResponseHeaderShouldBe checks a header of the last HTTP response.
func (testCtx *TestContext) theResponseHeaderShouldBe(name, value string) error {
	if got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]; got != value {
		return fmt.Errorf("header %s is %q, expected %q", name, got, value)
	}
	return nil
}

// theResponseJSONFieldShouldBe compares the string form of a field of the
// last HTTP response body.
func (testCtx *TestContext) theResponseJSONFieldShouldBe(field, expected string) error {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &data); err != nil {
		return fmt.Errorf("response is not valid JSON: %w\nBody: %s", err, testCtx.LastHTTPResponse)
	}
	val, err := lookupJSON(data, field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(val); got != expected {
		return fmt.Errorf("response field '%s' is %q, expected %q", field, got, expected)
	}
	return nil
}

// RegisterServerSteps registers the HTTP API steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the analysis server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^I send a GET request to "([^"]*)"$`, testCtx.iSendAGETRequestTo)
	sc.Step(`^I upload "([^"]*)" for analysis$`, testCtx.iUploadTheFixtureWithoutFields)
	sc.Step(`^I upload "([^"]*)" for analysis with "([^"]*)"$`, testCtx.iUploadTheFixture)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONFieldShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
}
