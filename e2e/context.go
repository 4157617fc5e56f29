//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// TestContext is the per-scenario HTTP client. It remembers the last
// response and any values saved by earlier steps.
type TestContext struct {
	baseURL       string
	client        *http.Client
	providerToken string

	lastStatus int
	lastBody   []byte
	vars       map[string]string
}

func newTestContext(baseURL, providerToken string) *TestContext {
	return &TestContext{
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        &http.Client{},
		providerToken: providerToken,
		vars:          map[string]string{},
	}
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil, nil)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body, nil)
}

// PostWebhook delivers body to the provider webhook. An empty token sends
// no Authorization header.
func (tc *TestContext) PostWebhook(body any, token string) error {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return tc.do(http.MethodPost, "/webhooks/provider", body, headers)
}

func (tc *TestContext) ProviderToken() string { return tc.providerToken }

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

func (tc *TestContext) LastBody() []byte { return tc.lastBody }

func (tc *TestContext) Save(name, value string) { tc.vars[name] = value }

func (tc *TestContext) Saved(name string) (string, bool) {
	v, ok := tc.vars[name]
	return v, ok
}

// Expand replaces {name} placeholders with saved values.
func (tc *TestContext) Expand(s string) string {
	for name, value := range tc.vars {
		s = strings.ReplaceAll(s, "{"+name+"}", value)
	}
	return s
}

// ResponseField walks a dotted path such as "check.status" or
// "warnings.0.severity" through the last JSON body.
func (tc *TestContext) ResponseField(path string) (any, error) {
	var node any
	if err := json.Unmarshal(tc.lastBody, &node); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	for _, part := range strings.Split(path, ".") {
		switch v := node.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", path, tc.lastBody)
			}
			node = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return nil, fmt.Errorf("index %q out of range in %q", part, path)
			}
			node = v[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q of %q", part, path)
		}
	}
	return node, nil
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.baseURL+tc.Expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}
