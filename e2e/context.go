package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext carries the HTTP state of one scenario.
type TestContext struct {
	BaseURL    string
	HTTPClient *http.Client

	lastStatus int
	lastBody   []byte
	token      string
	saved      map[string]string
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		saved:      map[string]string{},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.token = ""
	tc.saved = map[string]string{}
}

func (tc *TestContext) POST(path string, body any) error  { return tc.do(http.MethodPost, path, body) }
func (tc *TestContext) PUT(path string, body any) error   { return tc.do(http.MethodPut, path, body) }
func (tc *TestContext) PATCH(path string, body any) error { return tc.do(http.MethodPatch, path, body) }
func (tc *TestContext) GET(path string) error             { return tc.do(http.MethodGet, path, nil) }
func (tc *TestContext) DELETE(path string) error          { return tc.do(http.MethodDelete, path, nil) }
func (tc *TestContext) SetAccessToken(token string)       { tc.token = token }
func (tc *TestContext) GetAccessToken() string            { return tc.token }
func (tc *TestContext) LastStatus() int                   { return tc.lastStatus }
func (tc *TestContext) Save(key, value string)            { tc.saved[key] = value }
func (tc *TestContext) Saved(key string) string           { return tc.saved[key] }

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+tc.expand(path), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

// expand replaces {key} placeholders with saved values.
func (tc *TestContext) expand(path string) string {
	for k, v := range tc.saved {
		path = strings.ReplaceAll(path, "{"+k+"}", v)
	}
	return path
}

// GetResponseField reads a top-level field of the last JSON object response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var obj map[string]any
	if err := json.Unmarshal(tc.lastBody, &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", tc.lastBody)
	}
	v, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

// ResponseArrayLen reports the length of the last JSON array response.
func (tc *TestContext) ResponseArrayLen() (int, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(tc.lastBody, &arr); err != nil {
		return 0, fmt.Errorf("response is not a JSON array: %s", tc.lastBody)
	}
	return len(arr), nil
}

func (tc *TestContext) LastBody() string { return string(tc.lastBody) }
