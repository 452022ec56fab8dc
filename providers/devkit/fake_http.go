package devkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/goliatone/go-accounts/core"
)

// HTTPScript is one canned reply of a FakeHTTPDoer.
type HTTPScript struct {
	StatusCode int
	Headers    map[string]string
	Body       string
	Err        error
}

// CapturedRequest is a copy of a request seen by a FakeHTTPDoer.
type CapturedRequest struct {
	Method  string
	URL     string
	Headers http.Header
	Body    string
}

// FakeHTTPDoer replays scripts in order and repeats the last one once
// they are exhausted.
type FakeHTTPDoer struct {
	mu       sync.Mutex
	scripts  []HTTPScript
	requests []CapturedRequest
}

func NewFakeHTTPDoer(scripts ...HTTPScript) *FakeHTTPDoer {
	return &FakeHTTPDoer{scripts: append([]HTTPScript(nil), scripts...)}
}

func (d *FakeHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	if d == nil {
		return nil, fmt.Errorf("devkit: fake http doer is nil")
	}
	if req == nil {
		return nil, fmt.Errorf("devkit: request is required")
	}
	captured := CapturedRequest{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: req.Header.Clone(),
	}
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		captured.Body = string(body)
	}

	d.mu.Lock()
	d.requests = append(d.requests, captured)
	index := len(d.requests) - 1
	script := HTTPScript{StatusCode: http.StatusOK, Body: "{}"}
	if index < len(d.scripts) {
		script = d.scripts[index]
	} else if len(d.scripts) > 0 {
		script = d.scripts[len(d.scripts)-1]
	}
	d.mu.Unlock()

	if script.Err != nil {
		return nil, script.Err
	}
	status := script.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	header := http.Header{}
	for key, value := range script.Headers {
		header.Set(key, value)
	}
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(script.Body)),
		Request:    req,
	}, nil
}

func (d *FakeHTTPDoer) Requests() []CapturedRequest {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]CapturedRequest, 0, len(d.requests))
	for _, item := range d.requests {
		out = append(out, CapturedRequest{
			Method:  item.Method,
			URL:     item.URL,
			Headers: item.Headers.Clone(),
			Body:    item.Body,
		})
	}
	return out
}

var _ core.HTTPDoer = (*FakeHTTPDoer)(nil)
