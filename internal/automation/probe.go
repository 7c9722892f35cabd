package automation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrUnsupportedRef = errors.New("unsupported image reference")
	ErrNotImage       = errors.New("reference is not an image")
)

// HTTPProber checks http(s) references with HEAD and inline data: URIs by
// decoding them.
type HTTPProber struct {
	client *http.Client
}

func NewHTTPProber(timeout time.Duration, client *http.Client) *HTTPProber {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPProber{client: client}
}

func (p *HTTPProber) Probe(ctx context.Context, ref string) error {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "data:"):
		return probeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return p.probeHTTP(ctx, ref)
	default:
		return ErrUnsupportedRef
	}
}

func (p *HTTPProber) probeHTTP(ctx context.Context, ref string) error {
	if _, err := url.ParseRequestURI(ref); err != nil {
		return fmt.Errorf("parse image url: %w", err)
	}

	resp, err := p.do(ctx, http.MethodHead, ref)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp, err = p.do(ctx, http.MethodGet, ref)
		if err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("image request returned status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !isImageType(ct) {
		return fmt.Errorf("%w: content type %q", ErrNotImage, ct)
	}
	return nil
}

// do sends the request and closes the body; only status and headers are used.
func (p *HTTPProber) do(ctx context.Context, method, ref string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	resp.Body.Close()
	return resp, nil
}

// probeDataURI validates data:[<mediatype>][;base64],<payload>.
func probeDataURI(ref string) error {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return fmt.Errorf("%w: malformed data uri", ErrUnsupportedRef)
	}

	encoded := strings.HasSuffix(meta, ";base64")
	meta = strings.TrimSuffix(meta, ";base64")
	if !isImageType(meta) {
		return fmt.Errorf("%w: media type %q", ErrNotImage, meta)
	}

	var body []byte
	if encoded {
		var err error
		body, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return fmt.Errorf("decode data uri: %w", err)
		}
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return fmt.Errorf("decode data uri: %w", err)
		}
		body = []byte(s)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty payload", ErrNotImage)
	}
	return nil
}

func isImageType(v string) bool {
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "image/")
}
