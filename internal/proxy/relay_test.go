package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestOpenStream_range_passthrough(t *testing.T) {
	f := &fakeFetcher{
		status: http.StatusPartialContent,
		header: http.Header{
			"Content-Type":   []string{"video/mp4"},
			"Content-Length": []string{"1000"},
			"Content-Range":  []string{"bytes 1000-1999/5000"},
			"Accept-Ranges":  []string{"bytes"},
		},
		body: strings.Repeat("x", 1000),
	}
	svc := NewService(f, nil)

	sess, err := svc.OpenStream(context.Background(), "https://host/a/movie.mp4", "bytes=1000-1999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sess.Body.Close()

	if f.lastRange != "bytes=1000-1999" {
		t.Errorf("expected Range forwarded verbatim, got %q", f.lastRange)
	}
	if sess.StatusCode != http.StatusPartialContent {
		t.Errorf("expected 206, got %d", sess.StatusCode)
	}
	if sess.ContentRange != "bytes 1000-1999/5000" {
		t.Errorf("expected Content-Range propagated, got %q", sess.ContentRange)
	}
	if sess.ContentLength != "1000" {
		t.Errorf("expected Content-Length propagated, got %q", sess.ContentLength)
	}
}

func TestOpenStream_ts_forces_mp2t(t *testing.T) {
	f := &fakeFetcher{header: http.Header{"Content-Type": []string{"application/octet-stream"}}}
	svc := NewService(f, nil)

	sess, err := svc.OpenStream(context.Background(), "https://host/a/seg1.TS", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sess.Body.Close()

	if sess.ContentType != "video/MP2T" {
		t.Errorf("expected video/MP2T regardless of upstream type, got %s", sess.ContentType)
	}
}

func TestOpenStream_m4s_keeps_upstream_type(t *testing.T) {
	f := &fakeFetcher{header: http.Header{"Content-Type": []string{"video/iso.segment"}}}
	svc := NewService(f, nil)

	sess, err := svc.OpenStream(context.Background(), "https://host/a/seg1.m4s", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sess.Body.Close()

	if sess.ContentType != "video/iso.segment" {
		t.Errorf("expected upstream type for .m4s, got %s", sess.ContentType)
	}
}

func TestOpenStream_defaults(t *testing.T) {
	f := &fakeFetcher{}
	svc := NewService(f, nil)

	sess, err := svc.OpenStream(context.Background(), "https://host/a/movie.mp4", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sess.Body.Close()

	if sess.ContentType != "video/mp4" {
		t.Errorf("expected video/mp4 default, got %s", sess.ContentType)
	}
	if sess.AcceptRanges != "bytes" {
		t.Errorf("expected Accept-Ranges default bytes, got %s", sess.AcceptRanges)
	}
	if sess.ContentLength != "" || sess.ContentRange != "" {
		t.Errorf("absent headers must stay empty, got %q / %q", sess.ContentLength, sess.ContentRange)
	}
}

func TestOpenStream_connect_failure(t *testing.T) {
	f := &fakeFetcher{err: errors.New("connection refused")}
	svc := NewService(f, nil)

	if _, err := svc.OpenStream(context.Background(), "https://host/a/seg1.ts", ""); err == nil {
		t.Error("expected error when the origin is unreachable")
	}
}

// closeTracker wraps a reader and records Close calls.
type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestStreamSession_WriteTo_delivers_all_bytes(t *testing.T) {
	// Larger than one chunk so the copy loop runs more than once.
	payload := strings.Repeat("abcdefgh", 40*1024)
	body := &closeTracker{Reader: strings.NewReader(payload)}
	sess := &StreamSession{Body: body}

	var out strings.Builder
	n, err := sess.WriteTo(&out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("expected %d bytes, got %d", len(payload), n)
	}
	if out.String() != payload {
		t.Error("delivered bytes differ from upstream bytes")
	}
	if !body.closed {
		t.Error("upstream body not closed after copy")
	}
}

// failingWriter rejects writes, standing in for a disconnected client.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("client gone")
}

func TestStreamSession_WriteTo_stops_on_client_error(t *testing.T) {
	body := &closeTracker{Reader: strings.NewReader("payload")}
	sess := &StreamSession{Body: body}

	if _, err := sess.WriteTo(failingWriter{}); err == nil {
		t.Error("expected write error to surface")
	}
	if !body.closed {
		t.Error("upstream body must be released when the client goes away")
	}
}

func TestStreamSession_WriteTo_stops_on_upstream_error(t *testing.T) {
	body := &closeTracker{Reader: io.MultiReader(
		strings.NewReader("partial"),
		errReader{errors.New("reset by peer")},
	)}
	sess := &StreamSession{Body: body}

	var out strings.Builder
	n, err := sess.WriteTo(&out)
	if err == nil {
		t.Error("expected upstream read error to surface")
	}
	if n != int64(len("partial")) {
		t.Errorf("expected partial delivery of %d bytes, got %d", len("partial"), n)
	}
	if !body.closed {
		t.Error("upstream body must be released on read error")
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
