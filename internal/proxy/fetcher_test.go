package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOriginClient_spoofed_headers(t *testing.T) {
	var gotUA, gotReferer, gotRange string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		gotRange = r.Header.Get("Range")
	}))
	defer origin.Close()

	c := NewOriginClient(0, "", "")
	resp, err := c.Fetch(context.Background(), origin.URL, "bytes=0-99")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotUA != DefaultUserAgent {
		t.Errorf("expected default User-Agent, got %q", gotUA)
	}
	if gotReferer != DefaultReferer {
		t.Errorf("expected default Referer, got %q", gotReferer)
	}
	if gotRange != "bytes=0-99" {
		t.Errorf("expected Range forwarded, got %q", gotRange)
	}
}

func TestOriginClient_header_overrides(t *testing.T) {
	var gotUA, gotReferer string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
	}))
	defer origin.Close()

	c := NewOriginClient(0, "custom-agent", "https://elsewhere/watch")
	resp, err := c.Fetch(context.Background(), origin.URL, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotUA != "custom-agent" {
		t.Errorf("expected custom User-Agent, got %q", gotUA)
	}
	if gotReferer != "https://elsewhere/watch" {
		t.Errorf("expected custom Referer, got %q", gotReferer)
	}
}

func TestOriginClient_context_cancel_aborts_fetch(t *testing.T) {
	release := make(chan struct{})
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer origin.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	c := NewOriginClient(0, "", "")
	if _, err := c.Fetch(ctx, origin.URL, ""); err == nil {
		t.Error("expected fetch to abort when the context is canceled")
	}
}
