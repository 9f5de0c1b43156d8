package proxy

import (
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	playlistContentType = "application/vnd.apple.mpegurl"
	mpegTSContentType   = "video/MP2T"
	defaultSegmentType  = "video/mp4"
)

// Service implements playlist rewriting and segment relaying over an injected
// Fetcher. It holds no per-request state and is safe for concurrent use.
type Service struct {
	fetcher Fetcher
	bypass  []string
}

// NewService returns a Service using fetcher for origin access. bypassFiles
// lists manifest names (matched as case-insensitive URL suffixes) that are
// served raw, without rewriting.
func NewService(fetcher Fetcher, bypassFiles []string) *Service {
	bypass := make([]string, 0, len(bypassFiles))
	for _, name := range bypassFiles {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			bypass = append(bypass, name)
		}
	}
	return &Service{fetcher: fetcher, bypass: bypass}
}

// classify decides how the proxy treats a decoded origin URL. Bypass names win
// over the .m3u8 rule so a configured manifest is never rewritten.
func (s *Service) classify(originURL string) targetKind {
	lower := strings.ToLower(originURL)
	for _, name := range s.bypass {
		if strings.HasSuffix(lower, name) {
			return kindBypass
		}
	}
	if strings.HasSuffix(lower, ".m3u8") {
		return kindPlaylist
	}
	return kindSegment
}

// FetchPlaylist retrieves the manifest at originURL and rewrites every
// referenced URI into a proxy callback. An upstream 4xx/5xx is not an error:
// the result carries the origin's status, content type, and body unrewritten
// so the handler can forward them.
func (s *Service) FetchPlaylist(ctx context.Context, originURL string) (*PlaylistResult, error) {
	res, err := s.fetchManifest(ctx, originURL)
	if err != nil || res.StatusCode >= 400 {
		return res, err
	}
	res.Body = []byte(RewritePlaylist(string(res.Body), originURL))
	res.ContentType = playlistContentType
	res.Rewritten = true
	return res, nil
}

// FetchRaw retrieves originURL without rewriting, for bypass manifests.
func (s *Service) FetchRaw(ctx context.Context, originURL string) (*PlaylistResult, error) {
	return s.fetchManifest(ctx, originURL)
}

func (s *Service) fetchManifest(ctx context.Context, originURL string) (*PlaylistResult, error) {
	resp, err := s.fetcher.Fetch(ctx, originURL, "")
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return &PlaylistResult{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
