package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"saturn-proxy/internal/platform/metrics"
)

// Handler exposes the proxy HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Proxy server ready (HLS + MP4/TS)"})
}

// Proxy handles GET /proxy?url=<origin URL>. The url parameter is decoded
// exactly once by the query parser; what comes out is the absolute origin URL
// the rewriter embedded.
func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request) {
	originURL := r.URL.Query().Get("url")
	if originURL == "" {
		http.Error(w, "Missing 'url' query parameter", http.StatusBadRequest)
		return
	}

	switch h.svc.classify(originURL) {
	case kindPlaylist:
		h.servePlaylist(w, r, originURL, true)
	case kindBypass:
		h.servePlaylist(w, r, originURL, false)
	default:
		h.serveSegment(w, r, originURL)
	}
}

// servePlaylist fetches a manifest and writes it out, rewritten or raw.
// Upstream error statuses are forwarded with the origin's body; only a failed
// fetch becomes a 502 here.
func (h *Handler) servePlaylist(w http.ResponseWriter, r *http.Request, originURL string, rewrite bool) {
	var (
		res *PlaylistResult
		err error
	)
	if rewrite {
		res, err = h.svc.FetchPlaylist(r.Context(), originURL)
	} else {
		res, err = h.svc.FetchRaw(r.Context(), originURL)
	}
	if err != nil {
		h.log.Error("manifest fetch failed",
			slog.String("url", originURL),
			slog.String("error", err.Error()))
		if h.metrics != nil {
			h.metrics.IncUpstreamErrors()
		}
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}

	if res.ContentType != "" {
		w.Header().Set("Content-Type", res.ContentType)
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(res.StatusCode)
	w.Write(res.Body)

	if res.Rewritten && h.metrics != nil {
		h.metrics.IncPlaylistsRewritten()
	}
	h.log.Debug("manifest served",
		slog.String("url", originURL),
		slog.Int("status", res.StatusCode),
		slog.Bool("rewritten", res.Rewritten))
}

// serveSegment relays a media segment as a chunked byte stream, forwarding
// range semantics both ways.
func (h *Handler) serveSegment(w http.ResponseWriter, r *http.Request, originURL string) {
	sess, err := h.svc.OpenStream(r.Context(), originURL, r.Header.Get("Range"))
	if err != nil {
		h.log.Error("upstream connect failed",
			slog.String("url", originURL),
			slog.String("error", err.Error()))
		if h.metrics != nil {
			h.metrics.IncUpstreamErrors()
		}
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", sess.ContentType)
	if sess.ContentLength != "" {
		w.Header().Set("Content-Length", sess.ContentLength)
	}
	if sess.ContentRange != "" {
		w.Header().Set("Content-Range", sess.ContentRange)
	}
	w.Header().Set("Accept-Ranges", sess.AcceptRanges)
	w.WriteHeader(sess.StatusCode)

	if h.metrics != nil {
		h.metrics.IncActiveRelays()
		defer h.metrics.DecActiveRelays()
	}

	n, err := sess.WriteTo(w)
	if err != nil {
		// Status is already on the wire; a client disconnect or upstream
		// read failure can only truncate the stream.
		h.log.Debug("stream ended early",
			slog.String("url", originURL),
			slog.Int64("bytes", n),
			slog.String("error", err.Error()))
	}
	if h.metrics != nil {
		h.metrics.IncSegmentsRelayed()
		h.metrics.AddBytesStreamed(n)
	}
}
