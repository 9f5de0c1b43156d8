package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// relayChunkSize is the buffer size for copying segment bytes from the origin
// to the client. Chunked copying bounds memory use and lets client-side
// backpressure pace the upstream read.
const relayChunkSize = 128 * 1024

// OpenStream starts a relay of the resource at originURL. rangeHeader, when
// non-empty, is forwarded verbatim so the origin can answer with 206 and a
// Content-Range. The returned session carries the negotiated status and
// headers plus the still-open upstream body; the caller must drain it with
// WriteTo. A connection failure is returned before any bytes move.
func (s *Service) OpenStream(ctx context.Context, originURL, rangeHeader string) (*StreamSession, error) {
	resp, err := s.fetcher.Fetch(ctx, originURL, rangeHeader)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	// MPEG-TS segments are routinely mislabeled by origins, so the extension
	// wins. Anything else keeps the upstream type, defaulting to MP4.
	contentType := resp.Header.Get("Content-Type")
	if strings.HasSuffix(strings.ToLower(originURL), ".ts") {
		contentType = mpegTSContentType
	} else if contentType == "" {
		contentType = defaultSegmentType
	}

	acceptRanges := resp.Header.Get("Accept-Ranges")
	if acceptRanges == "" {
		acceptRanges = "bytes"
	}

	return &StreamSession{
		StatusCode:    resp.StatusCode,
		ContentType:   contentType,
		ContentLength: resp.Header.Get("Content-Length"),
		ContentRange:  resp.Header.Get("Content-Range"),
		AcceptRanges:  acceptRanges,
		Body:          resp.Body,
	}, nil
}

// WriteTo streams the session body to w in relayChunkSize chunks, flushing
// after each chunk when w supports it, and closes the body when done. Bytes
// are delivered in upstream order; the next chunk is read only after the
// previous one is accepted by w. The returned count is what actually reached
// w. A mid-stream error only stops the copy: status and headers are already
// on the wire by then.
func (sess *StreamSession) WriteTo(w io.Writer) (int64, error) {
	defer sess.Body.Close()

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, relayChunkSize)
	var written int64
	for {
		n, err := sess.Body.Read(buf)
		if n > 0 {
			wn, werr := w.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}
