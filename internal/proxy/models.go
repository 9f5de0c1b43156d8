package proxy

import "io"

// targetKind classifies a decoded origin URL by what the proxy must do with it.
type targetKind int

const (
	// kindPlaylist is an .m3u8 manifest that gets fetched and rewritten.
	kindPlaylist targetKind = iota
	// kindBypass is a manifest matching a configured raw-passthrough name;
	// it is fetched and returned without rewriting.
	kindBypass
	// kindSegment is any other resource, relayed as a byte stream.
	kindSegment
)

// PlaylistResult is the outcome of fetching a manifest from the origin.
// For upstream error statuses the body and content type are the origin's,
// unrewritten, so the caller can forward them as-is.
type PlaylistResult struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Rewritten   bool
}

// StreamSession is the state of one in-flight segment relay: the negotiated
// status and headers plus the open upstream body. The session owns the body;
// WriteTo closes it when the relay finishes, fails, or the client goes away.
type StreamSession struct {
	StatusCode    int
	ContentType   string
	ContentLength string
	ContentRange  string
	AcceptRanges  string
	Body          io.ReadCloser
}
