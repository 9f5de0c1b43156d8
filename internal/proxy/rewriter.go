package proxy

import (
	"net/url"
	"strings"
)

// callbackPrefix is the proxy endpoint every rewritten URI points back to.
const callbackPrefix = "/proxy?url="

// uriAttribute marks an embedded URI inside a tag line, e.g. #EXT-X-MEDIA.
const uriAttribute = `URI="`

// isAbsolute reports whether ref already carries an http(s) scheme.
func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// resolveReference resolves ref against base per RFC 3986. Refs that already
// carry an http(s) scheme are returned unchanged. Unparseable input is
// returned as-is; the origin then reports the failure on fetch.
func resolveReference(base, ref string) string {
	if isAbsolute(ref) {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// callbackURL wraps an absolute origin URL into a proxy callback. The URL is
// embedded verbatim; the handler decodes the query parameter exactly once, so
// a second layer of escaping here would corrupt the round trip.
func callbackURL(absolute string) string {
	return callbackPrefix + absolute
}

// manifestBase returns the directory of the manifest URL, trailing slash
// included, for resolving the relative references inside it. Origins are seen
// serving both ".../playlist.m3u8" and arbitrary manifest names, so the
// literal suffix is handled before the generic last-slash rule.
func manifestBase(manifestURL string) string {
	if rest, ok := strings.CutSuffix(manifestURL, "playlist.m3u8"); ok {
		return rest
	}
	if idx := strings.LastIndex(manifestURL, "/"); idx != -1 {
		return manifestURL[:idx+1]
	}
	return manifestURL
}

// RewritePlaylist rewrites the manifest fetched from manifestURL so that every
// referenced URI funnels back through the proxy callback. Lines are classified
// one at a time: #EXT-X-STREAM-INF arms a flag marking the next line as a
// variant playlist URI, bare non-comment lines are media or sub-playlist
// references, and tag lines carrying a URI="..." attribute have only the
// quoted value replaced. Blank lines are elided. Bare lines that are already
// absolute pass through untouched so pre-proxied entries are not wrapped twice.
func RewritePlaylist(manifest, manifestURL string) string {
	base := manifestBase(manifestURL)

	var out []string
	expectingVariantURI := false
	for _, line := range strings.Split(manifest, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			// elided
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF"):
			out = append(out, line)
			expectingVariantURI = true
		case expectingVariantURI:
			out = append(out, callbackURL(resolveReference(base, line)))
			expectingVariantURI = false
		case !strings.HasPrefix(line, "#") && !isAbsolute(line):
			out = append(out, callbackURL(resolveReference(base, line)))
		case strings.HasPrefix(line, "#") && strings.Contains(line, uriAttribute):
			out = append(out, rewriteURIAttribute(line, base))
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// rewriteURIAttribute replaces the first URI="..." value in a tag line with a
// proxy callback, leaving every other attribute on the line untouched.
func rewriteURIAttribute(line, base string) string {
	start := strings.Index(line, uriAttribute)
	if start == -1 {
		return line
	}
	start += len(uriAttribute)

	end := strings.Index(line[start:], `"`)
	if end == -1 {
		return line
	}
	end += start

	resolved := resolveReference(base, line[start:end])
	return line[:start] + callbackURL(resolved) + line[end:]
}
