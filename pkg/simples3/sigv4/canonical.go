package sigv4

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Headers that must never be part of the signed set. Authorization would
// be self-referential; the rest are routinely rewritten by proxies.
var ignoredHeaders = map[string]struct{}{
	"authorization":   {},
	"user-agent":      {},
	"x-amzn-trace-id": {},
	"expect":          {},
}

// buildCanonicalRequest assembles the canonical request string. All six
// components must match the server's reconstruction byte for byte or the
// signature is rejected.
func buildCanonicalRequest(method, escapedPath, canonicalQuery, canonicalHeaders, signedList, payloadHash string) string {
	return strings.Join([]string{
		method,
		escapedPath,
		canonicalQuery,
		canonicalHeaders,
		signedList,
		payloadHash,
	}, "\n")
}

// canonicalPath returns the escaped URL path, or "/" for an empty path.
// The path is taken as already URL-encoded and is not re-encoded here.
func canonicalPath(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		return "/"
	}
	return p
}

// canonicalQueryString serializes query parameters sorted by name, with
// repeated names ordered by value. Percent-encoding follows the sigv4
// rules: space is %20, never "+".
func canonicalQueryString(q url.Values) string {
	if len(q) == 0 {
		return ""
	}

	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		values := append([]string(nil), q[name]...)
		sort.Strings(values)
		for _, value := range values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(queryEscape(name))
			b.WriteByte('=')
			b.WriteString(queryEscape(value))
		}
	}
	return b.String()
}

// queryEscape percent-encodes a query component. url.QueryEscape encodes
// space as "+" per form encoding; sigv4 requires %20.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// signedHeaderNames selects the headers to protect: host plus every
// header present on the request, minus the ignored set. Names are
// returned lower-cased and sorted.
func signedHeaderNames(h http.Header) []string {
	names := make([]string, 0, len(h)+1)
	names = append(names, "host")
	for name := range h {
		lower := strings.ToLower(name)
		if lower == "host" {
			continue // already included; net/http carries the host outside the header map
		}
		if _, skip := ignoredHeaders[lower]; skip {
			continue
		}
		names = append(names, lower)
	}
	sort.Strings(names)
	return names
}

// canonicalHeaders builds the canonical header block and the signed-header
// list for the given lower-cased, sorted names. Values are trimmed of
// leading and trailing whitespace; multiple values for one name are comma
// joined. Each header line ends with its own newline, so the block as a
// whole carries a trailing "\n".
func canonicalHeaders(h http.Header, host string, names []string) (block, list string) {
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		if name == "host" {
			b.WriteString(strings.TrimSpace(host))
		} else {
			values := h.Values(name)
			for i, v := range values {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(strings.TrimSpace(v))
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), strings.Join(names, ";")
}
