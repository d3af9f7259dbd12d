package hps

import (
	"net/http"
	"sort"
	"strings"
)

// EncodeHeaders serializes an http.Header into the CRLF-separated
// "Name: Value" block spec.md §4.3 specifies, with the final line
// followed by CRLF. Adapted from
// davidoram-bluetooth/hps/http_headers.go's EncodeHeaders, but switched
// from that file's "Name=Value\n" shape to the wire format spec.md §3/§4.3
// actually requires, and with truncation removed from here — truncation
// is now computed once, centrally, by Session.computeTruncationFlags per
// I3, against the connection's chunk_size rather than a fixed octet
// count.
//
// Go's http.Header is a map and does not preserve the order headers
// arrived in, unlike original_source's reqwest::HeaderMap (which does);
// names are sorted for a deterministic, reproducible wire encoding rather
// than an arbitrary map iteration order.
func EncodeHeaders(headers http.Header) []byte {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		for _, value := range headers[name] {
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(value)
			b.WriteString("\r\n")
		}
	}
	return []byte(b.String())
}

// DecodeHeaders parses a CRLF-separated "Name: Value" block into an
// http.Header, the inverse of EncodeHeaders. A line with no ':' is
// skipped rather than erroring; the executor's parseHeaderBlock reports a
// non-empty block from which no line decodes as KindUriInvalid
// (spec.md §4.3 "malformed request header block").
func DecodeHeaders(b []byte) http.Header {
	headers := http.Header{}
	if len(b) == 0 {
		return headers
	}
	text := strings.ReplaceAll(string(b), "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		name := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		if name == "" {
			continue
		}
		headers.Add(name, value)
	}
	return headers
}
