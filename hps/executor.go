package hps

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// Executor is the HTTP Executor (HE) of spec.md §4.3: given a snapshot of
// URI/headers/body and a method selector derived from the control-point
// opcode, it performs exactly one HTTP/HTTPS request and normalizes the
// response into byte buffers. Grounded on peripheral/main.go's
// sendRequest, extended per original_source/src/http/handler.rs with
// TLS-verify skipping and a context deadline rather than a client-level
// timeout, so opcode 0x0B can cancel the exchange outright.
type Executor struct {
	Logger zerolog.Logger
}

// NewExecutor constructs an Executor.
func NewExecutor(logger zerolog.Logger) *Executor {
	return &Executor{Logger: logger}
}

// Execute issues the HTTP call described by snap and op, returning
// spec.md §4.3's (status, resp_headers, resp_body) triple. On any
// failure it returns a *Error classified per spec.md §7's table.
func (e *Executor) Execute(ctx context.Context, snap RequestSnapshot, op Opcode) (status uint16, respHeaders []byte, respBody []byte, err error) {
	targetURL, uerr := ResolveURL(snap.URI, op)
	if uerr != nil {
		return 0, nil, nil, newError(KindUriInvalid, uerr)
	}
	if !validHTTPURL(targetURL) {
		return 0, nil, nil, newError(KindUriInvalid, fmt.Errorf("invalid URI %q", snap.URI))
	}

	method, merr := DecodeHTTPMethod(op)
	if merr != nil {
		return 0, nil, nil, newError(KindBadOpcode, merr)
	}

	reqHeaders, herr := parseHeaderBlock(snap.Headers)
	if herr != nil {
		return 0, nil, nil, newError(KindUriInvalid, herr)
	}

	var bodyReader io.Reader
	if HasBody(op) && len(snap.Body) > 0 {
		bodyReader = bytes.NewReader(snap.Body)
	}

	req, rerr := http.NewRequestWithContext(ctx, method, targetURL, bodyReader)
	if rerr != nil {
		return 0, nil, nil, newError(KindUriInvalid, rerr)
	}
	req.Header = reqHeaders

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !snap.TLSVerify},
		},
	}

	e.Logger.Debug().Str("req_id", snap.RequestID).Str("method", method).Str("url", targetURL).
		Bool("tls_verify", snap.TLSVerify).Msg("dispatching proxied request")

	resp, derr := client.Do(req)
	if derr != nil {
		if ctx.Err() != nil && isContextCanceled(ctx) {
			return 0, nil, nil, newError(KindCancelled, derr)
		}
		return 0, nil, nil, ClassifyHTTPError(derr)
	}
	defer resp.Body.Close()

	bodyBytes, berr := io.ReadAll(resp.Body)
	if berr != nil {
		return 0, nil, nil, ClassifyHTTPError(berr)
	}

	return uint16(resp.StatusCode), EncodeHeaders(resp.Header), bodyBytes, nil
}

func isContextCanceled(ctx context.Context) bool {
	return ctx.Err() == context.Canceled
}

// validHTTPURL is a minimal sanity check on the resolved URL: it must
// parse and carry an http/https scheme and a host. spec.md §4.3 lists
// "malformed URI" as a failure mode mapping to KindUriInvalid.
func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// parseHeaderBlock decodes spec.md §3's CRLF request header block into an
// http.Header, rejecting a block that is non-empty but contains no
// parseable "Name: Value" line — spec.md §4.3's "malformed request header
// block" failure mode.
func parseHeaderBlock(block string) (http.Header, error) {
	if strings.TrimSpace(block) == "" {
		return http.Header{}, nil
	}
	headers := DecodeHeaders([]byte(block))
	if len(headers) == 0 {
		return nil, fmt.Errorf("malformed request header block")
	}
	return headers, nil
}
