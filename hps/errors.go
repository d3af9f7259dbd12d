package hps

import (
	"context"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
)

// Kind identifies one of the error kinds from spec.md §7's table.
type Kind int

const (
	// KindNone is the zero value; it is never attached to an Error.
	KindNone Kind = iota
	// KindBadOpcode: unknown Control Point byte.
	KindBadOpcode
	// KindBadFrameLength: Chunk Index/Security/MTUSizes write of wrong length.
	KindBadFrameLength
	// KindUriInvalid: HE rejected the stored URI.
	KindUriInvalid
	// KindTimeout: HE exceeded request_timeout.
	KindTimeout
	// KindConnectFail: HE could not establish a connection.
	KindConnectFail
	// KindTlsFail: HE's TLS handshake failed.
	KindTlsFail
	// KindDnsFail: HE's DNS resolution failed.
	KindDnsFail
	// KindCancelled: opcode 0x0B or disconnect aborted the in-flight request.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindBadOpcode:
		return "bad_opcode"
	case KindBadFrameLength:
		return "bad_frame_length"
	case KindUriInvalid:
		return "uri_invalid"
	case KindTimeout:
		return "timeout"
	case KindConnectFail:
		return "connect_fail"
	case KindTlsFail:
		return "tls_fail"
	case KindDnsFail:
		return "dns_fail"
	case KindCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Error is the typed error carried by the hps core, per spec.md §7.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, hps.ErrKind(KindTimeout)) style matching.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

func newError(k Kind, err error) *Error {
	return &Error{Kind: k, Err: err}
}

// ErrKind builds a sentinel Error of the given Kind, usable with errors.Is.
func ErrKind(k Kind) *Error {
	return &Error{Kind: k}
}

// ClassifyHTTPError maps an error returned from the HTTP client (or from
// parsing the stored request) into one of spec.md §7's error kinds. A nil
// input returns nil; any other input yields a non-nil *Error.
func ClassifyHTTPError(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return newError(KindTimeout, err)
		}
		var dnsErr *net.DNSError
		if errors.As(urlErr.Err, &dnsErr) {
			return newError(KindDnsFail, err)
		}
		var certErr x509.CertificateInvalidError
		var unknownAuthErr x509.UnknownAuthorityError
		if errors.As(urlErr.Err, &certErr) || errors.As(urlErr.Err, &unknownAuthErr) {
			return newError(KindTlsFail, err)
		}
		return newError(KindConnectFail, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return newError(KindDnsFail, err)
	}
	return newError(KindConnectFail, err)
}
