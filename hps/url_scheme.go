package hps

import (
	"fmt"
	"strings"
)

// DecodeURLScheme maps a Control Point opcode to the scheme it implies,
// per spec.md §4.3. Kept from davidoram-bluetooth/hps/url_scheme.go,
// generalized to the Opcode type.
func DecodeURLScheme(op Opcode) (string, error) {
	switch op {
	case OpcodeHTTPSGet, OpcodeHTTPSHead, OpcodeHTTPSPut, OpcodeHTTPSPost, OpcodeHTTPSDelete:
		return "https", nil
	case OpcodeHTTPGet, OpcodeHTTPHead, OpcodeHTTPPut, OpcodeHTTPPost, OpcodeHTTPDelete:
		return "http", nil
	default:
		return "", fmt.Errorf("unable to decode URL scheme from opcode 0x%02X", op)
	}
}

// ResolveURL builds the full URL HE dispatches, per spec.md §4.3: "If the
// stored URI already carries a scheme, HE uses the URI's scheme and the
// opcode's method; otherwise HE prepends the scheme implied by the
// opcode."
func ResolveURL(uri string, op Opcode) (string, error) {
	if strings.Contains(uri, "://") {
		return uri, nil
	}
	scheme, err := DecodeURLScheme(op)
	if err != nil {
		return "", err
	}
	return scheme + "://" + uri, nil
}
