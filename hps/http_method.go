package hps

import (
	"fmt"
	"net/http"
)

// DecodeHTTPMethod maps a Control Point opcode to the HTTP method it
// selects, per spec.md §4.3's method-mapping table. Kept from
// davidoram-bluetooth/hps/http_method.go; generalized to the Opcode type
// and to reject Cancel explicitly rather than falling through.
func DecodeHTTPMethod(op Opcode) (string, error) {
	switch op {
	case OpcodeHTTPGet, OpcodeHTTPSGet:
		return http.MethodGet, nil
	case OpcodeHTTPHead, OpcodeHTTPSHead:
		return http.MethodHead, nil
	case OpcodeHTTPPost, OpcodeHTTPSPost:
		return http.MethodPost, nil
	case OpcodeHTTPPut, OpcodeHTTPSPut:
		return http.MethodPut, nil
	case OpcodeHTTPDelete, OpcodeHTTPSDelete:
		return http.MethodDelete, nil
	default:
		return "", fmt.Errorf("unable to decode HTTP method from opcode 0x%02X", op)
	}
}

// HasBody reports whether the opcode's method sends a request body, per
// spec.md §4.3's "Body sent?" column.
func HasBody(op Opcode) bool {
	switch op {
	case OpcodeHTTPPost, OpcodeHTTPPut, OpcodeHTTPDelete,
		OpcodeHTTPSPost, OpcodeHTTPSPut, OpcodeHTTPSDelete:
		return true
	default:
		return false
	}
}
