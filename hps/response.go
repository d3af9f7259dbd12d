package hps

import "net/http"

// Response is the BLE central's view of a completed HPS exchange:
// the decoded Status Code notification plus whatever chunks it has
// collected so far from the Headers/Body characteristics. Kept from
// davidoram-bluetooth/hps/response.go, used by cmd/central.
type Response struct {
	NotifyStatus NotifyStatus
	Headers      []byte
	Body         []byte
	Notified     bool
}

// DecodedHeaders parses the collected header bytes with DecodeHeaders.
func (r *Response) DecodedHeaders() http.Header {
	return DecodeHeaders(r.Headers)
}
