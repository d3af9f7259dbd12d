package hps

import (
	"encoding/binary"
	"fmt"
)

// NotifyStatus is the decoded shape of the 3-byte Status Code
// notification payload from spec.md §6: u16le status || u8
// truncation_flags (bit0 = headers truncated, bit1 = body truncated).
// Adapted from davidoram-bluetooth/hps/notify_status.go, trimmed from
// that file's 4-bit HeadersReceived/BodyReceived/HeadersTruncated/
// BodyTruncated scheme to spec.md's 2-bit one — "received" is implied by
// a non-empty buffer, which the central learns from the MTU Sizes
// characteristic instead.
type NotifyStatus struct {
	StatusCode       uint16
	HeadersTruncated bool
	BodyTruncated    bool
}

// Encode serializes the 3-byte frame.
func (n NotifyStatus) Encode() []byte {
	var flags uint8
	if n.HeadersTruncated {
		flags |= TruncationHeaders
	}
	if n.BodyTruncated {
		flags |= TruncationBody
	}
	return encodeNotifyStatus(n.StatusCode, flags)
}

// DecodeNotifyStatus decodes a 3-byte Status Code notification payload,
// for use by a BLE central consuming the notification.
func DecodeNotifyStatus(buf []byte) (NotifyStatus, error) {
	var ns NotifyStatus
	if len(buf) != 3 {
		return ns, fmt.Errorf("notify status frame must be 3 bytes, got %d", len(buf))
	}
	ns.StatusCode = binary.LittleEndian.Uint16(buf[0:2])
	ns.HeadersTruncated = buf[2]&TruncationHeaders != 0
	ns.BodyTruncated = buf[2]&TruncationBody != 0
	return ns, nil
}

// encodeNotifyStatus builds the raw 3-byte frame from a status code and a
// pre-computed truncation-flags byte.
func encodeNotifyStatus(statusCode uint16, flags uint8) []byte {
	b := make([]byte, 3)
	binary.LittleEndian.PutUint16(b[0:2], statusCode)
	b[2] = flags
	return b
}
