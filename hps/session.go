package hps

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BufferSelector picks which pair of session buffers a chunked read or
// index applies to, per spec.md §3's chunk_indices / I4.
type BufferSelector int

const (
	SelectHeaders BufferSelector = iota
	SelectBody
)

// RequestSnapshot is an owned copy of the request-side Session fields,
// returned by Session.SnapshotRequest so the HTTP Executor never touches
// Session buffers while network I/O is in flight (spec.md §4.1, §5).
type RequestSnapshot struct {
	URI        string
	Headers    string
	Body       []byte
	TLSVerify  bool
	RequestID  string
}

// Session is the Shared Session State (SSS) of spec.md §3/§4.1: the single
// mutable record representing the request currently being assembled and
// the most recent response. All byte buffers are owned outright and
// replaced wholesale on write; nothing here aliases another field.
type Session struct {
	mu sync.Mutex

	uri         string
	reqHeaders  string
	reqBody     []byte
	tlsVerify   bool

	respHeaders []byte
	respBody    []byte
	statusCode  uint16

	truncationFlags uint8
	hdrChunkIdx     uint32
	bodyChunkIdx    uint32

	chunkSize uint32

	Logger zerolog.Logger
}

// NewSession constructs a Session with chunk_size seeded from cfg/mtu.
// tls_verify defaults to true (verify certificates) until the central
// writes the HTTPS Security characteristic.
func NewSession(chunkSize uint32, logger zerolog.Logger) *Session {
	return &Session{
		tlsVerify: true,
		chunkSize: chunkSize,
		Logger:    logger,
	}
}

// SetURI stores the URI bytes as-is, per the HTTP URI characteristic's
// write contract (spec.md §4.2). Replaced wholesale on every write.
func (s *Session) SetURI(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uri = uri
}

// SetRequestHeaders replaces req_headers wholesale.
func (s *Session) SetRequestHeaders(h string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqHeaders = h
}

// SetRequestBody replaces req_body wholesale.
func (s *Session) SetRequestBody(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqBody = b
}

// SetTLSVerify toggles tls_verify, written by the HTTPS Security
// characteristic.
func (s *Session) SetTLSVerify(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tlsVerify = v
}

// TLSVerify reads the current tls_verify flag, for the HTTPS Security
// characteristic's read.
func (s *Session) TLSVerify() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tlsVerify
}

// ChunkSize returns the session's computed chunk_size.
func (s *Session) ChunkSize() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunkSize
}

// SetChunkSize pins chunk_size, normally called once by the GAA at
// connection establishment (spec.md §4.5). A conservative implementation
// pins it for the life of the connection per spec.md §9's Open Question.
func (s *Session) SetChunkSize(size uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunkSize = size
}

// SnapshotRequest returns owned copies of the request-side fields, per
// spec.md §4.1. The HTTP Executor uses the snapshot for the duration of
// the call so the Session lock is never held across network I/O.
func (s *Session) SnapshotRequest() RequestSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	body := make([]byte, len(s.reqBody))
	copy(body, s.reqBody)
	return RequestSnapshot{
		URI:       s.uri,
		Headers:   s.reqHeaders,
		Body:      body,
		TLSVerify: s.tlsVerify,
		RequestID: uuid.NewString(),
	}
}

// StoreResponse atomically replaces the response fields and resets
// chunk_indices to (0,0), per spec.md §4.1's store_response contract and
// I2/I3. A statusCode of 0 represents the sentinel "no successful
// response" state from spec.md §7.
func (s *Session) StoreResponse(statusCode uint16, headers, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCode = statusCode
	s.respHeaders = headers
	s.respBody = body
	s.hdrChunkIdx = 0
	s.bodyChunkIdx = 0
	s.truncationFlags = s.computeTruncationFlags()
}

// ClearResponse resets the response fields to the empty, sentinel state
// used by spec.md §7 for every HTTP-layer failure and by cancellation.
func (s *Session) ClearResponse() {
	s.StoreResponse(0, nil, nil)
}

// computeTruncationFlags implements I3: bit0 set iff len(resp_headers) >
// chunk_size, bit1 set iff len(resp_body) > chunk_size. Caller must hold
// s.mu.
func (s *Session) computeTruncationFlags() uint8 {
	var flags uint8
	if s.chunkSize > 0 && uint32(len(s.respHeaders)) > s.chunkSize {
		flags |= TruncationHeaders
	}
	if s.chunkSize > 0 && uint32(len(s.respBody)) > s.chunkSize {
		flags |= TruncationBody
	}
	return flags
}

// StatusFrame returns the 3-byte status notification payload of spec.md
// §6: u16 LE status || u8 truncation_flags.
func (s *Session) StatusFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeNotifyStatus(s.statusCode, s.truncationFlags)
}

// MTUSizesFrame returns the 12-byte MTU Sizes payload of spec.md §6:
// resp_headers_len || resp_body_len || chunk_size, all u32 LE.
func (s *Session) MTUSizesFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeMTUSizes(uint32(len(s.respHeaders)), uint32(len(s.respBody)), s.chunkSize)
}

// ChunkIndices returns the current (hdr_idx, body_idx) pair.
func (s *Session) ChunkIndices() (uint32, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hdrChunkIdx, s.bodyChunkIdx
}

// SetChunkIndices replaces both chunk indices, per the Chunk Index
// characteristic's write contract.
func (s *Session) SetChunkIndices(hdrIdx, bodyIdx uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hdrChunkIdx = hdrIdx
	s.bodyChunkIdx = bodyIdx
}

// ReadChunk implements I4: slice_chunk(buffer, index) for the requested
// selector, using the index currently stored in chunk_indices, per
// spec.md §4.2's "Read returns" column.
func (s *Session) ReadChunk(sel BufferSelector) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch sel {
	case SelectHeaders:
		return sliceChunk(s.respHeaders, s.hdrChunkIdx, s.chunkSize)
	default:
		return sliceChunk(s.respBody, s.bodyChunkIdx, s.chunkSize)
	}
}

// RequestHeaders and RequestBody expose the raw request-side fields for
// diagnostics and tests; not part of the characteristic read surface
// (only HE reads them, via SnapshotRequest).
func (s *Session) RequestHeaders() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqHeaders
}

func (s *Session) RequestBody() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqBody
}

func (s *Session) URI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uri
}

// StatusCode exposes the raw stored status, for tests and diagnostics.
func (s *Session) StatusCode() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCode
}
