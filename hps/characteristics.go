package hps

import (
	"time"

	"github.com/paypal/gatt"
)

// This file holds the Characteristic Handlers (CH) of spec.md §4.2 for the
// eight characteristics, one Server method per read, write or notify
// callback, each translating a BLE
// read/write/notify callback into a read or mutation of Session (or, for
// the chunked characteristics, a slice of a stored buffer by index).
// Grounded on peripheral/main.go's NewHPSService handler closures.

// writeURI implements the HTTP URI characteristic's write: stored as-is,
// replaced wholesale (spec.md §4.2).
func (srv *Server) writeURI(r gatt.Request, data []byte) (status byte) {
	srv.session.SetURI(string(data))
	srv.Logger.Debug().Str("attr", "uri").Str("val", string(data)).Msg("write")
	return gatt.StatusSuccess
}

// writeHeaders implements the HTTP Headers characteristic's write: the
// request header block, replacing req_headers.
func (srv *Server) writeHeaders(r gatt.Request, data []byte) (status byte) {
	srv.session.SetRequestHeaders(string(data))
	srv.Logger.Debug().Str("attr", "headers").Int("len", len(data)).Msg("write")
	return gatt.StatusSuccess
}

// readHeaders implements the HTTP Headers characteristic's read: I4's
// slice_chunk(resp_headers, hdr_idx).
func (srv *Server) readHeaders(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
	chunk := srv.session.ReadChunk(SelectHeaders)
	if _, err := rsp.Write(chunk); err != nil {
		srv.Logger.Err(err).Str("attr", "headers").Msg("read")
	}
}

// writeBody implements the HTTP Entity Body characteristic's write:
// request body bytes, replacing req_body.
func (srv *Server) writeBody(r gatt.Request, data []byte) (status byte) {
	srv.session.SetRequestBody(data)
	srv.Logger.Debug().Str("attr", "body").Int("len", len(data)).Msg("write")
	return gatt.StatusSuccess
}

// readBody implements the HTTP Entity Body characteristic's read: I4's
// slice_chunk(resp_body, body_idx).
func (srv *Server) readBody(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
	chunk := srv.session.ReadChunk(SelectBody)
	if _, err := rsp.Write(chunk); err != nil {
		srv.Logger.Err(err).Str("attr", "body").Msg("read")
	}
}

// readStatus implements the HTTP Status Code characteristic's read: the
// 3-byte status+truncation frame (spec.md §4.2/§6).
func (srv *Server) readStatus(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
	if _, err := rsp.Write(srv.session.StatusFrame()); err != nil {
		srv.Logger.Err(err).Str("attr", "status").Msg("read")
	}
}

// notifyStatus implements the HTTP Status Code characteristic's notify
// session: it drains ControlPointDispatcher.Notifications and forwards
// each frame to the subscribed central, polling n.Done() between frames
// the same way peripheral/main.go's original notify loop polled
// response.Notified.
func (srv *Server) notifyStatus(r gatt.Request, n gatt.Notifier) {
	srv.Logger.Debug().Msg("status notification session start")
	for !n.Done() {
		select {
		case frame := <-srv.dispatcher.Notifications:
			if _, err := n.Write(frame); err != nil {
				srv.Logger.Err(err).Str("attr", "status").Msg("notify")
				return
			}
		case <-time.After(100 * time.Millisecond):
		}
	}
	srv.Logger.Debug().Msg("status notification session stop")
}

// writeControlPoint implements the HTTP Control Point characteristic's
// write by delegating to the ControlPointDispatcher state machine.
func (srv *Server) writeControlPoint(r gatt.Request, data []byte) (status byte) {
	if err := srv.dispatcher.HandleWrite(data); err != nil {
		srv.Logger.Warn().Err(err).Str("attr", "control_point").Msg("write rejected")
		return gatt.StatusUnexpectedError
	}
	return gatt.StatusSuccess
}

// readHTTPSSecurity implements the HTTPS Security characteristic's read:
// a single byte, 1 iff tls_verify.
func (srv *Server) readHTTPSSecurity(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
	b := byte(0)
	if srv.session.TLSVerify() {
		b = 1
	}
	if _, err := rsp.Write([]byte{b}); err != nil {
		srv.Logger.Err(err).Str("attr", "https_security").Msg("read")
	}
}

// writeHTTPSSecurity implements the HTTPS Security characteristic's
// write: a 1-byte boolean toggling tls_verify. Any other length is
// BadFrameLength (spec.md §4.2/§7).
func (srv *Server) writeHTTPSSecurity(r gatt.Request, data []byte) (status byte) {
	if len(data) != 1 {
		srv.Logger.Warn().Int("len", len(data)).Msg("https_security write: bad frame length")
		return gatt.StatusUnexpectedError
	}
	srv.session.SetTLSVerify(data[0] != 0)
	srv.Logger.Debug().Str("attr", "https_security").Bool("tls_verify", data[0] != 0).Msg("write")
	return gatt.StatusSuccess
}

// readChunkIndex implements the Chunk Index characteristic's read: the
// 8-byte hdr_idx||body_idx frame.
func (srv *Server) readChunkIndex(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
	hdrIdx, bodyIdx := srv.session.ChunkIndices()
	if _, err := rsp.Write(encodeChunkIndex(hdrIdx, bodyIdx)); err != nil {
		srv.Logger.Err(err).Str("attr", "chunk_index").Msg("read")
	}
}

// writeChunkIndex implements the Chunk Index characteristic's write:
// both indices replaced together. Any length other than 8 is
// BadFrameLength, and leaves chunk_indices unchanged.
func (srv *Server) writeChunkIndex(r gatt.Request, data []byte) (status byte) {
	if len(data) != 8 {
		srv.Logger.Warn().Int("len", len(data)).Msg("chunk_index write: bad frame length")
		return gatt.StatusUnexpectedError
	}
	hdrIdx, bodyIdx := decodeChunkIndex(data)
	srv.session.SetChunkIndices(hdrIdx, bodyIdx)
	srv.Logger.Debug().Str("attr", "chunk_index").Uint32("hdr_idx", hdrIdx).Uint32("body_idx", bodyIdx).Msg("write")
	return gatt.StatusSuccess
}

// readMTUSizes implements the MTU Sizes characteristic's read: the
// 12-byte resp_headers_len||resp_body_len||chunk_size frame.
func (srv *Server) readMTUSizes(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
	if _, err := rsp.Write(srv.session.MTUSizesFrame()); err != nil {
		srv.Logger.Err(err).Str("attr", "mtu_sizes").Msg("read")
	}
}
