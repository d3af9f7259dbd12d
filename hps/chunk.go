package hps

import "encoding/binary"

// sliceChunk implements spec.md §4.1's slice_chunk / I4: the contiguous
// byte range buffer[idx*chunkSize : min((idx+1)*chunkSize, len(buffer))],
// or an empty (non-nil-distinction doesn't matter) slice once
// idx*chunkSize >= len(buffer) — the end-of-data convention, not an error.
func sliceChunk(buffer []byte, idx uint32, chunkSize uint32) []byte {
	if chunkSize == 0 {
		if idx == 0 {
			return buffer
		}
		return nil
	}
	start := uint64(idx) * uint64(chunkSize)
	if start >= uint64(len(buffer)) {
		return nil
	}
	end := start + uint64(chunkSize)
	if end > uint64(len(buffer)) {
		end = uint64(len(buffer))
	}
	return buffer[start:end]
}

// encodeChunkIndex encodes the Chunk Index characteristic's 8-byte
// payload: hdr_idx:u32le || body_idx:u32le (spec.md §6).
func encodeChunkIndex(hdrIdx, bodyIdx uint32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:4], hdrIdx)
	binary.LittleEndian.PutUint32(b[4:8], bodyIdx)
	return b
}

// decodeChunkIndex decodes an 8-byte Chunk Index write. The caller must
// have already validated the length is exactly 8 (BadFrameLength
// otherwise, per spec.md §7).
func decodeChunkIndex(b []byte) (hdrIdx, bodyIdx uint32) {
	return binary.LittleEndian.Uint32(b[0:4]), binary.LittleEndian.Uint32(b[4:8])
}

// encodeMTUSizes encodes the MTU Sizes characteristic's 12-byte payload:
// resp_headers_len || resp_body_len || chunk_size, all u32le (spec.md §6).
func encodeMTUSizes(headersLen, bodyLen, chunkSize uint32) []byte {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint32(b[0:4], headersLen)
	binary.LittleEndian.PutUint32(b[4:8], bodyLen)
	binary.LittleEndian.PutUint32(b[8:12], chunkSize)
	return b
}
