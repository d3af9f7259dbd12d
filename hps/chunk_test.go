package hps

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceChunkRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte{0x41}, 300)
	const chunkSize = 128

	var reassembled []byte
	for idx := uint32(0); ; idx++ {
		chunk := sliceChunk(data, idx, chunkSize)
		if len(chunk) == 0 {
			break
		}
		reassembled = append(reassembled, chunk...)
	}
	assert.Equal(t, data, reassembled)
}

func TestSliceChunkBoundaries(t *testing.T) {
	data := bytes.Repeat([]byte{0x41}, 300)
	assert.Len(t, sliceChunk(data, 0, 128), 128)
	assert.Len(t, sliceChunk(data, 1, 128), 128)
	assert.Len(t, sliceChunk(data, 2, 128), 44)
	assert.Empty(t, sliceChunk(data, 3, 128))
}

func TestSliceChunkEmptyBuffer(t *testing.T) {
	assert.Empty(t, sliceChunk(nil, 0, 128))
}

func TestSliceChunkExactMultiple(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 128)
	assert.Equal(t, data, sliceChunk(data, 0, 128))
	assert.Empty(t, sliceChunk(data, 1, 128))
}

func TestChunkIndexCodec(t *testing.T) {
	b := encodeChunkIndex(7, 11)
	assert.Len(t, b, 8)
	hdr, body := decodeChunkIndex(b)
	assert.Equal(t, uint32(7), hdr)
	assert.Equal(t, uint32(11), body)
}

func TestMTUSizesEncoding(t *testing.T) {
	b := encodeMTUSizes(0x1B, 0x05, 0x80)
	assert.Equal(t, []byte{0x1B, 0, 0, 0, 0x05, 0, 0, 0, 0x80, 0, 0, 0}, b)
}
