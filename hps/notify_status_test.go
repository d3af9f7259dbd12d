package hps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyStatusEncodeDecodeRoundTrip(t *testing.T) {
	n := NotifyStatus{StatusCode: 404, HeadersTruncated: true, BodyTruncated: false}
	decoded, err := DecodeNotifyStatus(n.Encode())
	require.NoError(t, err)
	assert.Equal(t, n, decoded)
}

func TestNotifyStatusEncodeLittleEndian(t *testing.T) {
	n := NotifyStatus{StatusCode: 0x0102}
	b := n.Encode()
	assert.Equal(t, byte(0x02), b[0])
	assert.Equal(t, byte(0x01), b[1])
}

func TestNotifyStatusEncodeBothFlags(t *testing.T) {
	n := NotifyStatus{StatusCode: 200, HeadersTruncated: true, BodyTruncated: true}
	b := n.Encode()
	assert.Equal(t, TruncationHeaders|TruncationBody, b[2])
}

func TestDecodeNotifyStatusRejectsWrongLength(t *testing.T) {
	_, err := DecodeNotifyStatus([]byte{0x00, 0x00})
	assert.Error(t, err)
}

func TestDecodeNotifyStatusSentinel(t *testing.T) {
	ns, err := DecodeNotifyStatus([]byte{0, 0, 0})
	require.NoError(t, err)
	assert.Zero(t, ns.StatusCode)
	assert.False(t, ns.HeadersTruncated)
	assert.False(t, ns.BodyTruncated)
}
