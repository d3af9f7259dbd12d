package hps

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, chunkSize uint32, timeoutSeconds int) (*ControlPointDispatcher, *Session) {
	t.Helper()
	session := newTestSession(chunkSize)
	executor := NewExecutor(zerolog.Nop())
	cfg := Config{Timeout: timeoutSeconds}
	return NewControlPointDispatcher(session, executor, cfg, zerolog.Nop()), session
}

func waitForNotification(t *testing.T, d *ControlPointDispatcher) []byte {
	t.Helper()
	select {
	case frame := <-d.Notifications:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status notification")
		return nil
	}
}

func TestHandleWriteRejectsWrongLength(t *testing.T) {
	d, _ := newTestDispatcher(t, 64, 5)
	err := d.HandleWrite([]byte{0x01, 0x02})
	require.Error(t, err)
	assert.Equal(t, KindBadOpcode, err.Kind)
}

func TestHandleWriteRejectsUnknownOpcode(t *testing.T) {
	d, _ := newTestDispatcher(t, 64, 5)
	err := d.HandleWrite([]byte{0xFF})
	require.Error(t, err)
	assert.Equal(t, KindBadOpcode, err.Kind)
}

func TestHandleWriteCancelWhileIdleIsNoop(t *testing.T) {
	d, _ := newTestDispatcher(t, 64, 5)
	err := d.HandleWrite([]byte{byte(OpcodeCancel)})
	assert.Nil(t, err)
}

func TestHandleWriteSuccessfulGetStoresResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	d, session := newTestDispatcher(t, 64, 5)
	session.SetURI(srv.URL)

	err := d.HandleWrite([]byte{byte(OpcodeHTTPGet)})
	require.Nil(t, err)

	frame := waitForNotification(t, d)
	ns, derr := DecodeNotifyStatus(frame)
	require.NoError(t, derr)
	assert.EqualValues(t, http.StatusOK, ns.StatusCode)
	assert.Equal(t, []byte("hello"), session.ReadChunk(SelectBody))
}

func TestHandleWriteRejectsConcurrentRequest(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(block)

	d, session := newTestDispatcher(t, 64, 5)
	session.SetURI(srv.URL)

	require.Nil(t, d.HandleWrite([]byte{byte(OpcodeHTTPGet)}))
	time.Sleep(20 * time.Millisecond)

	err := d.HandleWrite([]byte{byte(OpcodeHTTPGet)})
	require.Error(t, err)
	assert.Equal(t, KindBadOpcode, err.Kind)
}

func TestHandleWriteCancelAbortsRunningRequest(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(block)

	d, session := newTestDispatcher(t, 64, 5)
	session.SetURI(srv.URL)
	session.StoreResponse(200, []byte("stale"), []byte("stale"))

	require.Nil(t, d.HandleWrite([]byte{byte(OpcodeHTTPGet)}))
	time.Sleep(20 * time.Millisecond)

	require.Nil(t, d.HandleWrite([]byte{byte(OpcodeCancel)}))

	frame := waitForNotification(t, d)
	assert.Equal(t, []byte{0, 0, 0}, frame)
	assert.Zero(t, session.StatusCode())
}

func TestHandleWriteFailedConnectClearsResponse(t *testing.T) {
	d, session := newTestDispatcher(t, 64, 1)
	session.SetURI("http://127.0.0.1:1")

	require.Nil(t, d.HandleWrite([]byte{byte(OpcodeHTTPGet)}))
	waitForNotification(t, d)
	assert.Zero(t, session.StatusCode())
}
