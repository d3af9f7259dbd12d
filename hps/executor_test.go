package hps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor() *Executor {
	return NewExecutor(zerolog.Nop())
}

func TestExecuteGetReturnsStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("X-Echo", "abc")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("body-content"))
	}))
	defer srv.Close()

	e := newTestExecutor()
	status, headers, body, err := e.Execute(context.Background(), RequestSnapshot{URI: srv.URL}, OpcodeHTTPGet)
	require.NoError(t, err)
	assert.EqualValues(t, http.StatusOK, status)
	assert.Equal(t, []byte("body-content"), body)
	assert.Contains(t, string(headers), "X-Echo: abc")
}

func TestExecutePostSendsBody(t *testing.T) {
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		received = buf[:n]
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	e := newTestExecutor()
	snap := RequestSnapshot{URI: srv.URL, Body: []byte("payload")}
	status, _, _, err := e.Execute(context.Background(), snap, OpcodeHTTPPost)
	require.NoError(t, err)
	assert.EqualValues(t, http.StatusCreated, status)
	assert.Equal(t, "payload", string(received))
}

func TestExecuteURIWithoutSchemeGetsOpcodeScheme(t *testing.T) {
	e := newTestExecutor()
	_, _, _, err := e.Execute(context.Background(), RequestSnapshot{URI: "127.0.0.1:1"}, OpcodeHTTPGet)
	require.Error(t, err)
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindConnectFail, herr.Kind)
}

func TestExecuteRejectsMalformedURI(t *testing.T) {
	e := newTestExecutor()
	_, _, _, err := e.Execute(context.Background(), RequestSnapshot{URI: "://not-a-url"}, OpcodeHTTPGet)
	require.Error(t, err)
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindUriInvalid, herr.Kind)
}

func TestExecuteRejectsMalformedHeaderBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := newTestExecutor()
	snap := RequestSnapshot{URI: srv.URL, Headers: "not a header block"}
	_, _, _, err := e.Execute(context.Background(), snap, OpcodeHTTPGet)
	require.Error(t, err)
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindUriInvalid, herr.Kind)
}

func TestExecuteCancellationYieldsCancelledKind(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(block)

	e := newTestExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, _, _, err := e.Execute(ctx, RequestSnapshot{URI: srv.URL}, OpcodeHTTPGet)
	require.Error(t, err)
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindCancelled, herr.Kind)
}

func TestExecuteTimeoutYieldsTimeoutKind(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(block)

	e := newTestExecutor()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, _, err := e.Execute(ctx, RequestSnapshot{URI: srv.URL}, OpcodeHTTPGet)
	require.Error(t, err)
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, herr.Kind)
}

func TestExecuteHTTPSSkipsVerificationWhenDisabled(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := newTestExecutor()
	status, _, _, err := e.Execute(context.Background(), RequestSnapshot{URI: srv.URL, TLSVerify: false}, OpcodeHTTPSGet)
	require.NoError(t, err)
	assert.EqualValues(t, http.StatusOK, status)
}

func TestExecuteHTTPSFailsVerificationWhenEnabled(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := newTestExecutor()
	_, _, _, err := e.Execute(context.Background(), RequestSnapshot{URI: srv.URL, TLSVerify: true}, OpcodeHTTPSGet)
	require.Error(t, err)
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindTlsFail, herr.Kind)
}
