package hps

import (
	"github.com/paypal/gatt"
	"github.com/rs/zerolog"
)

// Server is the GATT Application Assembler (GAA) of spec.md §4.5: it
// constructs the HPS GATT service definition and wires its eight
// characteristics to a Session, a ControlPointDispatcher and an
// Executor, and owns the chunk-size-at-connection policy. Grounded on
// peripheral/main.go's NewHPSService + main's onStateChanged/
// advertisePeriodically, generalized so the handler closures operate on
// an injected *Session/*ControlPointDispatcher instead of package-level
// globals.
type Server struct {
	Config Config
	Logger zerolog.Logger

	session    *Session
	dispatcher *ControlPointDispatcher
	executor   *Executor
}

// NewServer constructs a Server with a fresh Session/Executor/Dispatcher.
// chunk_size starts at 0 and is resolved at the first connection; it is
// never used before OnCentralConnected runs.
func NewServer(cfg Config, logger zerolog.Logger) *Server {
	session := NewSession(0, logger)
	executor := NewExecutor(logger)
	dispatcher := NewControlPointDispatcher(session, executor, cfg, logger)
	return &Server{
		Config:     cfg,
		Logger:     logger,
		session:    session,
		dispatcher: dispatcher,
		executor:   executor,
	}
}

// Session exposes the underlying Session, for cmd/peripheral's lifecycle
// hooks and for tests.
func (srv *Server) Session() *Session { return srv.session }

// Dispatcher exposes the underlying ControlPointDispatcher.
func (srv *Server) Dispatcher() *ControlPointDispatcher { return srv.dispatcher }

// BuildService assembles the *gatt.Service carrying all eight HPS
// characteristics under HpsServiceUUID, per spec.md §4.2/§4.5.
func (srv *Server) BuildService() *gatt.Service {
	s := gatt.NewService(HpsServiceUUID)
	s.AddCharacteristic(gatt.UUID16(HTTPURIID)).HandleWriteFunc(srv.writeURI)

	hc := s.AddCharacteristic(gatt.UUID16(HTTPHeadersID))
	hc.HandleWriteFunc(srv.writeHeaders)
	hc.HandleReadFunc(srv.readHeaders)

	bc := s.AddCharacteristic(gatt.UUID16(HTTPEntityBodyID))
	bc.HandleWriteFunc(srv.writeBody)
	bc.HandleReadFunc(srv.readBody)

	sc := s.AddCharacteristic(gatt.UUID16(HTTPStatusCodeID))
	sc.HandleReadFunc(srv.readStatus)
	sc.HandleNotifyFunc(srv.notifyStatus)

	s.AddCharacteristic(gatt.UUID16(HTTPControlPointID)).HandleWriteFunc(srv.writeControlPoint)

	sec := s.AddCharacteristic(gatt.UUID16(HTTPSSecurityID))
	sec.HandleReadFunc(srv.readHTTPSSecurity)
	sec.HandleWriteFunc(srv.writeHTTPSSecurity)

	ci := s.AddCharacteristic(gatt.UUID16(ChunkIndexID))
	ci.HandleReadFunc(srv.readChunkIndex)
	ci.HandleWriteFunc(srv.writeChunkIndex)

	s.AddCharacteristic(gatt.UUID16(MTUSizesID)).HandleReadFunc(srv.readMTUSizes)

	return s
}

// OnCentralConnected computes chunk_size for this connection per
// spec.md §4.5/§9: the configured MTU override wins only when it is
// smaller than the link's usable payload (negotiated MTU minus
// MTUOverhead), and the result is pinned for the
// life of the connection (spec.md §9's Open Question resolution).
func (srv *Server) OnCentralConnected(c gatt.Central) {
	negotiated := int(c.MTU())
	chunkSize := srv.Config.EffectiveChunkSize(negotiated)
	srv.session.SetChunkSize(chunkSize)
	srv.Logger.Info().Str("central_id", c.ID()).Int("negotiated_mtu", negotiated).
		Uint32("chunk_size", chunkSize).Msg("central connected")
}

// OnCentralDisconnected implements spec.md §4.5's connection-loss policy:
// cancel any in-flight request and clear response state/chunk indices;
// request-side fields are preserved (CancelInFlight never touches them).
func (srv *Server) OnCentralDisconnected(c gatt.Central) {
	srv.Logger.Info().Str("central_id", c.ID()).Msg("central disconnected")
	srv.dispatcher.CancelInFlight()
}
