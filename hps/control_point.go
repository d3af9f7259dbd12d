package hps

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

type cpdState int

const (
	stateIdle cpdState = iota
	stateRunning
)

// ControlPointDispatcher is the Control Point Dispatcher (CPD) of
// spec.md §4.4: the state machine triggered by writes to the HTTP
// Control Point characteristic. It owns exactly the control-flow state
// (Idle/Running, the in-flight cancel func) that the Session itself does
// not model — Session stays pure data, guarded by its own lock; CPD's
// lock guards only state/cancel, and is held only for the instant needed
// to flip a flag, never across network I/O (spec.md §5).
type ControlPointDispatcher struct {
	session  *Session
	executor *Executor
	config   Config
	Logger   zerolog.Logger

	mu     sync.Mutex
	state  cpdState
	cancel context.CancelFunc

	// Notifications carries 3-byte Status Code frames to the GATT notify
	// handler. Buffered by one: only the most recent status matters, so a
	// full buffer is drained and replaced rather than blocking the
	// dispatcher goroutine on a slow or disconnected central.
	Notifications chan []byte
}

// NewControlPointDispatcher wires a dispatcher over session/executor/cfg.
func NewControlPointDispatcher(session *Session, executor *Executor, cfg Config, logger zerolog.Logger) *ControlPointDispatcher {
	return &ControlPointDispatcher{
		session:       session,
		executor:      executor,
		config:        cfg,
		Logger:        logger,
		Notifications: make(chan []byte, 1),
	}
}

func isValidRequestOpcode(op Opcode) bool {
	return op >= OpcodeHTTPGet && op <= OpcodeHTTPSDelete
}

// HandleWrite implements the Control Point write contract of spec.md
// §4.2/§4.4. It returns nil for an ATT write-success (which may still
// mean "no-op", per the Idle+Cancel case) or a *Error for an ATT-level
// rejection — BadOpcode never touches the Session (I5).
func (d *ControlPointDispatcher) HandleWrite(data []byte) *Error {
	if len(data) != 1 {
		return ErrKind(KindBadOpcode)
	}
	op := Opcode(data[0])

	if op == OpcodeCancel {
		return d.handleCancel()
	}
	if !isValidRequestOpcode(op) {
		return ErrKind(KindBadOpcode)
	}

	d.mu.Lock()
	if d.state == stateRunning {
		d.mu.Unlock()
		// Concurrent-opcode-while-Running: this implementation rejects
		// rather than queues (spec.md §4.4 leaves the choice open;
		// DESIGN.md records this as the consistent, documented choice).
		d.Logger.Warn().Str("op", op.String()).Msg("control point write rejected, request already running")
		return ErrKind(KindBadOpcode)
	}
	snap := d.session.SnapshotRequest()
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.state = stateRunning
	d.mu.Unlock()

	d.Logger.Debug().Str("op", op.String()).Str("req_id", snap.RequestID).Msg("control point dispatching request")
	go d.run(ctx, op, snap)
	return nil
}

// handleCancel implements spec.md §4.4's Cancel transitions: Idle+Cancel
// is a silent no-op; Running+Cancel aborts the in-flight call, clears the
// response, and notifies status=0/truncation=0.
func (d *ControlPointDispatcher) handleCancel() *Error {
	d.mu.Lock()
	running := d.state == stateRunning
	if running && d.cancel != nil {
		d.cancel()
	}
	d.state = stateIdle
	d.cancel = nil
	d.mu.Unlock()

	if running {
		d.session.ClearResponse()
		d.emit(d.session.StatusFrame())
	}
	return nil
}

// CancelInFlight aborts any in-flight request without emitting a
// notification — used on BLE disconnect (spec.md §4.5, §7's Cancelled
// row: "only if still connected").
func (d *ControlPointDispatcher) CancelInFlight() {
	d.mu.Lock()
	if d.state == stateRunning && d.cancel != nil {
		d.cancel()
	}
	d.state = stateIdle
	d.cancel = nil
	d.mu.Unlock()
	d.session.ClearResponse()
}

func (d *ControlPointDispatcher) run(ctx context.Context, op Opcode, snap RequestSnapshot) {
	timeoutCtx, timeoutCancel := context.WithTimeout(ctx, d.config.RequestTimeout())
	defer timeoutCancel()

	status, headers, body, err := d.executor.Execute(timeoutCtx, snap, op)

	d.mu.Lock()
	stillRunning := d.state == stateRunning
	if stillRunning {
		d.state = stateIdle
		d.cancel = nil
	}
	d.mu.Unlock()

	if !stillRunning {
		// Cancelled (opcode 0x0B or disconnect) already transitioned us
		// back to Idle and, if applicable, emitted its own notification.
		// No partial response is stored on cancellation (I2, spec.md §5).
		d.Logger.Debug().Str("req_id", snap.RequestID).Msg("request completed after cancellation, discarding result")
		return
	}

	if err != nil {
		herr, ok := err.(*Error)
		if !ok {
			herr = newError(KindConnectFail, err)
		}
		d.Logger.Warn().Str("req_id", snap.RequestID).Str("kind", herr.Kind.String()).Err(herr.Err).Msg("request failed")
		d.session.ClearResponse()
		d.emit(d.session.StatusFrame())
		return
	}

	d.session.StoreResponse(status, headers, body)
	d.Logger.Info().Str("req_id", snap.RequestID).Uint16("status", status).
		Int("headers_len", len(headers)).Int("body_len", len(body)).Msg("request completed")
	d.emit(d.session.StatusFrame())
}

// emit pushes a status frame to Notifications, replacing any stale,
// un-consumed frame rather than blocking the dispatcher goroutine.
func (d *ControlPointDispatcher) emit(frame []byte) {
	select {
	case d.Notifications <- frame:
		return
	default:
	}
	select {
	case <-d.Notifications:
	default:
	}
	select {
	case d.Notifications <- frame:
	default:
		d.Logger.Warn().Msg("dropped status notification, channel full")
	}
}

func (op Opcode) String() string {
	switch op {
	case OpcodeHTTPGet:
		return "http_get"
	case OpcodeHTTPHead:
		return "http_head"
	case OpcodeHTTPPost:
		return "http_post"
	case OpcodeHTTPPut:
		return "http_put"
	case OpcodeHTTPDelete:
		return "http_delete"
	case OpcodeHTTPSGet:
		return "https_get"
	case OpcodeHTTPSHead:
		return "https_head"
	case OpcodeHTTPSPost:
		return "https_post"
	case OpcodeHTTPSPut:
		return "https_put"
	case OpcodeHTTPSDelete:
		return "https_delete"
	case OpcodeCancel:
		return "cancel"
	default:
		return "invalid"
	}
}
