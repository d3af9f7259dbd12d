package main

import (
	"context"
	"fmt"
	"io"
	golog "log"
	"net/url"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/logbothps/hps/hps"
	"github.com/paypal/gatt"
	"github.com/paypal/gatt/examples/option"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cmd/central is a BLE test client for the HTTP Proxy Service: it scans for
// a named peripheral, writes a request across the URI/Headers/Body/Control
// Point characteristics, waits for the Status Code notification, then
// drains the response via the chunked Headers/Body reads and the Chunk
// Index/MTU Sizes characteristics. Grounded on
// central/{main,connection,call_service}.go, consolidated into a single
// command since those three teacher files implemented one client end to
// end (DESIGN.md's "deleted teacher files" entry for hps/client.go and
// hps/connection.go+central/call_service.go records why the other two
// redundant client implementations were dropped instead of kept).

var (
	deviceName string
	uri        string
	headers    []string
	body       string
	verb       string
	timeout    time.Duration
	tlsVerify  bool
)

func init() {
	golog.SetOutput(io.Discard)
}

func main() {
	root := &cobra.Command{
		Use:   "central",
		Short: "Scan for an HTTP Proxy Service peripheral and issue a proxied request",
		RunE:  run,
	}
	root.Flags().StringVar(&deviceName, "name", hps.DeviceName, "Device name to scan for")
	root.Flags().StringVar(&uri, "uri", "http://localhost:8100/hello.txt", "URI to request")
	root.Flags().StringArrayVarP(&headers, "header", "H", nil, `HTTP headers, eg: -H "Accept: text/plain" -H "X-API-KEY: xyzabc"`)
	root.Flags().StringVar(&body, "body", "", "HTTP body to POST/PUT/DELETE")
	root.Flags().StringVar(&verb, "verb", "GET", "HTTP verb: GET, HEAD, POST, PUT, DELETE")
	root.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Time to wait for the peripheral's response")
	root.Flags().BoolVar(&tlsVerify, "tls-verify", true, "Verify TLS certificates for https:// requests")

	if err := root.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("parsing --uri: %w", err)
	}

	op, err := opcodeFor(verb, u.Scheme)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := newCentralClient(deviceName, logger)
	resp, err := client.call(ctx, callRequest{
		uri:       u.Host + u.EscapedPath(),
		headers:   headers,
		body:      []byte(body),
		op:        op,
		tlsVerify: tlsVerify,
	})
	if err != nil {
		color.Red("call failed: %v", err)
		return err
	}

	statusColor := color.New(color.FgGreen)
	if resp.NotifyStatus.StatusCode == 0 || resp.NotifyStatus.StatusCode >= 400 {
		statusColor = color.New(color.FgRed)
	}
	statusColor.Printf("status: %d\n", resp.NotifyStatus.StatusCode)
	if resp.NotifyStatus.HeadersTruncated {
		color.Yellow("headers truncated, read more via chunk index")
	}
	if resp.NotifyStatus.BodyTruncated {
		color.Yellow("body truncated, read more via chunk index")
	}
	fmt.Printf("headers:\n%v\n", resp.DecodedHeaders())
	fmt.Printf("body:\n%s\n", string(resp.Body))
	return nil
}

func opcodeFor(verb, scheme string) (hps.Opcode, error) {
	secure := scheme == "https"
	switch verb {
	case "GET":
		if secure {
			return hps.OpcodeHTTPSGet, nil
		}
		return hps.OpcodeHTTPGet, nil
	case "HEAD":
		if secure {
			return hps.OpcodeHTTPSHead, nil
		}
		return hps.OpcodeHTTPHead, nil
	case "POST":
		if secure {
			return hps.OpcodeHTTPSPost, nil
		}
		return hps.OpcodeHTTPPost, nil
	case "PUT":
		if secure {
			return hps.OpcodeHTTPSPut, nil
		}
		return hps.OpcodeHTTPPut, nil
	case "DELETE":
		if secure {
			return hps.OpcodeHTTPSDelete, nil
		}
		return hps.OpcodeHTTPDelete, nil
	default:
		return hps.OpcodeInvalid, fmt.Errorf("unsupported --verb %q", verb)
	}
}

// gattCharacteristics mirrors central/connection.go's parseService: the set
// of discovered *gatt.Characteristic handles this client writes/reads.
type gattCharacteristics struct {
	uri, headers, body, control, status, httpsSecurity, chunkIndex, mtuSizes *gatt.Characteristic
}

type callRequest struct {
	uri       string
	headers   []string
	body      []byte
	op        hps.Opcode
	tlsVerify bool
}

// centralClient owns one scan-connect-call-disconnect cycle against a
// single named peripheral, adapted from central/connection.go's Connection.
type centralClient struct {
	deviceName string
	logger     zerolog.Logger
}

func newCentralClient(deviceName string, logger zerolog.Logger) *centralClient {
	return &centralClient{deviceName: deviceName, logger: logger}
}

func (cc *centralClient) call(ctx context.Context, req callRequest) (hps.Response, error) {
	d, err := gatt.NewDevice(option.DefaultClientOptions...)
	if err != nil {
		return hps.Response{}, err
	}
	defer d.StopScanning()

	state := &callState{
		client: cc,
		req:    req,
		result: make(chan callOutcome, 1),
	}

	d.Handle(
		gatt.PeripheralDiscovered(state.onPeripheralDiscovered),
		gatt.PeripheralConnected(state.onPeripheralConnected),
		gatt.PeripheralDisconnected(state.onPeripheralDisconnected),
	)
	d.Init(state.onStateChanged)

	select {
	case outcome := <-state.result:
		return outcome.resp, outcome.err
	case <-ctx.Done():
		return hps.Response{}, fmt.Errorf("timed out waiting for %q", cc.deviceName)
	}
}

type callOutcome struct {
	resp hps.Response
	err  error
}

// callState is the mutable per-call scratch space a single scan/connect
// cycle needs; one is allocated per centralClient.call.
type callState struct {
	client *centralClient
	req    callRequest

	chrs     gattCharacteristics
	notified chan struct{}
	result   chan callOutcome
}

func (st *callState) onStateChanged(d gatt.Device, s gatt.State) {
	st.client.logger.Info().Str("state", s.String()).Msg("state changed")
	switch s {
	case gatt.StatePoweredOn:
		d.Scan(nil, false)
	default:
		d.StopScanning()
	}
}

func (st *callState) onPeripheralDiscovered(p gatt.Peripheral, a *gatt.Advertisement, rssi int) {
	if p.Name() != st.client.deviceName {
		return
	}
	st.client.logger.Info().Str("peripheral_id", p.ID()).Msg("found peripheral")
	p.Device().StopScanning()
	p.Device().Connect(p)
}

func (st *callState) onPeripheralConnected(p gatt.Peripheral, err error) {
	if err != nil {
		st.result <- callOutcome{err: err}
		return
	}
	defer p.Device().CancelConnection(p)

	ss, derr := p.DiscoverServices([]gatt.UUID{hps.HpsServiceUUID})
	if derr != nil {
		st.result <- callOutcome{err: derr}
		return
	}
	if len(ss) == 0 {
		st.result <- callOutcome{err: fmt.Errorf("peripheral does not advertise the HTTP Proxy Service")}
		return
	}

	if derr := st.discoverCharacteristics(p, ss[0]); derr != nil {
		st.result <- callOutcome{err: derr}
		return
	}

	resp, derr := st.sendRequest(p)
	st.result <- callOutcome{resp: resp, err: derr}
}

func (st *callState) onPeripheralDisconnected(p gatt.Peripheral, err error) {
	st.client.logger.Info().Msg("peripheral disconnected")
}

func (st *callState) discoverCharacteristics(p gatt.Peripheral, s *gatt.Service) error {
	cs, err := p.DiscoverCharacteristics(nil, s)
	if err != nil {
		return err
	}
	for _, c := range cs {
		switch c.UUID().String() {
		case gatt.UUID16(hps.HTTPURIID).String():
			st.chrs.uri = c
		case gatt.UUID16(hps.HTTPHeadersID).String():
			st.chrs.headers = c
		case gatt.UUID16(hps.HTTPEntityBodyID).String():
			st.chrs.body = c
		case gatt.UUID16(hps.HTTPControlPointID).String():
			st.chrs.control = c
		case gatt.UUID16(hps.HTTPStatusCodeID).String():
			st.chrs.status = c
		case gatt.UUID16(hps.HTTPSSecurityID).String():
			st.chrs.httpsSecurity = c
		case gatt.UUID16(hps.ChunkIndexID).String():
			st.chrs.chunkIndex = c
		case gatt.UUID16(hps.MTUSizesID).String():
			st.chrs.mtuSizes = c
		}
	}
	if st.chrs.status != nil {
		st.notified = make(chan struct{}, 1)
		if err := p.SetNotifyValue(st.chrs.status, st.onNotify); err != nil {
			return err
		}
	}
	return nil
}

func (st *callState) onNotify(c *gatt.Characteristic, b []byte, err error) {
	if err != nil {
		st.client.logger.Err(err).Msg("status notification error")
		return
	}
	ns, derr := hps.DecodeNotifyStatus(b)
	if derr != nil {
		st.client.logger.Err(derr).Msg("decode notify status")
		return
	}
	st.client.logger.Info().Uint16("status", ns.StatusCode).
		Bool("headers_truncated", ns.HeadersTruncated).
		Bool("body_truncated", ns.BodyTruncated).Msg("status notified")
	select {
	case st.notified <- struct{}{}:
	default:
	}
}

func (st *callState) sendRequest(p gatt.Peripheral) (hps.Response, error) {
	if err := p.WriteCharacteristic(st.chrs.uri, []byte(st.req.uri), true); err != nil {
		return hps.Response{}, err
	}
	if err := p.WriteCharacteristic(st.chrs.headers, []byte(encodeCLIHeaders(st.req.headers)), true); err != nil {
		return hps.Response{}, err
	}
	if hps.HasBody(st.req.op) {
		if err := p.WriteCharacteristic(st.chrs.body, st.req.body, true); err != nil {
			return hps.Response{}, err
		}
	}
	if st.chrs.httpsSecurity != nil {
		verifyByte := byte(0)
		if st.req.tlsVerify {
			verifyByte = 1
		}
		if err := p.WriteCharacteristic(st.chrs.httpsSecurity, []byte{verifyByte}, true); err != nil {
			return hps.Response{}, err
		}
	}
	if err := p.WriteCharacteristic(st.chrs.control, []byte{byte(st.req.op)}, false); err != nil {
		return hps.Response{}, err
	}

	select {
	case <-st.notified:
	case <-time.After(5 * time.Second):
		return hps.Response{}, fmt.Errorf("timeout waiting for status notification")
	}

	statusFrame, err := p.ReadCharacteristic(st.chrs.status)
	if err != nil {
		return hps.Response{}, err
	}
	ns, err := hps.DecodeNotifyStatus(statusFrame)
	if err != nil {
		return hps.Response{}, err
	}

	if st.chrs.mtuSizes != nil {
		if mtuFrame, merr := p.ReadCharacteristic(st.chrs.mtuSizes); merr == nil {
			st.client.logger.Debug().Bytes("mtu_sizes", mtuFrame).Msg("peripheral mtu sizes")
		}
	}

	headersBuf, err := st.drainChunked(p, 0)
	if err != nil {
		return hps.Response{}, err
	}
	bodyBuf, err := st.drainChunked(p, 1)
	if err != nil {
		return hps.Response{}, err
	}

	return hps.Response{
		NotifyStatus: ns,
		Headers:      headersBuf,
		Body:         bodyBuf,
		Notified:     true,
	}, nil
}

// drainChunked reads every chunk of the Headers (which==0) or Body
// (which==1) characteristic by repeatedly writing the Chunk Index
// characteristic and reading until an empty chunk signals end of data,
// per the peripheral's slice_chunk/I4 contract.
func (st *callState) drainChunked(p gatt.Peripheral, which int) ([]byte, error) {
	var out []byte
	for idx := uint32(0); ; idx++ {
		var hdrIdx, bodyIdx uint32
		if which == 0 {
			hdrIdx = idx
		} else {
			bodyIdx = idx
		}
		if st.chrs.chunkIndex != nil {
			if err := p.WriteCharacteristic(st.chrs.chunkIndex, encodeChunkIndexWire(hdrIdx, bodyIdx), true); err != nil {
				return nil, err
			}
		}

		var chunk []byte
		var err error
		if which == 0 {
			chunk, err = p.ReadCharacteristic(st.chrs.headers)
		} else {
			chunk, err = p.ReadCharacteristic(st.chrs.body)
		}
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func encodeChunkIndexWire(hdrIdx, bodyIdx uint32) []byte {
	b := make([]byte, 8)
	b[0] = byte(hdrIdx)
	b[1] = byte(hdrIdx >> 8)
	b[2] = byte(hdrIdx >> 16)
	b[3] = byte(hdrIdx >> 24)
	b[4] = byte(bodyIdx)
	b[5] = byte(bodyIdx >> 8)
	b[6] = byte(bodyIdx >> 16)
	b[7] = byte(bodyIdx >> 24)
	return b
}

// encodeCLIHeaders joins repeated -H flags into the CRLF header block the
// peripheral expects (hps.EncodeHeaders' inverse is hps.DecodeHeaders).
func encodeCLIHeaders(hdrs []string) string {
	var out string
	for _, h := range hdrs {
		out += h + "\r\n"
	}
	return out
}
