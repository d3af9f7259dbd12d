package hps

import "github.com/paypal/gatt"

// DeviceName is the default advertised local name, per spec.md §6.
const DeviceName = "Logbot-HPS"

// HpsServiceUUID is the Bluetooth SIG-assigned 16-bit UUID for the HTTP
// Proxy Service (0x1823). Confirmed against original_source/src/constants.rs;
// the distilled spec.md is silent on the exact value.
var HpsServiceUUID = gatt.UUID16(0x1823)

// Characteristic UUIDs, from the Bluetooth SIG 16-bit UUID assignments
// plus the two auxiliary chunking characteristics this peripheral adds.
const (
	HTTPURIID          = 0x2AB6
	HTTPHeadersID      = 0x2AB7
	HTTPStatusCodeID   = 0x2AB8
	HTTPEntityBodyID   = 0x2AB9
	HTTPControlPointID = 0x2ABA
	HTTPSSecurityID    = 0x2ABB
	ChunkIndexID       = 0x2A9A
	MTUSizesID         = 0x2AC0
)

// Opcode is a single-byte HTTP Control Point command, per spec.md §4.3/§6.
type Opcode uint8

const (
	OpcodeInvalid     Opcode = 0x00
	OpcodeHTTPGet     Opcode = 0x01
	OpcodeHTTPHead    Opcode = 0x02
	OpcodeHTTPPost    Opcode = 0x03
	OpcodeHTTPPut     Opcode = 0x04
	OpcodeHTTPDelete  Opcode = 0x05
	OpcodeHTTPSGet    Opcode = 0x06
	OpcodeHTTPSHead   Opcode = 0x07
	OpcodeHTTPSPost   Opcode = 0x08
	OpcodeHTTPSPut    Opcode = 0x09
	OpcodeHTTPSDelete Opcode = 0x0A
	OpcodeCancel      Opcode = 0x0B
)

// Truncation flag bits for the Status Code notification's third byte,
// per spec.md §6.
const (
	TruncationHeaders uint8 = 0x01
	TruncationBody    uint8 = 0x02
)

// MinChunkSize is the minimum legal ATT payload budget, I1 in spec.md §3.
const MinChunkSize = 20

// MTUOverhead is the number of ATT header bytes subtracted from a
// negotiated MTU to get the usable payload size.
const MTUOverhead = 3
