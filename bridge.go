// bridge.go — the host bridge wire codec.
//
// Guest code reaches host capabilities through versioned binary envelopes.
// An envelope is:
//
//	u16  schema version (big-endian)
//	u8   kind
//	u8   action
//	u8   field count
//	then per field: u8 id, u16 length, bytes
//
// The version is decoded and gated before anything else: a decoder that
// does not support the version rejects the envelope without interpreting a
// single payload byte. Unknown field ids are skipped so newer peers can add
// fields without breaking older decoders; ids 0xF0..0xFF stay reserved and
// are never assigned.
package deka

import (
	"encoding/binary"
	"fmt"
)

// Schema versions.
const (
	BridgeV1 uint16 = 1
	BridgeV2 uint16 = 2 // reserved for the next envelope revision
)

// Envelope kinds.
const (
	KindStorage    uint8 = 1
	KindFilesystem uint8 = 2
	KindNetwork    uint8 = 3
	KindEnv        uint8 = 4
	KindClock      uint8 = 5
	KindReply      uint8 = 0x7F
)

// Actions. Request actions are kind-scoped; replies use ActOK/ActError.
const (
	ActGet    uint8 = 1
	ActSet    uint8 = 2
	ActDelete uint8 = 3
	ActList   uint8 = 4
	ActRead   uint8 = 5
	ActExists uint8 = 6
	ActNow    uint8 = 7

	ActOK    uint8 = 0x80
	ActError uint8 = 0x81
)

// Field ids.
const (
	FieldKey   uint8 = 1
	FieldValue uint8 = 2
	FieldPath  uint8 = 3
	FieldName  uint8 = 4
	FieldError uint8 = 5
	FieldData  uint8 = 6

	fieldReservedBase uint8 = 0xF0
)

// kindActions lists the actions each kind accepts.
var kindActions = map[uint8]map[uint8]bool{
	KindStorage:    {ActGet: true, ActSet: true, ActDelete: true, ActList: true},
	KindFilesystem: {ActRead: true, ActExists: true},
	KindNetwork:    {ActGet: true},
	KindEnv:        {ActGet: true},
	KindClock:      {ActNow: true},
	KindReply:      {ActOK: true, ActError: true},
}

var kindNames = map[string]uint8{
	"storage":    KindStorage,
	"filesystem": KindFilesystem,
	"network":    KindNetwork,
	"env":        KindEnv,
	"clock":      KindClock,
}

var actionNames = map[string]uint8{
	"get":    ActGet,
	"set":    ActSet,
	"delete": ActDelete,
	"list":   ActList,
	"read":   ActRead,
	"exists": ActExists,
	"now":    ActNow,
}

// EnvField is one TLV payload field.
type EnvField struct {
	ID    uint8
	Value []byte
}

// Envelope is a decoded bridge message.
type Envelope struct {
	Version uint16
	Kind    uint8
	Action  uint8
	Fields  []EnvField
}

// Field returns the first field with the given id.
func (e *Envelope) Field(id uint8) ([]byte, bool) {
	for _, f := range e.Fields {
		if f.ID == id {
			return f.Value, true
		}
	}
	return nil, false
}

// Add appends a field. Reserved ids panic: they indicate a host-side
// programming error, never guest input.
func (e *Envelope) Add(id uint8, value []byte) *Envelope {
	if id >= fieldReservedBase {
		panic(fmt.Sprintf("bridge: field id %#x is reserved", id))
	}
	e.Fields = append(e.Fields, EnvField{ID: id, Value: value})
	return e
}

// Encode serializes e into the wire form.
func Encode(e *Envelope) []byte {
	size := 5
	for _, f := range e.Fields {
		size += 3 + len(f.Value)
	}
	out := make([]byte, 0, size)
	out = binary.BigEndian.AppendUint16(out, e.Version)
	out = append(out, e.Kind, e.Action, uint8(len(e.Fields)))
	for _, f := range e.Fields {
		out = append(out, f.ID)
		out = binary.BigEndian.AppendUint16(out, uint16(len(f.Value)))
		out = append(out, f.Value...)
	}
	return out
}

// Decoder validates and parses envelopes for a fixed set of supported
// schema versions.
type Decoder struct {
	supported map[uint16]bool
}

// NewDecoder returns a decoder accepting exactly the given versions.
func NewDecoder(versions ...uint16) *Decoder {
	d := &Decoder{supported: map[uint16]bool{}}
	for _, v := range versions {
		d.supported[v] = true
	}
	return d
}

// Decode parses b. The version gate runs before any payload byte is
// interpreted; a version this decoder does not carry yields
// CodecUnsupportedVersion even when the rest of the envelope is garbage.
func (d *Decoder) Decode(b []byte) (*Envelope, *CodecError) {
	if len(b) < 2 {
		return nil, &CodecError{Code: CodecMalformed, Msg: "envelope shorter than the version header"}
	}
	version := binary.BigEndian.Uint16(b)
	if !d.supported[version] {
		return nil, &CodecError{Code: CodecUnsupportedVersion,
			Msg: fmt.Sprintf("unsupported bridge schema version %d", version)}
	}
	if len(b) < 5 {
		return nil, &CodecError{Code: CodecMalformed, Msg: "truncated envelope header"}
	}
	env := &Envelope{Version: version, Kind: b[2], Action: b[3]}
	count := int(b[4])

	actions, knownKind := kindActions[env.Kind]
	if !knownKind {
		return nil, &CodecError{Code: CodecUnknownOperation,
			Msg: fmt.Sprintf("unknown envelope kind %d", env.Kind)}
	}
	if !actions[env.Action] {
		return nil, &CodecError{Code: CodecUnknownOperation,
			Msg: fmt.Sprintf("kind %d does not accept action %d", env.Kind, env.Action)}
	}

	off := 5
	for i := 0; i < count; i++ {
		if off+3 > len(b) {
			return nil, &CodecError{Code: CodecMalformed,
				Msg: fmt.Sprintf("truncated field header at offset %d", off)}
		}
		id := b[off]
		n := int(binary.BigEndian.Uint16(b[off+1:]))
		off += 3
		if off+n > len(b) {
			return nil, &CodecError{Code: CodecMalformed,
				Msg: fmt.Sprintf("field %#x overruns the envelope", id)}
		}
		// Unknown ids are forward-compatibility padding; keep decoding.
		if knownFieldID(id) {
			env.Fields = append(env.Fields, EnvField{ID: id, Value: b[off : off+n]})
		}
		off += n
	}
	return env, nil
}

func knownFieldID(id uint8) bool {
	switch id {
	case FieldKey, FieldValue, FieldPath, FieldName, FieldError, FieldData:
		return true
	}
	return false
}

// okReply wraps a successful payload.
func okReply(version uint16, data []byte) *Envelope {
	e := &Envelope{Version: version, Kind: KindReply, Action: ActOK}
	if data != nil {
		e.Add(FieldData, data)
	}
	return e
}

// errReply wraps a failure message.
func errReply(version uint16, msg string) *Envelope {
	e := &Envelope{Version: version, Kind: KindReply, Action: ActError}
	e.Add(FieldError, []byte(msg))
	return e
}
