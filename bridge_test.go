package deka

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func Test_Bridge_roundtrip(t *testing.T) {
	in := &Envelope{Version: BridgeV1, Kind: KindStorage, Action: ActSet}
	in.Add(FieldKey, []byte("color")).Add(FieldValue, []byte("teal"))

	out, cerr := NewDecoder(BridgeV1).Decode(Encode(in))
	if cerr != nil {
		t.Fatalf("decode failed: %v", cerr)
	}
	if out.Version != BridgeV1 || out.Kind != KindStorage || out.Action != ActSet {
		t.Fatalf("header mismatch: %+v", out)
	}
	if len(out.Fields) != 2 {
		t.Fatalf("field count = %d, want 2", len(out.Fields))
	}
	key, _ := out.Field(FieldKey)
	val, _ := out.Field(FieldValue)
	if !bytes.Equal(key, []byte("color")) || !bytes.Equal(val, []byte("teal")) {
		t.Fatalf("fields mismatched: %q %q", key, val)
	}
}

func Test_Bridge_version_gate_runs_first(t *testing.T) {
	// A v2 envelope whose payload bytes are garbage: the v1 decoder must
	// reject on version alone, never reaching the payload.
	b := binary.BigEndian.AppendUint16(nil, BridgeV2)
	b = append(b, 0xDE, 0xAD, 0xBE, 0xEF, 0xFF, 0xFF)

	_, cerr := NewDecoder(BridgeV1).Decode(b)
	if cerr == nil {
		t.Fatal("v2 envelope should be rejected by a v1 decoder")
	}
	if cerr.Code != CodecUnsupportedVersion {
		t.Fatalf("code = %q, want %q", cerr.Code, CodecUnsupportedVersion)
	}
	wantContains(t, cerr.Msg, "unsupported bridge schema version 2")
}

func Test_Bridge_decoder_accepts_listed_versions(t *testing.T) {
	in := okReply(BridgeV2, []byte("hi"))
	out, cerr := NewDecoder(BridgeV1, BridgeV2).Decode(Encode(in))
	if cerr != nil {
		t.Fatalf("multi-version decoder rejected v2: %v", cerr)
	}
	if out.Version != BridgeV2 {
		t.Fatalf("version = %d", out.Version)
	}
}

func Test_Bridge_unknown_kind(t *testing.T) {
	b := Encode(&Envelope{Version: BridgeV1, Kind: 0x42, Action: ActGet})
	_, cerr := NewDecoder(BridgeV1).Decode(b)
	if cerr == nil || cerr.Code != CodecUnknownOperation {
		t.Fatalf("unknown kind should yield CodecUnknownOperation, got %v", cerr)
	}
}

func Test_Bridge_action_must_match_kind(t *testing.T) {
	// Clock only supports "now".
	b := Encode(&Envelope{Version: BridgeV1, Kind: KindClock, Action: ActDelete})
	_, cerr := NewDecoder(BridgeV1).Decode(b)
	if cerr == nil || cerr.Code != CodecUnknownOperation {
		t.Fatalf("mismatched action should yield CodecUnknownOperation, got %v", cerr)
	}
}

func Test_Bridge_truncated_field(t *testing.T) {
	in := &Envelope{Version: BridgeV1, Kind: KindStorage, Action: ActGet}
	in.Add(FieldKey, []byte("abcdef"))
	b := Encode(in)

	_, cerr := NewDecoder(BridgeV1).Decode(b[:len(b)-3])
	if cerr == nil || cerr.Code != CodecMalformed {
		t.Fatalf("truncated field should yield CodecMalformed, got %v", cerr)
	}

	_, cerr = NewDecoder(BridgeV1).Decode(b[:6])
	if cerr == nil || cerr.Code != CodecMalformed {
		t.Fatalf("truncated field header should yield CodecMalformed, got %v", cerr)
	}
}

func Test_Bridge_short_envelope(t *testing.T) {
	_, cerr := NewDecoder(BridgeV1).Decode([]byte{0x00})
	if cerr == nil || cerr.Code != CodecMalformed {
		t.Fatalf("one-byte input should yield CodecMalformed, got %v", cerr)
	}
}

func Test_Bridge_unknown_field_skipped(t *testing.T) {
	// Hand-build an envelope carrying an unassigned field id 0x60 between
	// two known fields; the decoder keeps the known ones and stays silent
	// about the stranger.
	b := binary.BigEndian.AppendUint16(nil, BridgeV1)
	b = append(b, KindStorage, ActSet, 3)
	b = append(b, FieldKey, 0, 1, 'k')
	b = append(b, 0x60, 0, 2, 'z', 'z')
	b = append(b, FieldValue, 0, 1, 'v')

	out, cerr := NewDecoder(BridgeV1).Decode(b)
	if cerr != nil {
		t.Fatalf("unknown field should not fail decoding: %v", cerr)
	}
	if len(out.Fields) != 2 {
		t.Fatalf("field count = %d, want 2 (unknown id dropped)", len(out.Fields))
	}
	if _, ok := out.Field(0x60); ok {
		t.Fatal("unknown field id should not be surfaced")
	}
}

func Test_Bridge_reserved_field_id_panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Add with a reserved id should panic")
		}
	}()
	(&Envelope{Version: BridgeV1, Kind: KindStorage, Action: ActSet}).Add(0xF0, nil)
}

func Test_Bridge_error_reply(t *testing.T) {
	out, cerr := NewDecoder(BridgeV1).Decode(Encode(errReply(BridgeV1, "nope")))
	if cerr != nil {
		t.Fatalf("decode failed: %v", cerr)
	}
	if out.Kind != KindReply || out.Action != ActError {
		t.Fatalf("reply header mismatch: %+v", out)
	}
	msg, _ := out.Field(FieldError)
	if string(msg) != "nope" {
		t.Fatalf("error payload = %q", msg)
	}
}
