package server

import (
	"bytes"
	"testing"
)

func TestCBORCodec(t *testing.T) {
	codec := cborCodec{}
	if codec.Name() != "cbor" {
		t.Errorf("Name = %q, want cbor", codec.Name())
	}

	in := &InterpretResponse{ExecutionID: "id", Output: "10.5\n", Success: true}
	data, err := codec.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out InterpretResponse
	if err := codec.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != *in {
		t.Errorf("round trip = %+v, want %+v", out, *in)
	}
}

func TestCBORCodec_Deterministic(t *testing.T) {
	codec := cborCodec{}
	msg := &TokenizeResponse{Tokens: []TokenInfo{{"Number", "1", 1}}}

	a, err := codec.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, _ := codec.Marshal(msg)
	if !bytes.Equal(a, b) {
		t.Error("encoding should be deterministic")
	}
}

func TestCBORCodec_UnmarshalError(t *testing.T) {
	var out InterpretRequest
	if err := (cborCodec{}).Unmarshal([]byte{0xff}, &out); err == nil {
		t.Error("expected error for malformed input")
	}
}
