package packet

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestEncodeDecodeMove(t *testing.T) {
	data, err := Encode(C_OPCODE_MOVE, &Move{Direction: [3]float32{1, 0, -1}, CameraYaw: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	r := NewReader(data)
	if r.Opcode() != C_OPCODE_MOVE {
		t.Fatalf("opcode = %d", r.Opcode())
	}
	var m Move
	if err := r.Decode(&m); err != nil {
		t.Fatal(err)
	}
	if m.Direction != [3]float32{1, 0, -1} || m.CameraYaw != 0.5 {
		t.Fatalf("decoded %+v", m)
	}
}

func TestDecodeRejectsEmptyAndGarbage(t *testing.T) {
	var m Move
	if err := NewReader([]byte{C_OPCODE_MOVE}).Decode(&m); !errors.Is(err, ErrEmptyPacket) {
		t.Fatalf("empty body: %v", err)
	}
	if err := NewReader([]byte{C_OPCODE_MOVE, 0xc1}).Decode(&m); err == nil {
		t.Fatal("garbage body decoded")
	}
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	calls := 0
	reg.Register(C_OPCODE_ATTACK, []SessionState{StateJoined}, func(_ any, _ *Reader) { calls++ })
	reg.Register(C_OPCODE_ACK, []SessionState{StateJoined}, func(_ any, _ *Reader) { panic("bad") })

	if err := reg.Dispatch(nil, StateJoined, []byte{C_OPCODE_ATTACK}); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
	if err := reg.Dispatch(nil, StateDisconnecting, []byte{C_OPCODE_ATTACK}); err == nil {
		t.Fatal("disallowed state dispatched")
	}
	if err := reg.Dispatch(nil, StateJoined, []byte{0xEE}); !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("unknown opcode: %v", err)
	}
	if err := reg.Dispatch(nil, StateJoined, nil); !errors.Is(err, ErrEmptyPacket) {
		t.Fatalf("empty: %v", err)
	}
	if err := reg.Dispatch(nil, StateJoined, []byte{C_OPCODE_ACK}); err == nil {
		t.Fatal("panic not converted to error")
	}
	if calls != 1 {
		t.Fatal("disallowed dispatch ran the handler")
	}
}

func TestComponentValueRoundTrip(t *testing.T) {
	raw, err := MarshalValue(HealthValue{Current: 42, Max: 100})
	if err != nil {
		t.Fatal(err)
	}
	var h HealthValue
	if err := UnmarshalValue(raw, &h); err != nil {
		t.Fatal(err)
	}
	if h.Current != 42 || h.Max != 100 {
		t.Fatalf("got %+v", h)
	}
}
