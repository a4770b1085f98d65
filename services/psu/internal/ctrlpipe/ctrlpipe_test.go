package ctrlpipe

import (
	"bytes"
	"sync"
	"testing"

	"benchpsu-go/services/psu/internal/halcore"
	"benchpsu-go/services/psu/internal/transfer"
	"benchpsu-go/types"
)

type recHandler struct {
	setups []halcore.Setup
	chunks [][]byte
	need   int
	reply  []byte
}

func (r *recHandler) Setup(s halcore.Setup) ([]byte, bool) {
	r.setups = append(r.setups, s)
	if s.Request == 0x09 {
		r.need = 8
		return nil, true
	}
	return r.reply, false
}

func (r *recHandler) DataOut(c []byte) bool {
	r.chunks = append(r.chunks, append([]byte(nil), c...))
	r.need -= len(c)
	return r.need <= 0
}

type store struct {
	mu sync.Mutex
	s  types.PowerState
}

func (m *store) Snapshot() types.PowerState { m.mu.Lock(); defer m.mu.Unlock(); return m.s }
func (m *store) ApplyRemote(s types.PowerState) {
	m.mu.Lock()
	m.s = s
	m.mu.Unlock()
}

var rec = []byte{0x01, 0x34, 0x12, 0x78, 0x56, 0xAA, 0xBB, 0xCC}

func TestSplitArrivalsDeliverInOrder(t *testing.T) {
	h := &recHandler{}
	p := New(h, nil)
	stream := appendSetReport(nil, rec)
	// one byte at a time
	for i := range stream {
		p.Feed(stream[i : i+1])
	}
	if len(h.setups) != 1 || h.setups[0].Length != 8 {
		t.Fatalf("setups=%+v", h.setups)
	}
	var got []byte
	for _, c := range h.chunks {
		got = append(got, c...)
	}
	if !bytes.Equal(got, rec) {
		t.Fatalf("data % X", got)
	}
}

func TestChunksNeverExceedMax(t *testing.T) {
	h := &recHandler{}
	p := New(h, nil)
	data := append(append([]byte{}, rec...), rec...)
	p.Feed(appendSetReport(nil, data))
	for _, c := range h.chunks {
		if len(c) > MaxChunk {
			t.Fatalf("chunk of %d", len(c))
		}
	}
}

func TestSurplusDiscardedAndNextRequestParsed(t *testing.T) {
	h := &recHandler{reply: []byte{9, 9, 9, 9, 9, 9, 9, 9}}
	var out bytes.Buffer
	p := New(h, &out)
	overrun := append(append([]byte{}, rec...), 0xEE, 0xFF)
	stream := appendSetReport(nil, overrun)
	stream = appendGetReport(stream, 4)
	p.Feed(stream)

	total := 0
	for _, c := range h.chunks {
		total += len(c)
	}
	if total != 8 {
		t.Fatalf("delivered %d bytes to handler", total)
	}
	if len(h.setups) != 2 || h.setups[1].Request != 0x01 {
		t.Fatalf("setups=%+v", h.setups)
	}
	if out.Len() != 4 {
		t.Fatalf("reply not truncated: %d", out.Len())
	}
}

func TestWithProtocolRoundTrip(t *testing.T) {
	st := &store{}
	proto := transfer.New(st)
	var out bytes.Buffer
	p := New(proto, &out)

	stream := appendSetReport(nil, rec)
	p.Feed(stream[:5])
	p.Feed(stream[5:11])
	p.Feed(stream[11:])
	if st.Snapshot().Voltage != 0x1234 {
		t.Fatalf("store=%+v", st.Snapshot())
	}
	p.Feed(appendGetReport(nil, 8))
	if !bytes.Equal(out.Bytes(), rec) {
		t.Fatalf("reply % X", out.Bytes())
	}
}

func TestResetDropsPartialHeader(t *testing.T) {
	h := &recHandler{}
	p := New(h, nil)
	p.Feed([]byte{0x21, 0x09, 0x00})
	p.Reset()
	p.Feed(appendGetReport(nil, 8))
	if len(h.setups) != 1 || h.setups[0].Request != 0x01 {
		t.Fatalf("setups=%+v", h.setups)
	}
}

type fakePort struct {
	rx []byte
	tx bytes.Buffer
}

func (f *fakePort) Write(p []byte) (int, error) { return f.tx.Write(p) }
func (f *fakePort) Buffered() int               { return len(f.rx) }
func (f *fakePort) Read(p []byte) (int, error) {
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	return n, nil
}

func TestTransportDiscardsWhileDetached(t *testing.T) {
	st := &store{}
	port := &fakePort{}
	tr := NewTransport(port)

	port.rx = appendSetReport(nil, rec)
	tr.Poll()
	if st.Snapshot().Voltage != 0 {
		t.Fatal("applied while detached")
	}
	if port.Buffered() != 0 {
		t.Fatal("detached input not drained")
	}

	tr.Attach(transfer.New(st))
	port.rx = appendSetReport(nil, rec)
	port.rx = appendGetReport(port.rx, 8)
	tr.Poll()
	if st.Snapshot().Current != 0x5678 {
		t.Fatalf("store=%+v", st.Snapshot())
	}
	if !bytes.Equal(port.tx.Bytes(), rec) {
		t.Fatalf("tx % X", port.tx.Bytes())
	}

	tr.Detach()
	port.rx = appendSetReport(nil, make([]byte, 8))
	tr.Poll()
	if st.Snapshot().Current != 0x5678 {
		t.Fatal("applied after detach")
	}
}

// appendGetReport encodes a GET_REPORT request as a host would send it.
func appendGetReport(dst []byte, length uint16) []byte {
	return appendSetup(dst, halcore.Setup{
		RequestType: halcore.RequestDirIn | halcore.RequestTypeClass | 0x01,
		Request:     0x01,
		Value:       0x0300,
		Length:      length,
	})
}

// appendSetReport appends a SET_REPORT request followed by its data stage.
func appendSetReport(dst []byte, data []byte) []byte {
	dst = appendSetup(dst, halcore.Setup{
		RequestType: halcore.RequestTypeClass | 0x01,
		Request:     0x09,
		Value:       0x0300,
		Length:      uint16(len(data)),
	})
	return append(dst, data...)
}

func appendSetup(dst []byte, s halcore.Setup) []byte {
	var b [halcore.SetupSize]byte
	s.MarshalTo(b[:])
	return append(dst, b[:]...)
}

func TestDeclinedOutRequestDataSkipped(t *testing.T) {
	st := &store{s: types.PowerState{Output: true, Voltage: 0x1234, Current: 0x5678}}
	var out bytes.Buffer
	p := New(transfer.New(st), &out)

	stream := appendSetup(nil, halcore.Setup{
		RequestType: 0x40, // vendor, host to device
		Request:     0x05,
		Length:      2,
	})
	stream = append(stream, 0xDE, 0xAD)
	stream = appendGetReport(stream, 8)
	p.Feed(stream)

	want := st.Snapshot().Bytes()
	if !bytes.Equal(out.Bytes(), want[:]) {
		t.Fatalf("reply % X, want % X", out.Bytes(), want)
	}
}

func TestInRequestHasNoDataStage(t *testing.T) {
	h := &recHandler{reply: []byte{1, 2}}
	p := New(h, nil)
	p.Feed(appendGetReport(nil, 2))
	p.Feed(appendGetReport(nil, 2))
	if len(h.setups) != 2 || len(h.chunks) != 0 {
		t.Fatalf("setups=%d chunks=%d", len(h.setups), len(h.chunks))
	}
}
