package htmlbook

import (
	"bytes"
	"errors"
	"testing"
)

func TestSink_Concatenates(t *testing.T) {
	s := NewSink(0)
	chunks := [][]byte{
		[]byte("%PDF-1.7\n"),
		{},
		bytes.Repeat([]byte("x"), 300),
		[]byte("%%EOF"),
	}
	var want []byte
	for _, c := range chunks {
		n, err := s.Write(c)
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		if n != len(c) {
			t.Errorf("Write returned %d, want %d", n, len(c))
		}
		want = append(want, c...)
	}
	if s.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", s.Len(), len(want))
	}
	r := s.Drain()
	if !bytes.Equal(r.Bytes(), want) {
		t.Error("drained bytes differ from written chunks")
	}
	if r.Len() != len(want) {
		t.Errorf("result Len() = %d, want %d", r.Len(), len(want))
	}
	if s.Len() != 0 {
		t.Errorf("sink Len() after Drain = %d, want 0", s.Len())
	}
}

func TestSink_CapacityGrowth(t *testing.T) {
	tests := []struct {
		name    string
		writes  []int
		wantCap int
	}{
		{"empty write", []int{0}, 0},
		{"single byte", []int{1}, 128},
		{"exactly minimum", []int{128}, 128},
		{"just over minimum", []int{129}, 256},
		{"doubling", []int{100, 100}, 256},
		{"large first write", []int{1000}, 1024},
		{"repeated doubling", []int{128, 128, 1}, 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSink(0)
			total := 0
			for _, n := range tt.writes {
				if _, err := s.Write(make([]byte, n)); err != nil {
					t.Fatalf("Write(%d): %v", n, err)
				}
				total += n
				if s.Cap() < s.Len() {
					t.Fatalf("Cap() = %d < Len() = %d", s.Cap(), s.Len())
				}
			}
			if s.Len() != total {
				t.Errorf("Len() = %d, want %d", s.Len(), total)
			}
			if s.Cap() != tt.wantCap {
				t.Errorf("Cap() = %d, want %d", s.Cap(), tt.wantCap)
			}
		})
	}
}

func TestSink_Limit(t *testing.T) {
	s := NewSink(10)
	if _, err := s.Write([]byte("12345678")); err != nil {
		t.Fatalf("Write within limit: %v", err)
	}
	n, err := s.Write([]byte("abc"))
	if !errors.Is(err, ErrSinkFull) {
		t.Fatalf("Write past limit error = %v, want ErrSinkFull", err)
	}
	if n != 0 {
		t.Errorf("rejected Write returned %d, want 0", n)
	}
	if s.Len() != 8 {
		t.Errorf("Len() after rejected write = %d, want 8", s.Len())
	}
}

func TestSink_DrainTransfersStorage(t *testing.T) {
	s := NewSink(0)
	s.Write([]byte("%PDF-1.7"))
	first := &s.data[0]

	r := s.Drain()
	if &r.data[0] != first {
		t.Error("Drain copied the data instead of handing it over")
	}
	if cap(r.Bytes()) != len("%PDF-1.7") {
		t.Errorf("result cap = %d, want exactly %d", cap(r.Bytes()), len("%PDF-1.7"))
	}
	if s.Cap() != 0 {
		t.Errorf("sink Cap() after Drain = %d, want 0", s.Cap())
	}

	s.Write([]byte("XXXXXXXX"))
	if string(r.Bytes()) != "%PDF-1.7" {
		t.Errorf("later writes changed the result: %q", r.Bytes())
	}
}

func TestSink_Release(t *testing.T) {
	s := NewSink(0)
	s.Write([]byte("data"))
	s.Release()
	s.Release()
	if s.Len() != 0 || s.Cap() != 0 {
		t.Errorf("after Release: Len=%d Cap=%d", s.Len(), s.Cap())
	}
}
