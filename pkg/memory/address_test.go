package memory

import (
	"errors"
	"testing"
)

func TestNewByteAddress(t *testing.T) {
	for _, v := range []int{0, 1, 0x40, 0x7fff, MaxAddress} {
		a, err := NewByteAddress(v)
		if err != nil {
			t.Fatalf("NewByteAddress(%#x): %v", v, err)
		}
		if a.Int() != v {
			t.Errorf("NewByteAddress(%#x): got %#x", v, a.Int())
		}
	}
	for _, v := range []int{-1, MaxAddress + 1, 1 << 20} {
		if _, err := NewByteAddress(v); !errors.Is(err, ErrAddressOutOfRange) {
			t.Errorf("NewByteAddress(%#x): got %v want ErrAddressOutOfRange", v, err)
		}
	}
}

func TestNewWordAddress(t *testing.T) {
	for _, v := range []int{0, 24, MaxAddress - 1} {
		w, err := NewWordAddress(v)
		if err != nil {
			t.Fatalf("NewWordAddress(%#x): %v", v, err)
		}
		if w.Int() != v || w.High().Int() != v || w.Low().Int() != v+1 {
			t.Errorf("NewWordAddress(%#x): got high %s low %s", v, w.High(), w.Low())
		}
	}
	for _, v := range []int{-2, MaxAddress, MaxAddress + 1} {
		if _, err := NewWordAddress(v); !errors.Is(err, ErrAddressOutOfRange) {
			t.Errorf("NewWordAddress(%#x): got %v want ErrAddressOutOfRange", v, err)
		}
	}
}

func TestByteAddressArithmetic(t *testing.T) {
	a := ByteAddress(0x100)
	if b, err := a.Add(0x10); err != nil || b != 0x110 {
		t.Errorf("Add: got %s, %v", b, err)
	}
	if b, err := a.Sub(0x100); err != nil || b != 0 {
		t.Errorf("Sub: got %s, %v", b, err)
	}
	if _, err := a.Sub(0x101); !errors.Is(err, ErrAddressOutOfRange) {
		t.Errorf("Sub below zero: got %v", err)
	}
	if _, err := ByteAddress(MaxAddress).Add(1); !errors.Is(err, ErrAddressOutOfRange) {
		t.Errorf("Add past max: got %v", err)
	}
}

func TestWordAddressArithmetic(t *testing.T) {
	w := MustWord(0x40)
	next, err := w.Add(3)
	if err != nil || next.Int() != 0x46 {
		t.Errorf("Add(3): got %s, %v", next, err)
	}
	prev, err := next.Sub(1)
	if err != nil || prev.Int() != 0x44 {
		t.Errorf("Sub(1): got %s, %v", prev, err)
	}
	if _, err := MustWord(MaxAddress - 1).Add(1); !errors.Is(err, ErrAddressOutOfRange) {
		t.Errorf("Add past max: got %v", err)
	}
}

func TestAddressString(t *testing.T) {
	if got := ByteAddress(0x1f0).String(); got != "0x01f0" {
		t.Errorf("String: got %q", got)
	}
	if got := MustWord(0xb106).String(); got != "0xb106" {
		t.Errorf("String: got %q", got)
	}
}
