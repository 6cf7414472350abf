package page

import (
	"bytes"
	"testing"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := New(7, []byte("hello page"))
	buf, err := Encode(p, 64)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(buf) != 64 {
		t.Fatalf("expected encoded length 64, got %d", len(buf))
	}

	got, err := Decode(buf, 64)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("expected id 7, got %d", got.ID)
	}
	if !bytes.Equal(got.Payload, p.Payload) {
		t.Fatalf("payload mismatch: got %q want %q", got.Payload, p.Payload)
	}
}

func TestEncodeOverflow(t *testing.T) {
	p := New(0, bytes.Repeat([]byte{0xAB}, 100))
	_, err := Encode(p, 64)
	if err == nil {
		t.Fatalf("expected PageOverflow error")
	}
	if dberrors.KindOf(err) != dberrors.PageOverflow {
		t.Fatalf("expected PageOverflow, got %v", err)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3}, 64)
	if err == nil || dberrors.KindOf(err) != dberrors.StorageCorrupt {
		t.Fatalf("expected StorageCorrupt for short buffer, got %v", err)
	}
}

func TestDecodeInconsistentLength(t *testing.T) {
	buf := make([]byte, 64)
	// data_length field claims more bytes than the page can hold.
	buf[4], buf[5], buf[6], buf[7] = 0, 0, 0, 200
	_, err := Decode(buf, 64)
	if err == nil || dberrors.KindOf(err) != dberrors.StorageCorrupt {
		t.Fatalf("expected StorageCorrupt for inconsistent data_length, got %v", err)
	}
}
