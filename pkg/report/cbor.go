package report

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode is canonical so the same listing always encodes to the
// same bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("report: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalCBOR serializes a listing to CBOR bytes.
func MarshalCBOR(l *Listing) ([]byte, error) {
	return cborEncMode.Marshal(l)
}

// UnmarshalCBOR deserializes a listing from CBOR bytes.
func UnmarshalCBOR(data []byte) (*Listing, error) {
	var l Listing
	if err := cbor.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("report: unmarshal listing: %w", err)
	}
	return &l, nil
}

// WriteCBOR writes l to w as one CBOR item.
func WriteCBOR(w io.Writer, l *Listing) error {
	if err := cborEncMode.NewEncoder(w).Encode(l); err != nil {
		return fmt.Errorf("report: write cbor: %w", err)
	}
	return nil
}

// ReadCBOR reads one listing written by WriteCBOR.
func ReadCBOR(r io.Reader) (*Listing, error) {
	var l Listing
	if err := cbor.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("report: read cbor: %w", err)
	}
	return &l, nil
}
