package report

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON writes l as indented JSON.
func WriteJSON(w io.Writer, l *Listing) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("report: write json: %w", err)
	}
	return nil
}

// ReadJSON reads a listing written by WriteJSON.
func ReadJSON(r io.Reader) (*Listing, error) {
	var l Listing
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("report: read json: %w", err)
	}
	return &l, nil
}
