package report

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("zvm.report")

// ErrUnknownFormat is returned by ParseFormat for unrecognised names.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects how a listing is written.
type Format string

const (
	Text   Format = "text"
	JSON   Format = "json"
	CBOR   Format = "cbor"
	SQLite Format = "sqlite"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case Text, JSON, CBOR, SQLite:
		return f, nil
	}
	return "", fmt.Errorf("report: %q: %w", s, ErrUnknownFormat)
}

// Write streams l to w. SQLite needs a file and is rejected here; use Export.
func Write(w io.Writer, f Format, l *Listing) error {
	switch f {
	case Text:
		return WriteText(w, l)
	case JSON:
		return WriteJSON(w, l)
	case CBOR:
		return WriteCBOR(w, l)
	}
	return fmt.Errorf("report: %s cannot be streamed: %w", f, ErrUnknownFormat)
}

// Export writes l to the file at path in format f, replacing any existing file.
func Export(path string, f Format, l *Listing) error {
	if f == SQLite {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("report: %w", err)
		}
		if err := SaveSQLite(path, l); err != nil {
			return err
		}
		log.Infof("exported %s listing to %s", f, path)
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := Write(file, f, l); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	log.Infof("exported %s listing to %s", f, path)
	return nil
}
