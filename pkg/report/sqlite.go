package report

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS story (
	version  INTEGER NOT NULL,
	release  INTEGER NOT NULL,
	serial   TEXT NOT NULL,
	checksum INTEGER NOT NULL,
	length   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS abbreviations (
	number  INTEGER PRIMARY KEY,
	address INTEGER NOT NULL,
	text    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS dictionary (
	idx     INTEGER PRIMARY KEY,
	address INTEGER NOT NULL,
	text    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS objects (
	number     INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	parent     INTEGER NOT NULL,
	sibling    INTEGER NOT NULL,
	child      INTEGER NOT NULL,
	attributes TEXT NOT NULL,
	properties INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS instructions (
	address  INTEGER PRIMARY KEY,
	length   INTEGER NOT NULL,
	mnemonic TEXT NOT NULL,
	text     TEXT NOT NULL
);`

// SaveSQLite writes l into the SQLite database at path, one table per
// section. Rows with the same key are replaced.
func SaveSQLite(path string, l *Listing) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("report: opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("report: creating tables: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := insertListing(tx, l); err != nil {
		tx.Rollback()
		return fmt.Errorf("report: saving listing: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func insertListing(tx *sql.Tx, l *Listing) error {
	s := l.Story
	if _, err := tx.Exec("DELETE FROM story"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO story VALUES (?, ?, ?, ?, ?)",
		s.Version, s.Release, s.Serial, s.Checksum, s.Length); err != nil {
		return err
	}
	for _, a := range l.Abbreviations {
		if _, err := tx.Exec("INSERT OR REPLACE INTO abbreviations VALUES (?, ?, ?)",
			a.Number, a.Address, a.Text); err != nil {
			return err
		}
	}
	for _, w := range l.Words {
		if _, err := tx.Exec("INSERT OR REPLACE INTO dictionary VALUES (?, ?, ?)",
			w.Index, w.Address, w.Text); err != nil {
			return err
		}
	}
	for _, o := range l.Objects {
		if _, err := tx.Exec("INSERT OR REPLACE INTO objects VALUES (?, ?, ?, ?, ?, ?, ?)",
			o.Number, o.Name, o.Parent, o.Sibling, o.Child, joinInts(o.Attributes), o.Properties); err != nil {
			return err
		}
	}
	for _, in := range l.Instructions {
		if _, err := tx.Exec("INSERT OR REPLACE INTO instructions VALUES (?, ?, ?, ?)",
			in.Address, in.Length, in.Mnemonic, in.Text); err != nil {
			return err
		}
	}
	return nil
}

// LoadSQLite reads back a listing written by SaveSQLite.
func LoadSQLite(path string) (*Listing, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("report: opening database: %w", err)
	}
	defer db.Close()

	var l Listing
	s := &l.Story
	err = db.QueryRow("SELECT version, release, serial, checksum, length FROM story").
		Scan(&s.Version, &s.Release, &s.Serial, &s.Checksum, &s.Length)
	if err != nil {
		return nil, fmt.Errorf("report: querying story: %w", err)
	}

	err = query(db, "SELECT number, address, text FROM abbreviations ORDER BY number", func(rows *sql.Rows) error {
		var a Abbreviation
		if err := rows.Scan(&a.Number, &a.Address, &a.Text); err != nil {
			return err
		}
		l.Abbreviations = append(l.Abbreviations, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("report: querying abbreviations: %w", err)
	}

	err = query(db, "SELECT idx, address, text FROM dictionary ORDER BY idx", func(rows *sql.Rows) error {
		var w Word
		if err := rows.Scan(&w.Index, &w.Address, &w.Text); err != nil {
			return err
		}
		l.Words = append(l.Words, w)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("report: querying dictionary: %w", err)
	}

	err = query(db, "SELECT number, name, parent, sibling, child, attributes, properties FROM objects ORDER BY number", func(rows *sql.Rows) error {
		var o Object
		var attrs string
		if err := rows.Scan(&o.Number, &o.Name, &o.Parent, &o.Sibling, &o.Child, &attrs, &o.Properties); err != nil {
			return err
		}
		var err error
		if o.Attributes, err = splitInts(attrs); err != nil {
			return err
		}
		l.Objects = append(l.Objects, o)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("report: querying objects: %w", err)
	}

	err = query(db, "SELECT address, length, mnemonic, text FROM instructions ORDER BY address", func(rows *sql.Rows) error {
		var in Instruction
		if err := rows.Scan(&in.Address, &in.Length, &in.Mnemonic, &in.Text); err != nil {
			return err
		}
		l.Instructions = append(l.Instructions, in)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("report: querying instructions: %w", err)
	}
	return &l, nil
}

func query(db *sql.DB, q string, scan func(*sql.Rows) error) error {
	rows, err := db.Query(q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// joinInts stores an attribute list as "0,5,31".
func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
