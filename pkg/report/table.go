// Package report collects decoded story listings and writes them out as
// text, JSON, CBOR or an SQLite database.
package report

import (
	"sort"
	"sync"
)

// StoryInfo identifies the story a listing was taken from.
type StoryInfo struct {
	Version  int    `json:"version"`
	Release  int    `json:"release"`
	Serial   string `json:"serial"`
	Checksum int    `json:"checksum"`
	Length   int    `json:"length"`
}

// Abbreviation is one decoded abbreviation table entry.
type Abbreviation struct {
	Number  int    `json:"number"`
	Address int    `json:"address"`
	Text    string `json:"text"`
}

// Word is one dictionary entry.
type Word struct {
	Index   int    `json:"index"`
	Address int    `json:"address"`
	Text    string `json:"text"`
}

// Object is one object tree entry.
type Object struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	Parent     int    `json:"parent"`
	Sibling    int    `json:"sibling"`
	Child      int    `json:"child"`
	Attributes []int  `json:"attributes,omitempty"`
	Properties int    `json:"properties"`
}

// Instruction is one disassembled instruction.
type Instruction struct {
	Address  int    `json:"address"`
	Length   int    `json:"length"`
	Mnemonic string `json:"mnemonic"`
	Text     string `json:"text"`
}

// Listing is everything a scan produced, each section in table order.
type Listing struct {
	Story         StoryInfo      `json:"story"`
	Abbreviations []Abbreviation `json:"abbreviations,omitempty"`
	Words         []Word         `json:"words,omitempty"`
	Objects       []Object       `json:"objects,omitempty"`
	Instructions  []Instruction  `json:"instructions,omitempty"`
}

// Table collects listing rows from concurrent workers.
type Table struct {
	mu            sync.Mutex
	story         StoryInfo
	abbreviations []Abbreviation
	words         []Word
	objects       []Object
	instructions  []Instruction
}

// NewTable creates an empty table for the given story.
func NewTable(story StoryInfo) *Table {
	return &Table{story: story}
}

// AddAbbreviation inserts an abbreviation row.
func (t *Table) AddAbbreviation(a Abbreviation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.abbreviations = append(t.abbreviations, a)
}

// AddWord inserts a dictionary row.
func (t *Table) AddWord(w Word) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.words = append(t.words, w)
}

// AddObject inserts an object row.
func (t *Table) AddObject(o Object) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.objects = append(t.objects, o)
}

// AddInstruction inserts an instruction row.
func (t *Table) AddInstruction(in Instruction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.instructions = append(t.instructions, in)
}

// Len returns the total number of rows.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.abbreviations) + len(t.words) + len(t.objects) + len(t.instructions)
}

// Listing returns a copy of all rows, each section sorted by its key.
func (t *Table) Listing() *Listing {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := &Listing{
		Story:         t.story,
		Abbreviations: clone(t.abbreviations),
		Words:         clone(t.words),
		Objects:       clone(t.objects),
		Instructions:  clone(t.instructions),
	}
	sort.Slice(l.Abbreviations, func(i, j int) bool { return l.Abbreviations[i].Number < l.Abbreviations[j].Number })
	sort.Slice(l.Words, func(i, j int) bool { return l.Words[i].Index < l.Words[j].Index })
	sort.Slice(l.Objects, func(i, j int) bool { return l.Objects[i].Number < l.Objects[j].Number })
	sort.Slice(l.Instructions, func(i, j int) bool { return l.Instructions[i].Address < l.Instructions[j].Address })
	return l
}

// clone copies s, keeping nil as nil so empty sections stay omitted.
func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
