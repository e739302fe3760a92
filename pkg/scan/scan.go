// Package scan decodes the tables and code of a story concurrently into
// a report listing.
package scan

import (
	"fmt"
	"time"

	"github.com/tliron/commonlog"

	"github.com/oisee/zvm/pkg/memory"
	"github.com/oisee/zvm/pkg/report"
	"github.com/oisee/zvm/pkg/story"
	"github.com/oisee/zvm/pkg/zstring"
)

var log = commonlog.GetLogger("zvm.scan")

// Config selects what a scan covers.
type Config struct {
	Abbreviations bool
	Dictionary    bool
	Objects       bool
	Code          []memory.ByteAddress // start of each instruction run
	CodeCount     int                  // instructions per run (defaults to 16)
	Workers       int                  // defaults to NumCPU
}

// All scans every table and disassembles from the initial PC.
func All(s *story.Story) Config {
	return Config{
		Abbreviations: true,
		Dictionary:    true,
		Objects:       true,
		Code:          []memory.ByteAddress{s.Header().InitialPC},
	}
}

// Info summarises the story header for a listing.
func Info(s *story.Story) report.StoryInfo {
	h := s.Header()
	return report.StoryInfo{
		Version:  int(h.Version),
		Release:  int(h.Release),
		Serial:   h.Serial,
		Checksum: int(h.Checksum),
		Length:   h.FileLength,
	}
}

// Tasks expands cfg into one task per row or instruction run.
func Tasks(s *story.Story, cfg Config) ([]Task, error) {
	var tasks []Task
	if cfg.Abbreviations {
		for i := 0; i < zstring.MaxAbbreviations; i++ {
			tasks = append(tasks, Task{Kind: AbbreviationTask, Index: i})
		}
	}
	if cfg.Dictionary {
		for i := 0; i < s.Dictionary().Count(); i++ {
			tasks = append(tasks, Task{Kind: WordTask, Index: i})
		}
	}
	if cfg.Objects {
		count, err := s.Objects().Count()
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for n := 1; n <= count; n++ {
			tasks = append(tasks, Task{Kind: ObjectTask, Index: n})
		}
	}
	count := cfg.CodeCount
	if count <= 0 {
		count = 16
	}
	for _, start := range cfg.Code {
		tasks = append(tasks, Task{Kind: CodeTask, Start: start, Count: count})
	}
	return tasks, nil
}

// Run executes the scan. The returned table holds every row that decoded;
// the error, if any, joins the failures of the rest.
func Run(s *story.Story, cfg Config) (*report.Table, error) {
	tasks, err := Tasks(s, cfg)
	if err != nil {
		return nil, err
	}
	pool := NewWorkerPool(s, cfg.Workers)
	start := time.Now()
	pool.RunTasks(tasks)

	decoded, failed := pool.Stats()
	log.Infof("scanned %d tasks on %d workers: %d rows, %d failures in %s",
		len(tasks), pool.NumWorkers, decoded, failed, time.Since(start).Round(time.Millisecond))
	return pool.Results, pool.Err()
}
