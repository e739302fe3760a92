package scan

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/oisee/zvm/pkg/inst"
	"github.com/oisee/zvm/pkg/memory"
	"github.com/oisee/zvm/pkg/report"
	"github.com/oisee/zvm/pkg/story"
	"github.com/oisee/zvm/pkg/zstring"
)

// Kind selects what a task decodes.
type Kind uint8

const (
	AbbreviationTask Kind = iota
	WordTask
	ObjectTask
	CodeTask
)

// Task is a unit of work: one table row, or a run of instructions.
type Task struct {
	Kind  Kind
	Index int                // abbreviation number, dictionary index or object number
	Start memory.ByteAddress // first instruction of a CodeTask
	Count int                // instructions in a CodeTask
}

// WorkerPool decodes tasks in parallel from one story. Every worker reads
// the same *story.Story, which is safe because a Story is never mutated.
type WorkerPool struct {
	NumWorkers int
	Results    *report.Table

	story   *story.Story
	mu      sync.Mutex
	errs    []error
	decoded atomic.Int64
	failed  atomic.Int64
}

// NewWorkerPool creates a pool with the given number of workers.
func NewWorkerPool(s *story.Story, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		NumWorkers: numWorkers,
		Results:    report.NewTable(Info(s)),
		story:      s,
	}
}

// Stats returns the number of rows decoded and tasks that failed.
func (wp *WorkerPool) Stats() (decoded, failed int64) {
	return wp.decoded.Load(), wp.failed.Load()
}

// Err joins the errors of every failed task, or returns nil.
func (wp *WorkerPool) Err() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return errors.Join(wp.errs...)
}

// RunTasks distributes tasks across workers and waits for them all.
func (wp *WorkerPool) RunTasks(tasks []Task) {
	ch := make(chan Task, len(tasks))
	for _, t := range tasks {
		ch <- t
	}
	close(ch)

	var wg sync.WaitGroup
	for i := 0; i < wp.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range ch {
				if err := wp.processTask(task); err != nil {
					wp.failed.Add(1)
					log.Debugf("%v", err)
					wp.mu.Lock()
					wp.errs = append(wp.errs, err)
					wp.mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
}

func (wp *WorkerPool) processTask(task Task) error {
	switch task.Kind {
	case AbbreviationTask:
		return wp.abbreviation(task.Index)
	case WordTask:
		return wp.word(task.Index)
	case ObjectTask:
		return wp.object(story.ObjectNumber(task.Index))
	case CodeTask:
		return wp.code(task.Start, task.Count)
	}
	return fmt.Errorf("scan: unknown task kind %d", task.Kind)
}

func (wp *WorkerPool) abbreviation(i int) error {
	n, err := zstring.NewAbbreviationNumber(i)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	p, err := wp.story.Abbreviation(n)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	at, err := p.Unpack()
	if err != nil {
		return fmt.Errorf("scan: %s: %w", n, err)
	}
	text, err := wp.story.ReadString(at)
	if err != nil {
		return fmt.Errorf("scan: %s: %w", n, err)
	}
	wp.decoded.Add(1)
	wp.Results.AddAbbreviation(report.Abbreviation{Number: i, Address: at.Word().Int(), Text: text})
	return nil
}

func (wp *WorkerPool) word(i int) error {
	d := wp.story.Dictionary()
	at, err := d.Entry(i)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	text, err := d.Word(i)
	if err != nil {
		return fmt.Errorf("scan: dictionary entry %d: %w", i, err)
	}
	wp.decoded.Add(1)
	wp.Results.AddWord(report.Word{Index: i, Address: at.Int(), Text: text})
	return nil
}

func (wp *WorkerPool) object(n story.ObjectNumber) error {
	tree := wp.story.Objects()
	row := report.Object{Number: int(n)}
	var err error
	if row.Name, err = tree.Name(n); err != nil {
		return fmt.Errorf("scan: object %d name: %w", n, err)
	}
	links := []struct {
		get func(story.ObjectNumber) (story.ObjectNumber, error)
		set *int
	}{
		{tree.Parent, &row.Parent},
		{tree.Sibling, &row.Sibling},
		{tree.Child, &row.Child},
	}
	for _, l := range links {
		v, err := l.get(n)
		if err != nil {
			return fmt.Errorf("scan: object %d links: %w", n, err)
		}
		*l.set = int(v)
	}
	if row.Attributes, err = tree.Attributes(n); err != nil {
		return fmt.Errorf("scan: object %d attributes: %w", n, err)
	}
	props, err := tree.PropertyData(n)
	if err != nil {
		return fmt.Errorf("scan: object %d properties: %w", n, err)
	}
	row.Properties = props.Int()
	wp.decoded.Add(1)
	wp.Results.AddObject(row)
	return nil
}

// code decodes count instructions in sequence from start. Rows decoded
// before a failure are kept.
func (wp *WorkerPool) code(start memory.ByteAddress, count int) error {
	at := start
	for i := 0; i < count; i++ {
		in, next, err := inst.Decode(wp.story, at)
		if err != nil {
			return fmt.Errorf("scan: code from %s: %w", start, err)
		}
		wp.decoded.Add(1)
		wp.Results.AddInstruction(report.Instruction{
			Address:  at.Int(),
			Length:   in.Length,
			Mnemonic: inst.Mnemonic(in.Operation.OpCode, in.Version),
			Text:     inst.Disassemble(in),
		})
		if next.Int() >= wp.story.Len() {
			return nil
		}
		at = next
	}
	return nil
}
