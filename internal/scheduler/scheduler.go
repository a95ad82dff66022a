package scheduler

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/jaywantadh/PrioStream/internal/protocol"
)

// ErrStalled is returned when a pass services no file although the round still
// expects files to finish.
var ErrStalled = errors.New("transfer stalled: no eligible file left in round")

// State is the lifecycle of one catalog entry within a connection.
type State int

const (
	Idle State = iota
	Active
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Endpoint is one side of the chunk exchange. The server reads files and sends
// chunks, the client receives chunks and writes files.
type Endpoint interface {
	// Open acquires the backing file the first time the entry is serviced.
	Open(index int) (afero.File, error)
	// Exchange moves exactly one chunk of the entry and returns its payload length.
	Exchange(index int, f afero.File) (int, error)
	// Finished is called once the entry's terminal chunk has been exchanged and
	// its file released.
	Finished(index int)
}

type slot struct {
	state State
	file  afero.File
}

// Table tracks every catalog entry of one connection and runs the weighted
// round-robin passes over them.
type Table struct {
	slots    []slot
	endpoint Endpoint
}

func NewTable(n int, endpoint Endpoint) *Table {
	return &Table{
		slots:    make([]slot, n),
		endpoint: endpoint,
	}
}

func (t *Table) Len() int {
	return len(t.slots)
}

func (t *Table) State(index int) State {
	return t.slots[index].state
}

// activate is the only place a file gets opened.
func (t *Table) activate(index int) error {
	s := &t.slots[index]
	f, err := t.endpoint.Open(index)
	if err != nil {
		return fmt.Errorf("failed to open file %d: %w", index, err)
	}
	s.file = f
	s.state = Active
	return nil
}

// finish is the only place a file gets closed.
func (t *Table) finish(index int) error {
	s := &t.slots[index]
	err := s.file.Close()
	s.file = nil
	s.state = Done
	t.endpoint.Finished(index)
	if err != nil {
		return fmt.Errorf("failed to close file %d: %w", index, err)
	}
	return nil
}

// Transfer runs passes in catalog order until activated entries have reached
// Done. Each pass gives every eligible entry up to its priority in chunks.
func (t *Table) Transfer(priorities protocol.Vector, activated int) error {
	if len(priorities) != len(t.slots) {
		return fmt.Errorf("priority vector has %d entries, table has %d", len(priorities), len(t.slots))
	}

	for activated > 0 {
		serviced := 0
		for i, p := range priorities {
			if p == protocol.Paused || t.slots[i].state == Done {
				continue
			}
			if t.slots[i].state == Idle {
				if err := t.activate(i); err != nil {
					return err
				}
			}
			serviced++

			for q := 0; q < int(p); q++ {
				n, err := t.endpoint.Exchange(i, t.slots[i].file)
				if err != nil {
					return fmt.Errorf("chunk exchange for file %d failed: %w", i, err)
				}
				if n < protocol.ChunkSize {
					if err := t.finish(i); err != nil {
						return err
					}
					activated--
					break
				}
			}
		}
		if serviced == 0 && activated > 0 {
			return ErrStalled
		}
	}
	return nil
}

// Close releases any file still open, e.g. after the connection failed mid-round.
func (t *Table) Close() error {
	var errs []error
	for i := range t.slots {
		s := &t.slots[i]
		if s.state != Active || s.file == nil {
			continue
		}
		if err := s.file.Close(); err != nil {
			errs = append(errs, err)
		}
		s.file = nil
	}
	return errors.Join(errs...)
}
