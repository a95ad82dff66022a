package protocol

import (
	"fmt"
	"io"
)

// Priority is the per-file weight: the number of chunks a file is given in one
// scheduler pass.
type Priority byte

const (
	Paused   Priority = 0
	Normal   Priority = 1
	High     Priority = 4
	Critical Priority = 10
)

var keywords = map[string]Priority{
	"NORMAL":   Normal,
	"HIGH":     High,
	"CRITICAL": Critical,
}

// ParsePriority maps a control-file keyword to its weight.
func ParsePriority(keyword string) (Priority, bool) {
	p, ok := keywords[keyword]
	return p, ok
}

func (p Priority) String() string {
	switch p {
	case Paused:
		return "PAUSED"
	case Normal:
		return "NORMAL"
	case High:
		return "HIGH"
	case Critical:
		return "CRITICAL"
	}
	return fmt.Sprintf("Priority(%d)", byte(p))
}

// Vector holds one priority per catalog entry, index-aligned with the catalog.
type Vector []Priority

func NewVector(n int) Vector {
	return make(Vector, n)
}

// Merge adopts every slot of other whose local value is still Paused and returns
// how many slots were activated. A slot that is already nonzero is never
// changed again, so the first weight seen for a file is the one it keeps.
func (v Vector) Merge(other Vector) int {
	if len(v) != len(other) {
		panic(fmt.Sprintf("priority vector length mismatch: %d != %d", len(v), len(other)))
	}
	activated := 0
	for i, p := range other {
		if v[i] == Paused && p != Paused {
			v[i] = p
			activated++
		}
	}
	return activated
}

// WriteVector sends the raw vector bytes; there is no header since both peers
// already know its length from the catalog.
func WriteVector(w io.Writer, v Vector) error {
	buf := make([]byte, len(v))
	for i, p := range v {
		buf[i] = byte(p)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write priority vector: %w", err)
	}
	return nil
}

// ReadVector fills v with exactly len(v) bytes from r.
func ReadVector(r io.Reader, v Vector) error {
	buf := make([]byte, len(v))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("failed to read priority vector: %w", err)
	}
	for i, b := range buf {
		v[i] = Priority(b)
	}
	return nil
}
