package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/jaywantadh/PrioStream/internal/protocol"
	"github.com/jaywantadh/PrioStream/internal/scheduler"
)

// ErrUnsafeName is returned when the server offers a name that would escape the
// output directory.
var ErrUnsafeName = errors.New("unsafe file name in catalog")

// Intent supplies the desired priorities at the start of every round.
type Intent interface {
	Read(desired protocol.Vector)
}

// Waiter paces rounds on the client.
type Waiter interface {
	Stamp() time.Time
	Since(t time.Time) bool
	Wait(ctx context.Context) error
}

// Client drives the receiving side of one connection.
type Client struct {
	conn     io.ReadWriter
	catalog  protocol.Catalog
	desired  protocol.Vector
	applied  protocol.Vector
	table    *scheduler.Table
	receiver *receiver
	observer Observer
}

// receiver writes incoming chunks into the output directory.
type receiver struct {
	fs        afero.Fs
	conn      io.Reader
	catalog   protocol.Catalog
	outputDir string
	received  []uint64
	observer  Observer
}

func (r *receiver) Open(index int) (afero.File, error) {
	name := r.catalog[index].Name
	if !filepath.IsLocal(name) || filepath.Base(name) != name {
		return nil, fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return r.fs.Create(filepath.Join(r.outputDir, name))
}

func (r *receiver) Exchange(index int, f afero.File) (int, error) {
	chunk, err := protocol.ReadChunk(r.conn)
	if err != nil {
		return 0, err
	}
	if _, err := f.Write(chunk.Payload()); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", r.catalog[index].Name, err)
	}
	r.received[index] += uint64(chunk.Len)
	r.observer.Progress(index, r.received[index])
	return chunk.Len, nil
}

func (r *receiver) Finished(index int) {
	r.observer.Finished(index)
}

// NewClient reads the catalog from conn. Files are created under outputDir on fs
// when they are first serviced.
func NewClient(conn io.ReadWriter, fs afero.Fs, outputDir string) (*Client, error) {
	cat, err := protocol.ReadCatalog(conn)
	if err != nil {
		return nil, err
	}
	observer := Observers{}

	recv := &receiver{
		fs:        fs,
		conn:      conn,
		catalog:   cat,
		outputDir: outputDir,
		received:  make([]uint64, len(cat)),
		observer:  observer,
	}
	return &Client{
		conn:     conn,
		catalog:  cat,
		desired:  protocol.NewVector(len(cat)),
		applied:  protocol.NewVector(len(cat)),
		table:    scheduler.NewTable(len(cat), recv),
		receiver: recv,
		observer: observer,
	}, nil
}

// Observe sets the observer notified of progress from now on.
func (c *Client) Observe(o Observer) {
	c.observer = o
	c.receiver.observer = o
}

func (c *Client) Catalog() protocol.Catalog {
	return c.catalog
}

// Applied is the priority vector in force on this connection.
func (c *Client) Applied() protocol.Vector {
	return c.applied
}

func (c *Client) State(index int) scheduler.State {
	return c.table.State(index)
}

// Received is the number of bytes written so far for an entry.
func (c *Client) Received(index int) uint64 {
	return c.receiver.received[index]
}

// Round reads intent, sends the merged vector and receives until every file
// activated in this round is done. It returns the number of activated files.
func (c *Client) Round(intent Intent) (int, error) {
	intent.Read(c.desired)
	activated := c.applied.Merge(c.desired)

	if err := protocol.WriteVector(c.conn, c.applied); err != nil {
		return 0, err
	}
	if err := c.table.Transfer(c.applied, activated); err != nil {
		return activated, err
	}
	return activated, nil
}

// Run repeats rounds until ctx is done or the connection fails. When intent
// changed while a round was running the next one starts immediately.
func (c *Client) Run(ctx context.Context, intent Intent, waiter Waiter) error {
	for {
		stamp := waiter.Stamp()
		if _, err := c.Round(intent); err != nil {
			return err
		}
		if waiter.Since(stamp) {
			continue
		}
		c.observer.Waiting()
		if err := waiter.Wait(ctx); err != nil {
			return err
		}
	}
}

// Close releases files left open by an interrupted round.
func (c *Client) Close() error {
	return c.table.Close()
}
