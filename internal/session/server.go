package session

import (
	"fmt"
	"io"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/jaywantadh/PrioStream/internal/protocol"
	"github.com/jaywantadh/PrioStream/internal/scheduler"
)

// Server serves one connection at a time from a fixed catalog. Each worker owns
// its own Server, so nothing in it is shared between goroutines.
type Server struct {
	fs      afero.Fs
	catalog protocol.Catalog
	paths   []string
}

// NewServer copies the catalog and paths so the caller's slices can be handed
// to any number of workers.
func NewServer(fs afero.Fs, cat protocol.Catalog, paths []string) *Server {
	return &Server{
		fs:      fs,
		catalog: cat.Clone(),
		paths:   append([]string(nil), paths...),
	}
}

// sender reads catalog files and streams them to the client.
type sender struct {
	fs    afero.Fs
	paths []string
	conn  io.Writer
	log   *logrus.Entry
}

func (s *sender) Open(index int) (afero.File, error) {
	return s.fs.Open(s.paths[index])
}

func (s *sender) Exchange(index int, f afero.File) (int, error) {
	chunk, err := protocol.ReadChunkFrom(f)
	if err != nil {
		return 0, err
	}
	if err := protocol.WriteChunk(s.conn, chunk); err != nil {
		return 0, err
	}
	return chunk.Len, nil
}

func (s *sender) Finished(index int) {
	s.log.WithField("file", s.paths[index]).Debug("File sent")
}

// Serve sends the catalog and then runs rounds until the connection fails. It
// only returns with an error, typically io.EOF once the client hangs up.
func (s *Server) Serve(conn net.Conn, log *logrus.Entry) error {
	if err := protocol.WriteCatalog(conn, s.catalog); err != nil {
		return err
	}

	if len(s.catalog) == 0 {
		// an empty vector is zero bytes on the wire; just wait for the client to leave
		if _, err := io.Copy(io.Discard, conn); err != nil {
			return fmt.Errorf("connection with empty catalog failed: %w", err)
		}
		return io.EOF
	}

	table := scheduler.NewTable(len(s.catalog), &sender{
		fs:    s.fs,
		paths: s.paths,
		conn:  conn,
		log:   log,
	})
	defer table.Close()

	applied := protocol.NewVector(len(s.catalog))
	incoming := protocol.NewVector(len(s.catalog))
	for {
		if err := protocol.ReadVector(conn, incoming); err != nil {
			return err
		}
		activated := applied.Merge(incoming)
		if activated > 0 {
			log.WithField("activated", activated).Debug("Round started")
		}
		if err := table.Transfer(applied, activated); err != nil {
			return err
		}
	}
}
