package control

import (
	"bufio"
	"strings"

	"github.com/spf13/afero"

	"github.com/jaywantadh/PrioStream/internal/protocol"
	"github.com/jaywantadh/PrioStream/pkg/logging"
)

// Reader turns a control file of `<filename> NORMAL|HIGH|CRITICAL` lines into
// desired priorities for a catalog.
type Reader struct {
	fs    afero.Fs
	path  string
	index map[string]int
}

func NewReader(fs afero.Fs, path string, cat protocol.Catalog) *Reader {
	return &Reader{
		fs:    fs,
		path:  path,
		index: cat.Index(),
	}
}

func (r *Reader) Path() string {
	return r.path
}

// Read applies every recognised line to desired. Slots without a matching line
// are left as they are, and a missing file leaves desired untouched.
func (r *Reader) Read(desired protocol.Vector) {
	f, err := r.fs.Open(r.path)
	if err != nil {
		logging.Log.WithError(err).Debugf("Control file `%s` not readable", r.path)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		idx, ok := r.index[fields[0]]
		if !ok {
			continue
		}
		p, ok := protocol.ParsePriority(fields[1])
		if !ok {
			continue
		}
		desired[idx] = p
	}
	if err := scanner.Err(); err != nil {
		logging.Log.WithError(err).Warnf("⚠️ Stopped reading control file `%s`", r.path)
	}
}
