package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/jaywantadh/PrioStream/internal/protocol"
	"github.com/jaywantadh/PrioStream/pkg/logging"
)

// Scan lists the regular files directly inside dir, ordered by name, together with
// the path each entry is served from. Entries that cannot be offered are logged and
// skipped; an unreadable directory yields an empty catalog.
func Scan(fs afero.Fs, dir string) (protocol.Catalog, []string) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		logging.Log.WithError(err).Errorf("❌ Failed to read directory `%s`", dir)
		return protocol.Catalog{}, []string{}
	}

	cat := make(protocol.Catalog, 0, len(infos))
	paths := make([]string, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		path := filepath.Join(dir, name)
		log := logging.Log.WithFields(logrus.Fields{"path": path})

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := fs.Stat(path)
			if err != nil {
				log.WithError(err).Warn("⚠️ Skipping unresolvable link")
				continue
			}
			info = target
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if !utf8.ValidString(name) {
			log.Warn("⚠️ Skipping file whose name is not valid UTF-8")
			continue
		}
		if strings.ContainsRune(name, 0) {
			log.Errorf("❌ Name `%s` contains the null-terminator", name)
			continue
		}

		cat = append(cat, protocol.Entry{Name: name, Size: uint64(info.Size())})
		paths = append(paths, path)
	}

	logging.Log.Infof("📂 Catalog built from `%s`: %d files", dir, len(cat))
	return cat, paths
}
