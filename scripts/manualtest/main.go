package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/jaywantadh/PrioStream/internal/catalog"
	"github.com/jaywantadh/PrioStream/internal/control"
	"github.com/jaywantadh/PrioStream/internal/ledger"
	"github.com/jaywantadh/PrioStream/internal/pool"
	"github.com/jaywantadh/PrioStream/internal/session"
	"github.com/jaywantadh/PrioStream/pkg/logging"
)

// Serves a generated directory over loopback, downloads it with one round and
// compares digests.
func main() {
	logging.InitLogger(true)

	work, err := os.MkdirTemp("", "priostream-manual")
	if err != nil {
		fmt.Printf("❌ Temp dir failed: %v\n", err)
		return
	}
	defer os.RemoveAll(work)

	fs := afero.NewOsFs()
	inDir := filepath.Join(work, "input")
	outDir := filepath.Join(work, "output")
	_ = fs.MkdirAll(inDir, 0755)
	_ = fs.MkdirAll(outDir, 0755)

	sizes := map[string]int{"a.txt": 2048, "b.txt": 500, "big.bin": 3<<20 + 17, "empty": 0}
	intentBody := ""
	for name, size := range sizes {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i*31 + len(name))
		}
		_ = afero.WriteFile(fs, filepath.Join(inDir, name), data, 0644)
		intentBody += name + " HIGH\n"
	}
	controlPath := filepath.Join(work, "input.txt")
	_ = afero.WriteFile(fs, controlPath, []byte(intentBody), 0644)

	files, paths := catalog.Scan(fs, inDir)
	workers := pool.New(2, func(int) pool.Handler { return session.NewServer(fs, files, paths) })
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Printf("❌ Listen failed: %v\n", err)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	go workers.Serve(ctx, ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		fmt.Printf("❌ Dial failed: %v\n", err)
		return
	}
	client, err := session.NewClient(conn, fs, outDir)
	if err != nil {
		fmt.Printf("❌ Handshake failed: %v\n", err)
		return
	}

	start := time.Now()
	activated, err := client.Round(control.NewReader(fs, controlPath, client.Catalog()))
	if err != nil {
		fmt.Printf("❌ Round failed: %v\n", err)
		return
	}
	fmt.Printf("📦 Downloaded %d files in %s\n", activated, time.Since(start))

	conn.Close()
	cancel()
	workers.Shutdown()

	ok := true
	for _, e := range files {
		want, _ := ledger.Digest(fs, filepath.Join(inDir, e.Name))
		got, _ := ledger.Digest(fs, filepath.Join(outDir, e.Name))
		if want != got || want == "" {
			fmt.Printf("❌ MISMATCH: %s\n", e.Name)
			ok = false
			continue
		}
		fmt.Printf("🔑 %s %s\n", want[:16], e.Name)
	}
	if ok {
		fmt.Println("✅ SUCCESS: every downloaded file matches its original")
	}
}
