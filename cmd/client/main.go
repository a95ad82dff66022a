package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/jaywantadh/PrioStream/config"
	"github.com/jaywantadh/PrioStream/internal/control"
	"github.com/jaywantadh/PrioStream/internal/ledger"
	"github.com/jaywantadh/PrioStream/internal/session"
	"github.com/jaywantadh/PrioStream/internal/ui"
	"github.com/jaywantadh/PrioStream/pkg/env"
	"github.com/jaywantadh/PrioStream/pkg/logging"
)

func main() {
	env.LoadEnv()

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "directory holding config.yaml",
			Value: env.GetEnv("PRIOSTREAM_CONFIG", "./config"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "verbose text logging",
			EnvVars: []string{"DEBUG"},
		},
	}

	app := &cli.App{
		Name:      "priostream-client",
		Usage:     "Download files from a priostream server, steered by a control file",
		ArgsUsage: "[control-file]",
		Flags: append(flags, &cli.StringFlag{
			Name:  "server",
			Usage: "server address, prompted for when empty",
		}),
		Action: download,
		Commands: []*cli.Command{
			{
				Name:   "history",
				Usage:  "List completed downloads",
				Flags:  flags,
				Action: history,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logging.Log.Fatal(err)
	}
}

func prepareOutputDir(fs afero.Fs, dir string) {
	info, err := fs.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := fs.MkdirAll(dir, 0755); err != nil {
			logging.Log.WithError(err).Fatal("❌ Can't create output directory!")
		}
	case err != nil:
		logging.Log.WithError(err).Fatal("❌ Can't inspect output directory!")
	case !info.IsDir():
		logging.Log.Fatalf("❌ Can't create output directory! `%s` is not a directory", dir)
	}
}

func promptAddress() (string, error) {
	fmt.Print("Enter the server address: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read server address: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func download(c *cli.Context) error {
	logging.InitLogger(c.Bool("debug"))

	cfg, err := config.LoadClientConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.NArg() > 0 {
		cfg.ControlFile = c.Args().First()
	}
	if s := c.String("server"); s != "" {
		cfg.ServerAddr = s
	}
	if cfg.ServerAddr == "" {
		if cfg.ServerAddr, err = promptAddress(); err != nil {
			return err
		}
	}

	fs := afero.NewOsFs()
	prepareOutputDir(fs, cfg.OutputDir)

	fmt.Printf("Connecting to server at `%s`...\n", cfg.ServerAddr)
	conn, err := net.Dial("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()
	fmt.Println("Connection established")

	client, err := session.NewClient(conn, fs, cfg.OutputDir)
	if err != nil {
		return err
	}
	defer client.Close()

	term := ui.NewTerminal(os.Stdout, client.Catalog(), cfg.ControlFile)
	term.PrintCatalog()
	observers := session.Observers{term}

	if cfg.LedgerPath != "" {
		store, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			logging.Log.WithError(err).Warn("⚠️ Download history disabled")
		} else {
			defer store.Close()
			observers = append(observers, ledger.NewRecorder(store, fs, cfg.OutputDir, client.Catalog(), cfg.ServerAddr))
		}
	}

	client.Observe(observers)

	intent := control.NewReader(fs, cfg.ControlFile, client.Catalog())
	watcher := control.NewWatcher(cfg.ControlFile, cfg.PollInterval)
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = client.Run(ctx, intent, watcher)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func history(c *cli.Context) error {
	logging.InitLogger(c.Bool("debug"))

	cfg, err := config.LoadClientConfig(c.String("config"))
	if err != nil {
		return err
	}
	if cfg.LedgerPath == "" {
		return errors.New("no ledger_path configured")
	}

	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.List()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No completed downloads")
		return nil
	}
	for _, r := range recs {
		fmt.Printf("%s  %-30s %10s  %s  %s\n",
			time.Unix(r.CompletedAt, 0).Format(time.DateTime), r.Name,
			humanize.IBytes(r.Size), r.Digest[:16], r.Server)
	}
	return nil
}
