package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/jaywantadh/PrioStream/config"
	"github.com/jaywantadh/PrioStream/internal/catalog"
	"github.com/jaywantadh/PrioStream/internal/pool"
	"github.com/jaywantadh/PrioStream/internal/session"
	"github.com/jaywantadh/PrioStream/pkg/env"
	"github.com/jaywantadh/PrioStream/pkg/logging"
)

func main() {
	env.LoadEnv()

	app := &cli.App{
		Name:  "priostream-server",
		Usage: "Serve a directory to priority-steered clients",
		Flags: []cli.Flag{
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
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		logging.Log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	logging.InitLogger(c.Bool("debug"))

	cfg, err := config.LoadServerConfig(c.String("config"))
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	files, paths := catalog.Scan(fs, cfg.InputDir)

	workers := pool.New(cfg.ThreadCount, func(id int) pool.Handler {
		return session.NewServer(fs, files, paths)
	})

	addr := cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logging.Log.WithError(err).Fatal("❌ failed to bind TCP listener")
	}
	logging.Log.WithFields(logrus.Fields{
		"threads": cfg.ThreadCount,
		"files":   len(files),
	}).Infof("🚀 Server listening on: %s", addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = workers.Serve(ctx, ln)
	stop()

	logging.Log.Info("🛑 No longer accepting clients, closing active sessions")
	workers.Shutdown()
	return err
}
