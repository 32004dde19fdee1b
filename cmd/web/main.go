package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterkuimelis/ddzrogue/internal/config"
	"github.com/peterkuimelis/ddzrogue/internal/log"
	"github.com/peterkuimelis/ddzrogue/internal/session"
	"github.com/peterkuimelis/ddzrogue/internal/store"
	"github.com/peterkuimelis/ddzrogue/internal/web"
)

func main() {
	configFile := flag.String("config", "", "config file (default ./ddz.yaml or ~/.ddz/ddz.yaml)")
	port := flag.Int("port", 0, "HTTP port to listen on (overrides the config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Web.Port = *port
	}
	log.InitApp("ddz-web", cfg.LogLevel)

	if *configFile != "" {
		err := config.Watch(*configFile, func(c *config.Config) {
			log.SetLevel(c.LogLevel)
			log.Info("config reloaded, log level %s", c.LogLevel)
		})
		if err != nil {
			log.Warn("config watch disabled: %v", err)
		}
	}

	kv, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal("open saves: %v", err)
	}
	saves := store.NewManager(kv)
	defer saves.Close()

	engineCfg, err := cfg.EngineConfig(nil)
	if err != nil {
		log.Fatal("%v", err)
	}
	srv := web.NewServer(web.Options{
		Session: session.Options{Slot: cfg.Slot, Saves: saves, Engine: engineCfg},
		Tick:    cfg.Tick(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Web.Port)
	log.Info("ddz web UI listening on http://localhost:%d", cfg.Web.Port)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}
