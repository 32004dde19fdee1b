package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/ddzrogue/internal/config"
	"github.com/peterkuimelis/ddzrogue/internal/log"
	ddzmcp "github.com/peterkuimelis/ddzrogue/internal/mcp"
	"github.com/peterkuimelis/ddzrogue/internal/session"
	"github.com/peterkuimelis/ddzrogue/internal/store"
)

func main() {
	configFile := flag.String("config", "", "config file (default ./ddz.yaml or ~/.ddz/ddz.yaml)")
	slot := flag.String("slot", "", "save slot (overrides the config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *slot != "" {
		cfg.Slot = *slot
	}
	log.InitApp(cfg.MCP.Name, cfg.LogLevel)

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
	ddzmcp.SetOptions(session.Options{Slot: cfg.Slot, Saves: saves, Engine: engineCfg})

	s := server.NewMCPServer(cfg.MCP.Name, cfg.MCP.Version)
	ddzmcp.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
