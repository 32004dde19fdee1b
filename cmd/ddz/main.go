package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peterkuimelis/ddzrogue/internal/config"
	"github.com/peterkuimelis/ddzrogue/internal/log"
	"github.com/peterkuimelis/ddzrogue/internal/repl"
	"github.com/peterkuimelis/ddzrogue/internal/session"
	"github.com/peterkuimelis/ddzrogue/internal/store"
)

var (
	configFile string
	slotFlag   string
	verbose    bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ddz",
	Short: "Roguelike climbing-card game",
	Long:  `ddz plays a roguelike run of climbing-card levels in the terminal and manages save slots.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if slotFlag != "" {
			c.Slot = slotFlag
		}
		if err := store.ValidSlot(c.Slot); err != nil {
			return err
		}
		cfg = c
		log.InitApp("ddz", cfg.LogLevel)
		log.Debug("config: %+v", *cfg)
		return nil
	},
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal, resuming the slot's saved run",
	RunE: func(cmd *cobra.Command, args []string) error {
		saves, err := openSaves()
		if err != nil {
			return err
		}
		defer saves.Close()

		engineCfg, err := cfg.EngineConfig(nil)
		if err != nil {
			return err
		}
		sess := session.New(session.Options{
			Slot:    cfg.Slot,
			Saves:   saves,
			Engine:  engineCfg,
			Verbose: verbose,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return repl.New(sess, os.Stdin, os.Stdout).Run(ctx)
	},
}

func openSaves() (*store.Manager, error) {
	kv, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open saves: %w", err)
	}
	return store.NewManager(kv), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./ddz.yaml or ~/.ddz/ddz.yaml)")
	rootCmd.PersistentFlags().StringVar(&slotFlag, "slot", "", "save slot (overrides the config)")
	playCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also log game events to stderr")

	rootCmd.AddCommand(playCmd, levelsCmd, itemsCmd, savesCmd, statsCmd)
	savesCmd.AddCommand(savesListCmd, savesDeleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}
