package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/peterkuimelis/ddzrogue/internal/view"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Show the level table",
	RunE: func(cmd *cobra.Command, args []string) error {
		levels, err := cfg.Levels()
		if err != nil {
			return err
		}
		t := table.New().Headers("Level", "Required", "Multiplier", "AP bonus", "Cards", "Boss")
		for _, l := range view.LevelBriefs(levels) {
			boss := ""
			if l.Boss {
				boss = "yes"
			}
			t.Row(strconv.Itoa(l.Level), strconv.Itoa(l.Requirement), fmt.Sprintf("x%.1f", l.Multiplier),
				strconv.Itoa(l.ActionBonus), strconv.Itoa(l.Cards), boss)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List the item catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := table.New().Headers("ID", "Name", "Kind", "Price", "Effect")
		for _, it := range view.ItemCatalog() {
			t.Row(it.ID, it.Name, it.Kind, strconv.Itoa(it.Price), it.Description)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Manage save slots",
}

var savesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List save slots",
	RunE: func(cmd *cobra.Command, args []string) error {
		saves, err := openSaves()
		if err != nil {
			return err
		}
		defer saves.Close()
		slots, err := saves.Slots(context.Background())
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saves.")
			return nil
		}
		t := table.New().Headers("Slot", "Run", "Level", "Score", "Coins", "Saved")
		for _, s := range slots {
			run, level, score, saved := "-", "", "", ""
			if s.HasSave {
				run = "yes"
				level = strconv.Itoa(s.Level)
				score = strconv.Itoa(s.Score)
				saved = s.SavedAt.Local().Format("2006-01-02 15:04")
			}
			t.Row(s.Slot, run, level, score, strconv.Itoa(s.Coins), saved)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var savesDeleteCmd = &cobra.Command{
	Use:   "delete <slot>",
	Short: "Delete a slot with its run, profile and statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		saves, err := openSaves()
		if err != nil {
			return err
		}
		defer saves.Close()
		if err := saves.DeleteSlot(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted slot %s.\n", args[0])
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the lifetime statistics of the slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		saves, err := openSaves()
		if err != nil {
			return err
		}
		defer saves.Close()
		st, err := saves.LoadStats(context.Background(), cfg.Slot)
		if err != nil {
			return err
		}
		t := table.New().Headers("Slot", "Games", "Wins", "Best level", "Cards played", "Total score").
			Row(cfg.Slot, strconv.Itoa(st.Games), strconv.Itoa(st.Wins), strconv.Itoa(st.HighestLevel),
				strconv.Itoa(st.CardsPlayed), strconv.Itoa(st.TotalScore))
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}
