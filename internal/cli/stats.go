package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mantradev/mantra/internal/config"
	"github.com/mantradev/mantra/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print resolution and cost totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		now := time.Now()
		windows := []struct {
			name  string
			since time.Time
		}{
			{"today", time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())},
			{"last 7 days", now.AddDate(0, 0, -7)},
			{"all time", time.Time{}},
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WINDOW\tTIER\tSESSIONS\tCOST\tAVG RATING")
		for _, win := range windows {
			tiers, err := st.ResolutionStats(win.since)
			if err != nil {
				return fmt.Errorf("stats for %s: %w", win.name, err)
			}
			if len(tiers) == 0 {
				fmt.Fprintf(w, "%s\t-\t0\t$0.00\t-\n", win.name)
				continue
			}
			var sessions int64
			var cost float64
			for _, ts := range tiers {
				rating := "-"
				if ts.AvgRating != nil {
					rating = fmt.Sprintf("%.1f", *ts.AvgRating)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t$%.2f\t%s\n", win.name, ts.Tier, ts.Count, ts.Cost, rating)
				sessions += ts.Count
				cost += ts.Cost
			}
			fmt.Fprintf(w, "%s\ttotal\t%d\t$%.2f\t\n", win.name, sessions, cost)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		cacheBytes, err := st.TotalCacheBytes()
		if err != nil {
			return fmt.Errorf("cache size: %w", err)
		}
		fmt.Printf("\nAudio cache: %s\n", humanize.Bytes(uint64(cacheBytes)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
