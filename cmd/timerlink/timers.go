package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raidtimer/timerlink/internal/config"
	"github.com/raidtimer/timerlink/internal/timersdk"
	"github.com/raidtimer/timerlink/internal/timerstate"
)

func init() {
	rootCmd.AddCommand(newTimersCmd())
}

// timerRow is one timer as printed by the timers command.
type timerRow struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Remaining     string            `json:"remaining"`
	RemainingMs   int64             `json:"remainingMs"`
	DurationMs    int64             `json:"durationMs"`
	Status        timerstate.Status `json:"status"`
	RepeatEnabled bool              `json:"repeatEnabled"`
	EndsAt        *time.Time        `json:"endsAt,omitempty"`
}

func newSDK(cfg *config.Config) (*timersdk.Client, error) {
	sdkCfg := cfg.SDK()
	return timersdk.New(&sdkCfg)
}

// timerRows orders the fetched list for display as of now.
func timerRows(list *timersdk.TimerList, now time.Time) []timerRow {
	snaps := make([]timerstate.TimerSnapshot, 0, len(list.Timers))
	for _, e := range list.Timers {
		s := timerstate.NewSnapshot(e.ID, e.Name, e.Duration, e.Remaining, e.IsRunning, e.DisplayOrder, now)
		s.RepeatEnabled = e.RepeatEnabled
		snaps = append(snaps, s)
	}
	slices.SortFunc(snaps, timerstate.Compare)

	rows := make([]timerRow, 0, len(snaps))
	for _, s := range snaps {
		remaining := s.RemainingAt(now)
		row := timerRow{
			ID:            s.ID,
			Name:          s.Name,
			Remaining:     timerstate.FormatDuration(remaining),
			RemainingMs:   remaining.Milliseconds(),
			DurationMs:    s.Duration.Milliseconds(),
			Status:        s.StatusAt(now),
			RepeatEnabled: s.RepeatEnabled,
		}
		if end, ok := s.EndsAt(); ok {
			end = end.Round(0)
			row.EndsAt = &end
		}
		rows = append(rows, row)
	}
	return rows
}

func renderTimerTable(rows []timerRow, now time.Time) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(gray).
		Headers("ID", "NAME", "REMAINING", "STATUS", "REPEAT", "ENDS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cyan.Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, r := range rows {
		repeat := "-"
		if r.RepeatEnabled {
			repeat = "on"
		}
		ends := "-"
		if r.EndsAt != nil {
			ends = humanize.RelTime(*r.EndsAt, now, "ago", "from now")
		}
		t.Row(r.ID, r.Name, r.Remaining, string(r.Status), repeat, ends)
	}
	return t.String()
}

func newTimersCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "timers",
		Short: "Fetch and print the current timers once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			sdk, err := newSDK(cfg)
			if err != nil {
				return err
			}
			defer sdk.Close()

			list, err := sdk.FetchTimers(cmd.Context())
			if err != nil {
				return err
			}

			now := time.Now()
			rows := timerRows(list, now)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			if len(rows) == 0 {
				_, err := fmt.Fprintln(out, "no timers")
				return err
			}
			fmt.Fprintln(out, renderTimerTable(rows, now))
			if list.Skipped > 0 {
				fmt.Fprintln(out, yellow.Render(fmt.Sprintf("%d malformed %s skipped", list.Skipped, plural(list.Skipped, "entry", "entries"))))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
