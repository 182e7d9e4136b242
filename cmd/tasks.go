package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/npepeverse/pepebot/internal/broadcast"
	"github.com/npepeverse/pepebot/internal/scheduler"
)

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Show the broadcast schedule and when each task last ran",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			printStatus(os.Stdout, a.sched.Status(cmd.Context(), time.Now()), a.sched.Location())
			return nil
		},
	}
	cmd.AddCommand(tasksRunCmd())
	return cmd
}

func tasksRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Run one scheduled task now, ignoring its trigger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			name := broadcast.NormalizeName(args[0])
			out, err := a.sched.RunNow(cmd.Context(), name, time.Now())
			if errors.Is(err, scheduler.ErrUnknownTask) {
				return fmt.Errorf("%w: %q (known: %s)", err, name, strings.Join(broadcast.Names(), ", "))
			}
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			fmt.Printf("%s ran for period %s in %s\n", name, out.Period, out.Duration.Round(time.Millisecond))
			if out.PersistErr != nil {
				fmt.Printf("warning: run not recorded: %v\n", out.PersistErr)
			}
			return nil
		},
	}
}

// printStatus renders the task table with columns padded by display width.
func printStatus(w io.Writer, rows []scheduler.TaskStatus, loc *time.Location) {
	header := []string{"TASK", "TRIGGER", "LAST RUN", "NEXT", ""}
	table := [][]string{header}
	for _, st := range rows {
		last := st.LastPeriod
		if last == "" {
			last = "never"
		}
		next := "-"
		if !st.Next.IsZero() {
			next = st.Next.In(loc).Format("Mon 2006-01-02 15:04")
		}
		mark := ""
		if st.Pending {
			mark = "due"
		}
		table = append(table, []string{st.Name, st.Trigger, last, next, mark})
	}

	widths := make([]int, len(header))
	for _, row := range table {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range table {
		var b strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
	fmt.Fprintf(w, "\ntimes in %s\n", loc)
}
