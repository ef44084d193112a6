package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"seedvault/internal/tasks"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and manage archive tasks",
	}

	tasksCmd.AddCommand(newTasksListCommand(ctx))
	tasksCmd.AddCommand(newTasksRetryCommand(ctx))
	tasksCmd.AddCommand(newTasksSkipCommand(ctx))

	return tasksCmd
}

func newTasksListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks and their progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			statuses, err := parseStatusFilter(statusFilter)
			if err != nil {
				return err
			}

			list, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No tasks")
				return nil
			}

			// The table shows friendly stage labels; the pipe-friendly
			// output keeps raw status names so it can round-trip through
			// --status filters.
			tty := isatty.IsTerminal(os.Stdout.Fd())
			headers := []string{"HASH", "NAME", "STATUS", "ATTEMPTS", "SIZE", "DESTINATION"}
			rows := make([][]string, 0, len(list))
			for _, task := range list {
				status := string(task.Status)
				if tty {
					status = task.Status.StageLabel()
				}
				rows = append(rows, []string{
					shortHash(task.Hash),
					truncateName(task.Name, 48),
					status,
					formatAttempts(task),
					formatSize(task.UploadSize),
					task.RemotePath,
				})
			}

			if tty {
				fmt.Fprintln(out, renderTable(headers, rows, 3, 4))
			} else {
				for _, row := range rows {
					fmt.Fprintln(out, strings.Join(row, "\t"))
				}
			}

			counts, err := store.CountsByStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("count tasks: %w", err)
			}
			fmt.Fprintln(out, formatCounts(counts))
			return nil
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Comma-separated status filter (e.g. upload_failed,error)")
	return cmd
}

func newTasksRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <hash>",
		Short: "Reset a failed task for another attempt",
		Long:  "Returns an upload_failed, verification_failed, or error task to the start of its stage with fresh attempt counters.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			hash := strings.ToLower(strings.TrimSpace(args[0]))
			if err := store.ResetForRetry(cmd.Context(), hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s queued for retry\n", shortHash(hash))
			return nil
		},
	}
}

func newTasksSkipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skip <hash>",
		Short: "Permanently exclude a task from processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			hash := strings.ToLower(strings.TrimSpace(args[0]))
			if err := store.MarkSkipped(cmd.Context(), hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s skipped\n", shortHash(hash))
			return nil
		},
	}
}

func openStore(ctx *commandContext) (*tasks.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	store, err := tasks.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open task store: %w", err)
	}
	return store, nil
}

func parseStatusFilter(filter string) ([]tasks.Status, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}
	var statuses []tasks.Status
	for _, part := range strings.Split(filter, ",") {
		status, ok := tasks.ParseStatus(strings.TrimSpace(part))
		if !ok {
			return nil, fmt.Errorf("unknown status %q", strings.TrimSpace(part))
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func truncateName(name string, limit int) string {
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit-3]) + "..."
}

func formatAttempts(task *tasks.Task) string {
	return fmt.Sprintf("%d/%d", task.UploadAttempts, task.VerificationAttempts)
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return strconv.FormatInt(size, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatCounts(counts map[tasks.Status]int) string {
	var parts []string
	total := 0
	active := 0
	for _, status := range tasks.AllStatuses() {
		count := counts[status]
		if count == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", status, count))
		total += count
		if !status.IsTerminal() {
			active += count
		}
	}
	if len(parts) == 0 {
		return "0 tasks"
	}
	return fmt.Sprintf("%d task(s), %d active (%s)", total, active, strings.Join(parts, ", "))
}
