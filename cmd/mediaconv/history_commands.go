package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mediaconv/internal/app"
	"mediaconv/internal/fileutil"
	"mediaconv/internal/history"
	"mediaconv/internal/logging"
	"mediaconv/internal/textutil"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage conversion history",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryDeleteCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	historyCmd.AddCommand(newHistoryExportCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded conversions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), false, func(a *app.App) error {
				records := a.History.Records()
				if limit > 0 && len(records) > limit {
					records = records[:limit]
				}
				if jsonOut {
					return writeJSON(cmd, recordViews(records))
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No conversions recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						logging.ShortID(rec.ID.String()),
						rec.Title,
						fmt.Sprintf("%s → %s", rec.SourceFormat, rec.TargetFormat),
						humanize.Bytes(uint64(rec.Size)),
						formatDuration(rec.Duration),
						humanize.Time(rec.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Formats", "Size", "Duration", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				fmt.Fprintf(out, "%d of %d record(s)\n", len(records), a.History.Len())
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many records")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print records as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one history record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), false, func(a *app.App) error {
				rec, err := resolveRecord(a.History, args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, newRecordView(rec))
				}
				original := "none"
				if rec.HasOriginal() {
					original = a.Blobs.Path(rec.OriginalBlobID)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
					{"ID", rec.ID.String()},
					{"Title", rec.Title},
					{"Source", rec.Source},
					{"Formats", fmt.Sprintf("%s → %s", rec.SourceFormat, rec.TargetFormat)},
					{"Size", humanize.Bytes(uint64(rec.Size))},
					{"Duration", formatDuration(rec.Duration)},
					{"Created", rec.CreatedAt.Local().Format(time.RFC1123)},
					{"Converted blob", a.Blobs.Path(rec.ConvertedBlobID)},
					{"Preview blob", original},
				}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the record as JSON")
	return cmd
}

func newHistoryDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete history records and their stored media",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), true, func(a *app.App) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					rec, err := resolveRecord(a.History, arg)
					if err != nil {
						return err
					}
					if a.History.Delete(rec.ID) {
						fmt.Fprintf(out, "Deleted %s (%s)\n", logging.ShortID(rec.ID.String()), rec.Title)
					}
				}
				return a.History.Flush(cmd.Context())
			})
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history record and all stored media",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			return ctx.withApp(cmd.Context(), true, func(a *app.App) error {
				count := a.History.Len()
				clearErr := a.History.ClearAll()
				if err := a.History.Flush(cmd.Context()); err != nil {
					return err
				}
				if clearErr != nil {
					return fmt.Errorf("history cleared but media removal failed: %w", clearErr)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d record(s)\n", count)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing all history")
	return cmd
}

func newHistoryExportCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Copy a converted file out of the media store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), false, func(a *app.App) error {
				rec, err := resolveRecord(a.History, args[0])
				if err != nil {
					return err
				}
				target := strings.TrimSpace(dir)
				if target == "" {
					target = "."
				}
				if err := os.MkdirAll(target, 0o755); err != nil {
					return fmt.Errorf("create export directory: %w", err)
				}
				name := textutil.SanitizeFileName(rec.Title)
				if name == "" {
					name = rec.ID.String()
				}
				dst := filepath.Join(target, name+rec.TargetFormat.Extension())
				written, err := fileutil.CopyFileVerified(a.Blobs.Path(rec.ConvertedBlobID), dst)
				if err != nil {
					return fmt.Errorf("export %s: %w", logging.ShortID(rec.ID.String()), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%s) to %s\n", rec.Title, humanize.Bytes(uint64(written)), dst)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (defaults to the working directory)")
	return cmd
}

// resolveRecord accepts a full record ID or a unique prefix of one.
func resolveRecord(store *history.Store, value string) (history.Record, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return history.Record{}, fmt.Errorf("record id required")
	}
	if id, err := uuid.Parse(value); err == nil {
		if rec, ok := store.Get(id); ok {
			return rec, nil
		}
		return history.Record{}, fmt.Errorf("history record %s not found", value)
	}
	var matches []history.Record
	for _, rec := range store.Records() {
		if strings.HasPrefix(rec.ID.String(), value) {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return history.Record{}, fmt.Errorf("history record %s not found", value)
	case 1:
		return matches[0], nil
	default:
		return history.Record{}, fmt.Errorf("record id %s is ambiguous (%d matches)", value, len(matches))
	}
}

func formatDuration(seconds *float64) string {
	if seconds == nil {
		return "-"
	}
	return (time.Duration(*seconds * float64(time.Second))).Round(time.Second).String()
}

type recordView struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Source          string   `json:"source"`
	SourceFormat    string   `json:"source_format"`
	TargetFormat    string   `json:"target_format"`
	Size            int64    `json:"size"`
	Duration        *float64 `json:"duration,omitempty"`
	CreatedAt       string   `json:"created_at"`
	ConvertedBlobID string   `json:"converted_blob_id"`
	OriginalBlobID  string   `json:"original_blob_id,omitempty"`
}

func newRecordView(rec history.Record) recordView {
	view := recordView{
		ID:              rec.ID.String(),
		Title:           rec.Title,
		Source:          rec.Source,
		SourceFormat:    rec.SourceFormat,
		TargetFormat:    string(rec.TargetFormat),
		Size:            rec.Size,
		Duration:        rec.Duration,
		CreatedAt:       rec.CreatedAt.UTC().Format(time.RFC3339),
		ConvertedBlobID: rec.ConvertedBlobID.String(),
	}
	if rec.HasOriginal() {
		view.OriginalBlobID = rec.OriginalBlobID.String()
	}
	return view
}

func recordViews(records []history.Record) []recordView {
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, newRecordView(rec))
	}
	return views
}
