package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mediaconv/internal/app"
)

type storageUsage struct {
	BlobDir    string `json:"blob_dir"`
	Blobs      int    `json:"blobs"`
	TotalBytes int64  `json:"total_bytes"`
	Records    int    `json:"records"`
	MaxRecords int    `json:"max_records"`
	StateDB    string `json:"state_db"`
}

func newStorageCommand(ctx *commandContext) *cobra.Command {
	storageCmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect on-disk media storage",
	}
	storageCmd.AddCommand(newStorageUsageCommand(ctx))
	storageCmd.AddCommand(newStoragePruneCommand(ctx))
	return storageCmd
}

func newStorageUsageCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show how much space stored media occupies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), false, func(a *app.App) error {
				total, err := a.Blobs.TotalSize()
				if err != nil {
					return fmt.Errorf("measure media store: %w", err)
				}
				count, err := a.Blobs.Count()
				if err != nil {
					return fmt.Errorf("count media blobs: %w", err)
				}
				usage := storageUsage{
					BlobDir:    a.Blobs.Dir(),
					Blobs:      count,
					TotalBytes: total,
					Records:    a.History.Len(),
					MaxRecords: a.History.MaxRecords(),
					StateDB:    a.KV.Path(),
				}
				if jsonOut {
					return writeJSON(cmd, usage)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
					{"Media directory", usage.BlobDir},
					{"Blobs", strconv.Itoa(usage.Blobs)},
					{"Total size", humanize.Bytes(uint64(usage.TotalBytes))},
					{"History records", fmt.Sprintf("%d / %d", usage.Records, usage.MaxRecords)},
					{"State database", usage.StateDB},
				}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print usage as JSON")
	return cmd
}

func newStoragePruneCommand(ctx *commandContext) *cobra.Command {
	var minAge time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove stored media no history record references",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), true, func(a *app.App) error {
				keep := make(map[uuid.UUID]struct{})
				for _, rec := range a.History.Records() {
					keep[rec.ConvertedBlobID] = struct{}{}
					if rec.HasOriginal() {
						keep[rec.OriginalBlobID] = struct{}{}
					}
				}
				result := a.Blobs.Prune(cmd.Context(), keep, minAge, a.Logger)
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d file(s), freed %s\n",
					len(result.Removed), humanize.Bytes(uint64(result.Freed)))
				if len(result.Errors) > 0 {
					return fmt.Errorf("%d file(s) could not be removed; first error: %w",
						len(result.Errors), result.Errors[0].Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&minAge, "min-age", time.Hour, "Skip files modified more recently than this")
	return cmd
}
