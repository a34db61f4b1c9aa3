package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mediaconv/internal/app"
	"mediaconv/internal/engine"
	"mediaconv/internal/fileutil"
	"mediaconv/internal/logging"
	"mediaconv/internal/pipeline"
	"mediaconv/internal/queue"
	"mediaconv/internal/services"
	"mediaconv/internal/textutil"
)

type convertOptions struct {
	target      string
	concurrency int
	outputDir   string
	retries     int
	jsonOut     bool
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert media files and record them in history",
		Long: fmt.Sprintf("Convert one or more media files to a single target format.\n\nSupported targets: %s",
			formatList()),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), true, func(a *app.App) error {
				return runConvert(cmd, a, args, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.target, "to", "t", "", "Target format (defaults to conversion.target_format)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "Maximum simultaneous conversions")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Also write converted files into this directory")
	cmd.Flags().IntVar(&opts.retries, "retry", 0, "Retry failed items up to this many times")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")
	return cmd
}

func runConvert(cmd *cobra.Command, a *app.App, sources []string, opts convertOptions) error {
	var target engine.Format
	if strings.TrimSpace(opts.target) != "" {
		parsed, err := engine.ParseFormat(opts.target)
		if err != nil {
			return services.Wrap(services.ErrValidation, "convert", "parse target", fmt.Sprintf("supported formats: %s", formatList()), err)
		}
		target = parsed
	}

	resolved, err := resolveSources(sources)
	if err != nil {
		return err
	}

	printer := newProgressPrinter(cmd.ErrOrStderr())
	extra := []pipeline.Option{pipeline.WithObserver(printer.handle)}
	if opts.concurrency > 0 {
		extra = append(extra, pipeline.WithConcurrency(opts.concurrency))
	}
	conv, prober := newEngine(a)
	p, err := a.NewPipeline(conv, prober, target, extra...)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(services.WithRequestID(cmd.Context(), uuid.NewString()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	added, err := p.AddItems(runCtx, resolved)
	if err != nil {
		if errors.Is(err, pipeline.ErrAccessDenied) {
			return fmt.Errorf("%w; run `mediaconv access grant` to enable conversions", err)
		}
		return err
	}
	if added == 0 {
		return errors.New("no new files to convert")
	}
	if err := p.WaitForMetadata(runCtx); err != nil {
		_ = p.Shutdown(context.Background())
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Converting %d file(s) to %s with %d worker(s)\n",
		added, p.TargetFormat(), p.Concurrency())
	if !p.StartConversion(runCtx) {
		return errors.New("conversion did not start; no items are ready")
	}
	results, err := p.Wait(context.Background())
	if err != nil {
		return err
	}
	for attempt := 0; attempt < opts.retries && runCtx.Err() == nil; attempt++ {
		if p.Summary().Failed == 0 || !p.RetryFailed(runCtx) {
			break
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Retrying failed items (attempt %d of %d)\n", attempt+1, opts.retries)
		if results, err = p.Wait(context.Background()); err != nil {
			return err
		}
	}
	if runCtx.Err() != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Conversion cancelled; unfinished items were not recorded")
	}

	if opts.outputDir != "" {
		if err := exportResults(opts.outputDir, p.TargetFormat(), results); err != nil {
			return err
		}
	}
	if err := a.History.Flush(cmd.Context()); err != nil {
		a.Logger.Warn("history flush failed", logging.Error(err))
	}

	if opts.jsonOut {
		if err := writeJSON(cmd, resultViews(results)); err != nil {
			return err
		}
	} else {
		printResults(cmd.OutOrStdout(), results, p.Summary())
	}

	if runCtx.Err() != nil {
		return context.Canceled
	}
	if failed := p.Summary().Failed; failed > 0 {
		return fmt.Errorf("%d conversion(s) failed", failed)
	}
	return nil
}

func resolveSources(sources []string) ([]string, error) {
	out := make([]string, 0, len(sources))
	for _, source := range sources {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		if strings.Contains(source, "://") {
			out = append(out, source)
			continue
		}
		abs, err := filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", source, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, services.Wrap(services.ErrNotFound, "convert", "stat source", abs, err)
		}
		if info.IsDir() {
			return nil, services.Wrap(services.ErrValidation, "convert", "stat source", abs+" is a directory", nil)
		}
		out = append(out, abs)
	}
	return out, nil
}

func exportResults(dir string, target engine.Format, results []pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	used := make(map[string]int)
	for _, r := range results {
		if !r.Success {
			continue
		}
		base := textutil.SanitizeFileName(r.Title)
		if base == "" {
			base = r.ItemID.String()
		}
		if n := used[base]; n > 0 {
			used[base] = n + 1
			base = fmt.Sprintf("%s (%d)", base, n+1)
		} else {
			used[base] = 1
		}
		path := filepath.Join(dir, base+target.Extension())
		if err := fileutil.WriteFileAtomic(path, r.Output, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

type resultView struct {
	ItemID   string `json:"item_id"`
	Title    string `json:"title"`
	Source   string `json:"source"`
	Success  bool   `json:"success"`
	Size     int    `json:"size,omitempty"`
	RecordID string `json:"record_id,omitempty"`
	Message  string `json:"message,omitempty"`
	Kind     string `json:"error_kind,omitempty"`
}

func resultViews(results []pipeline.Result) []resultView {
	views := make([]resultView, 0, len(results))
	for _, r := range results {
		view := resultView{
			ItemID:  r.ItemID.String(),
			Title:   r.Title,
			Source:  r.Source,
			Success: r.Success,
			Size:    len(r.Output),
			Message: r.Message,
			Kind:    r.ErrorKind,
		}
		if r.RecordID != uuid.Nil {
			view.RecordID = r.RecordID.String()
		}
		views = append(views, view)
	}
	return views
}

func printResults(out io.Writer, results []pipeline.Result, summary pipeline.Summary) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No results")
		return
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status, size, record := "failed", "-", "-"
		if r.Success {
			status = "completed"
			size = humanize.Bytes(uint64(len(r.Output)))
			if r.RecordID != uuid.Nil {
				record = logging.ShortID(r.RecordID.String())
			}
		}
		rows = append(rows, []string{r.Title, status, size, record, r.Message})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Title", "Status", "Size", "Record", "Message"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintf(out, "Converted %d of %d file(s)\n", summary.Succeeded, summary.Total())
}

func formatList() string {
	formats := engine.Formats()
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, fmt.Sprintf("%s (%s)", f, f.Kind()))
	}
	return strings.Join(names, ", ")
}

// progressPrinter renders pipeline events as status lines. Progress is
// sampled in 25% buckets per item.
type progressPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
	sampler  *logging.ProgressSampler
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{
		out:      out,
		colorize: shouldColorize(out),
		sampler:  logging.NewProgressSampler(25),
	}
}

func (p *progressPrinter) handle(ev pipeline.Event) {
	if ev.Type != pipeline.EventItemUpdated || ev.Item == nil {
		return
	}
	item := ev.Item
	key := item.ID.String()

	p.mu.Lock()
	defer p.mu.Unlock()
	switch item.Status {
	case queue.StatusConverting:
		percent := item.Progress * 100
		if !p.sampler.ShouldLog(key, percent) {
			return
		}
		fmt.Fprintln(p.out, renderStatusLine(item.Title, statusInfo, fmt.Sprintf("%3.0f%%", percent), p.colorize))
	case queue.StatusCompleted:
		p.sampler.Forget(key)
		fmt.Fprintln(p.out, renderStatusLine(item.Title, statusOK, humanize.Bytes(uint64(len(item.Output))), p.colorize))
	case queue.StatusFailed:
		p.sampler.Forget(key)
		fmt.Fprintln(p.out, renderStatusLine(item.Title, statusError, item.ErrorMessage, p.colorize))
	}
}
