package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"PerfDash/internal/di"
	"PerfDash/internal/usecase"
	"PerfDash/pkg/logger"
	xutil "PerfDash/pkg/util"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [TICKER...]",
	Short: "Run one analysis cycle and print the metrics table",
	Example: `  perfdash analyze AAPL MSFT
  perfdash analyze NDX --start 2020-01-01 --end 2022-12-31 --out ./charts`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("start", "", "start date (YYYY-MM-DD), defaults to the configured range")
	analyzeCmd.Flags().String("end", "", "end date (YYYY-MM-DD), defaults to the configured range")
	analyzeCmd.Flags().String("out", "", "directory to write chart PNGs into")
	analyzeCmd.Flags().String("style", "auto", "glamour style (auto, dark, light, notty)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	// Keep the terminal for the table unless logs go to a file.
	if cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}
	h, err := di.InitializeHeadless(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	dash := h.Dashboard

	dash.SetInstruments(args)
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	if err := applyRange(dash, start, end); err != nil {
		return err
	}

	view, err := dash.AnalyzeAndWait(cmd.Context())
	if err != nil {
		return err
	}
	if view.Error != nil {
		return fmt.Errorf("%s (%s)", view.Error.Notice, view.Error.Kind)
	}

	style, _ := cmd.Flags().GetString("style")
	out, err := renderMarkdown(summaryMarkdown(view), style)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)

	dir, _ := cmd.Flags().GetString("out")
	if dir == "" {
		return nil
	}
	return writeCharts(h, view, dir)
}

// applyRange moves the selection to the requested dates. The order of the two
// setters matters when the new range does not overlap the current one.
func applyRange(dash *usecase.DashboardController, start, end string) error {
	var (
		s, e       time.Time
		setS, setE bool
	)
	if start != "" {
		t, ok := xutil.ParseDate(start)
		if !ok {
			return fmt.Errorf("invalid --start %q", start)
		}
		s, setS = t, true
	}
	if end != "" {
		t, ok := xutil.ParseDate(end)
		if !ok {
			return fmt.Errorf("invalid --end %q", end)
		}
		e, setE = t, true
	}

	if setS && s.After(dash.Selection().End) {
		if setE {
			if _, err := dash.SetEndDate(e); err != nil {
				return err
			}
			setE = false
		}
	}
	if setS {
		if _, err := dash.SetStartDate(s); err != nil {
			return err
		}
	}
	if setE {
		if _, err := dash.SetEndDate(e); err != nil {
			return err
		}
	}
	return nil
}

func summaryMarkdown(v usecase.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.Join(v.Selection.Instruments, ", "))
	fmt.Fprintf(&b, "%s to %s\n\n", v.Selection.StartDate, v.Selection.EndDate)
	if v.Metrics != nil {
		b.WriteString(v.Metrics.Markdown())
	}
	if v.Heatmap == nil {
		b.WriteString("\n_Correlation heatmap unavailable._\n")
	}
	return b.String()
}

func renderMarkdown(md, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	return r.Render(md)
}

// writeCharts stores the three charts of a ready view under dir.
func writeCharts(h *di.Headless, v usecase.View, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	files := map[string][]byte{}
	if v.Performance != nil {
		b, err := h.Renderer.PerformancePNG(*v.Performance)
		if err != nil {
			return fmt.Errorf("performance chart: %w", err)
		}
		files["performance.png"] = b
	}
	if v.Sharpe != nil {
		b, err := h.Renderer.SharpePNG(*v.Sharpe)
		if err != nil {
			return fmt.Errorf("sharpe chart: %w", err)
		}
		files["sharpe.png"] = b
	}
	if png, ok := h.Dashboard.HeatmapPNG(); ok {
		files["heatmap.png"] = png
	}

	for name, b := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		h.Logger.Info("chart written", logger.String("path", path), logger.Int("bytes", len(b)))
	}
	return nil
}
