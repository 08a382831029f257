package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/seenimoa/gaugekit/internal/ambient"
	"github.com/seenimoa/gaugekit/internal/raster"
	"github.com/seenimoa/gaugekit/internal/render"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
)

// --- Render Command ---

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one gauge as SVG or PNG",
	Long: `Render one gauge. Settings come from the gauge and theme sections of the
config; flags override them.

Examples:
  gaugekit render --value 3.2 --label CPU > cpu.svg
  gaugekit render --value 80 --max 100 --display-type value --mode dark
  gaugekit render --format png --scale 3 --out gauge.png
  gaugekit render --host-page site/index.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := gaugeOptions(cmd)
		if err != nil {
			return err
		}
		mode, err := resolveMode(cmd)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		var buf bytes.Buffer
		switch format {
		case "svg":
			buf.WriteString(render.Render(opts, mode))
		case "png":
			scale, _ := cmd.Flags().GetFloat64("scale")
			if !cmd.Flags().Changed("scale") {
				scale = cfg.Render.PNGScale
			}
			if err := raster.PNG(&buf, opts, mode, scale); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (want svg or png)", format)
		}
		logger.Debug("rendered gauge", "format", format, "mode", opts.EffectiveMode(mode).String(), "bytes", buf.Len())
		return writeOutput(out, buf.Bytes())
	},
}

func init() {
	addGaugeFlags(renderCmd)
	addModeFlags(renderCmd)
	renderCmd.Flags().String("format", "svg", "output format: svg or png")
	renderCmd.Flags().StringP("out", "o", "-", "output file (- for stdout)")
	renderCmd.Flags().Float64("scale", 2, "PNG resolution multiplier (default: render.png_scale)")
}

// addGaugeFlags registers flags mirroring the gauge and theme config.
func addGaugeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("value", 0, "gauge value")
	f.Float64("min", 0, "range minimum")
	f.Float64("max", 0, "range maximum")
	f.String("label", "", "label under the value")
	f.String("display-type", "", "value text: percentage or value")
	f.Float64("tick-interval", 0, "distance between ticks")
	f.Bool("show-ticks", true, "draw tick marks and labels")
	f.StringSlice("colors", nil, "segment colors, low to high")
	f.Float64("size", 0, "width in pixels")
	f.Float64("thickness", 0, "arc thickness in pixels")
	f.Bool("auto-detect", true, "follow the ambient mode (off forces light)")
	f.Bool("outline", true, "outline the value text")
}

func addModeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("mode", "auto", "auto, light or dark")
	f.String("host-page", "", "HTML page whose <html>/<body> classes decide auto mode (default: ambient.host_page)")
	f.Bool("follow-terminal", false, "use the terminal background as the OS preference in auto mode")
}

// gaugeOptions starts from the config and applies the flags that were set.
func gaugeOptions(cmd *cobra.Command) (render.Options, error) {
	g := cfg.Gauge
	f := cmd.Flags()

	floats := map[string]*float64{
		"value":         &g.Value,
		"min":           &g.Min,
		"max":           &g.Max,
		"tick-interval": &g.TickInterval,
		"size":          &g.Size,
		"thickness":     &g.Thickness,
	}
	for name, dst := range floats {
		if f.Changed(name) {
			*dst, _ = f.GetFloat64(name)
		}
	}
	if f.Changed("label") {
		g.Label, _ = f.GetString("label")
	}
	if f.Changed("display-type") {
		g.DisplayType, _ = f.GetString("display-type")
	}
	if f.Changed("show-ticks") {
		g.ShowTicks, _ = f.GetBool("show-ticks")
	}
	if f.Changed("colors") {
		g.Colors, _ = f.GetStringSlice("colors")
	}

	theme := cfg.Theme
	if f.Changed("auto-detect") {
		theme.AutoDetect, _ = f.GetBool("auto-detect")
	}
	if f.Changed("outline") {
		theme.ShowTextOutline, _ = f.GetBool("outline")
	}

	opts := render.Options{
		Gauge:           g.ToGauge(),
		Theme:           theme.Overrides(),
		AutoDetectTheme: theme.AutoDetect,
		ShowTextOutline: theme.ShowTextOutline,
	}
	if err := opts.Gauge.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// resolveMode returns the forced mode, or evaluates the host page and OS
// preference once for "auto".
func resolveMode(cmd *cobra.Command) (ambient.Mode, error) {
	name, _ := cmd.Flags().GetString("mode")
	if name != "auto" {
		return ambient.ParseMode(name)
	}

	doc, pref, err := ambientSources(cmd)
	if err != nil {
		return ambient.Light, err
	}
	det := ambient.NewDetector(doc, pref, ambient.WithLogger(logger))
	defer det.Dispose()
	return det.Mode(), nil
}

// ambientSources builds the host document and OS preference from flags and
// config.
func ambientSources(cmd *cobra.Command) (*ambient.Document, *ambient.Preference, error) {
	doc := ambient.NewDocument()
	hostPage, _ := cmd.Flags().GetString("host-page")
	if hostPage == "" {
		hostPage = cfg.Ambient.HostPage
	}
	if hostPage != "" {
		if err := doc.Load(hostPage); err != nil {
			return nil, nil, err
		}
	}

	pref := ambient.NewPreference(cfg.Ambient.PrefersDark)
	if follow, _ := cmd.Flags().GetBool("follow-terminal"); follow {
		pref = ambient.TerminalPreference()
	}
	return doc, pref, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", okStyle.Render("wrote"), path)
	return nil
}

// --- Dashboard Command ---

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render every gauge in dashboard.gauges into a directory",
	Long: `Render the gauges listed under dashboard.gauges concurrently. Each entry
inherits the top-level gauge section and overrides the keys it sets. The
output directory gets one SVG per gauge and an index.html showing them all.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := cfg.DashboardEntries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("no gauges configured under dashboard.gauges")
		}
		mode, err := resolveMode(cmd)
		if err != nil {
			return err
		}

		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			outDir = cfg.Dashboard.OutputDir
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", outDir, err)
		}

		batch := make([]render.Options, len(entries))
		for i, e := range entries {
			batch[i] = e.Options
		}
		svgs, err := render.RenderAll(cmd.Context(), batch, mode, cfg.Render.Concurrency)
		if err != nil {
			return err
		}

		cards := make([]dashboardCard, len(entries))
		for i, e := range entries {
			file := fileName(e.Name) + ".svg"
			if err := os.WriteFile(filepath.Join(outDir, file), []byte(svgs[i]), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", file, err)
			}
			cards[i] = dashboardCard{Name: e.Name, SVG: template.HTML(svgs[i])} //nolint:gosec // our own markup
			fmt.Printf("  %s %s\n", okStyle.Render("✓"), file)
		}

		index := filepath.Join(outDir, "index.html")
		f, err := os.Create(index)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := writeDashboardIndex(f, mode, cards); err != nil {
			return err
		}
		fmt.Printf("  %s %s\n", okStyle.Render("✓"), mutedStyle.Render(index))
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringP("out", "o", "", "output directory (default: dashboard.output_dir)")
	addModeFlags(dashboardCmd)
}

type dashboardCard struct {
	Name string
	SVG  template.HTML
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html lang="en" class="{{.Mode}}">
<head><meta charset="utf-8"><title>gaugekit dashboard</title>
<style>
body { font-family: sans-serif; display: flex; flex-wrap: wrap; gap: 1.5rem; padding: 2rem; }
html.dark body { background: #111827; color: #e5e7eb; }
figure { margin: 0; text-align: center; }
</style></head>
<body>
{{range .Cards}}<figure>{{.SVG}}<figcaption>{{.Name}}</figcaption></figure>
{{end}}</body>
</html>
`))

func writeDashboardIndex(w io.Writer, mode ambient.Mode, cards []dashboardCard) error {
	return dashboardTmpl.Execute(w, struct {
		Mode  string
		Cards []dashboardCard
	}{mode.String(), cards})
}

// fileName keeps letters, digits, dashes, dots and underscores.
func fileName(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '-'
	}, name)
	if s == "" || strings.Trim(s, ".") == "" {
		return "gauge"
	}
	return s
}
