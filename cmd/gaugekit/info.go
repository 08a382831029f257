package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/seenimoa/gaugekit/internal/config"
	"github.com/seenimoa/gaugekit/internal/raster"
	"github.com/seenimoa/gaugekit/internal/theme"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	keyStyle   = lipgloss.NewStyle().Width(26)
)

// --- Theme Command ---

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Print the resolved theme for a mode",
	Long: `Print the colors a gauge is drawn with: the built-in table for the mode
with theme.light or theme.dark from the config laid over it.

Examples:
  gaugekit theme --mode dark
  gaugekit theme --host-page site/index.html --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := resolveMode(cmd)
		if err != nil {
			return err
		}
		resolved := theme.Resolve(mode.IsDark(), cfg.Theme.Overrides())

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Mode  string         `json:"mode"`
				Theme theme.Resolved `json:"theme"`
			}{mode.String(), resolved})
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("Theme (%s)", mode)))
		rows := []struct{ name, color string }{
			{"background", resolved.Background},
			{"tick_color", resolved.TickColor},
			{"needle_color", resolved.NeedleColor},
			{"needle_center", resolved.NeedleCenter},
			{"text_outline", resolved.TextOutline},
			{"value_text_color", resolved.ValueTextColor},
		}
		for _, r := range rows {
			fmt.Printf("  %s %s %s\n", keyStyle.Render(r.name), swatch(r.color), r.color)
		}
		return nil
	},
}

func init() {
	themeCmd.Flags().Bool("json", false, "print as JSON")
	addModeFlags(themeCmd)
}

// swatch draws a two-cell block in color, or "??" when it does not parse.
func swatch(color string) string {
	c, err := raster.ParseColor(color)
	if err != nil {
		return "??"
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Render("  ")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and where each setting comes from",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  gaugekit status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		configFile, _ := cmd.Flags().GetString("config")
		if configFile == "" {
			configFile = config.ConfigFilePath()
		}
		if configFile == "" {
			configFile = mutedStyle.Render("none (defaults and environment)")
		}
		fmt.Printf("  Config file: %s\n", configFile)
		fmt.Printf("  API Server:  %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("  Dashboard:   %d gauges → %s\n", len(cfg.Dashboard.Gauges), cfg.Dashboard.OutputDir)
		fmt.Println()

		fmt.Println("  Settings:")
		for _, s := range config.CheckSettings(cfg) {
			source := mutedStyle.Render(string(s.Source))
			if s.Source == config.SourceEnv {
				source = okStyle.Render(fmt.Sprintf("%s (%s)", s.Source, config.EnvName(s.Key)))
			}
			fmt.Printf("    %s %-12s %s\n", keyStyle.Render(s.Key+":"), s.Value, source)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
