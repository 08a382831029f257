package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/gaugekit/api"
	"github.com/seenimoa/gaugekit/internal/ambient"
	"github.com/seenimoa/gaugekit/internal/config"
	"github.com/seenimoa/gaugekit/internal/preview"
	"github.com/seenimoa/gaugekit/internal/raster"
)

// cacheSweep is how often expired renders are dropped.
const cacheSweep = time.Minute

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server with the demo page at /.

The server keeps one ambient mode of its own, fed by ambient.host_page
(reloaded whenever the file changes) and ambient.prefers_dark (reloaded
with the config file). Websocket clients get a mode message when it flips.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := api.NewServer(cfg, logger)
		if err != nil {
			return err
		}
		defer srv.Close()
		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			srv.SetServeUI(false)
		}

		// Reload the config file in place when there is one.
		configFile, _ := cmd.Flags().GetString("config")
		if configFile == "" {
			configFile = config.ConfigFilePath()
		}
		if configFile != "" {
			if _, err := config.Watch(configFile, logger, srv.SetConfig); err != nil {
				return err
			}
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("%s gaugekit %s on http://%s\n", okStyle.Render("▶"), version, addr)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.ListenAndServe(gctx, addr)
		})
		g.Go(func() error {
			srv.Cache().Janitor(gctx, cacheSweep)
			return nil
		})
		if cfg.Ambient.HostPage != "" {
			g.Go(func() error {
				return ambient.WatchFile(gctx, cfg.Ambient.HostPage, srv.Document(), logger)
			})
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().Bool("no-ui", false, "do not serve the embedded demo page")
}

// --- Preview Command ---

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show a live gauge in the terminal",
	Long: `Show the configured gauge in the terminal. The OS preference is taken
from the terminal background; keys toggle the host page classes:

  d   add the dark class        ←  value down a tenth
  l   add the light class       →  value up a tenth
  c   clear both classes        q  quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := gaugeOptions(cmd)
		if err != nil {
			return err
		}
		// Query the terminal before tcell takes it over.
		pref := ambient.TerminalPreference()

		rr, err := raster.NewRenderer(logger)
		if err != nil {
			return err
		}
		defer rr.Close()

		screen, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		if err := screen.Init(); err != nil {
			return err
		}
		defer screen.Fini()

		p := preview.New(screen, rr, opts, pref, logger)
		defer p.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return p.Run(ctx)
	},
}

func init() {
	addGaugeFlags(previewCmd)
}
