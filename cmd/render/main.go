// Command render writes the map document and a static Leaflet page to a
// directory, for hosting the map without the API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/samirrijal/districtmap/internal/bootstrap"
	"github.com/samirrijal/districtmap/internal/core/usecases"
	"github.com/samirrijal/districtmap/internal/pkg/config"
	"github.com/samirrijal/districtmap/internal/pkg/logging"
	"github.com/samirrijal/districtmap/internal/pkg/mappage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var rootCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the district transit map to static files",
	Long: `Render loads the configured datasets, runs the full render pipeline
and writes map.json and index.html to the output directory.`,
	SilenceUsage: true,
	RunE:         runRender,
}

func init() {
	rootCmd.Flags().StringP("out", "o", "dist", "output directory")
	rootCmd.Flags().String("title", "", "page title")
	rootCmd.Flags().Duration("timeout", 2*time.Minute, "render timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRender(cmd *cobra.Command, _ []string) error {
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	title, err := cmd.Flags().GetString("title")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	cfg, err := config.Load("districtmap-render")
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, "districtmap-render")

	if cfg.Datasets.Source == config.SourcePostgres {
		return fmt.Errorf("render reads datasets from files or http, not %q", cfg.Datasets.Source)
	}
	source, err := bootstrap.DatasetSource(cfg, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	doc, err := usecases.NewRenderSession(source, bootstrap.RenderOptions(cfg)).Run(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode map: %w", err)
	}
	if err := os.WriteFile(filepath.Join(out, "map.json"), data, 0o644); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(out, "index.html"))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := mappage.Render(f, mappage.Options{Title: title, DataURL: "map.json"}); err != nil {
		return fmt.Errorf("write page: %w", err)
	}

	slog.Info("map rendered", "out", out, "layers", len(doc.Layers))
	return nil
}
