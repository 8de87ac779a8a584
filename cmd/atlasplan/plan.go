package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/shadow-atlas/internal/config"
	"github.com/Faultbox/shadow-atlas/internal/debug"
	"github.com/Faultbox/shadow-atlas/internal/logger"
	"github.com/Faultbox/shadow-atlas/internal/scene"
	"github.com/Faultbox/shadow-atlas/internal/shadow"
)

// planReport is the printable layout of one scene.
type planReport struct {
	Scene     string       `yaml:"scene"`
	Width     int          `yaml:"width"`
	Height    int          `yaml:"height"`
	Scale     int          `yaml:"scale"`
	Degraded  string       `yaml:"degraded"`
	Dropped   []string     `yaml:"dropped,omitempty"`
	Tiles     []tileReport `yaml:"tiles"`
	FreeRatio float64      `yaml:"free_ratio"`
}

type tileReport struct {
	Light     string `yaml:"light"`
	Slice     int    `yaml:"slice"`
	X         int    `yaml:"x"`
	Y         int    `yaml:"y"`
	Size      int    `yaml:"size"`
	Requested int    `yaml:"requested"`
}

func cmdPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	format := fs.String("format", "text", "Output format: text or yaml")
	workers := fs.Int("j", runtime.GOMAXPROCS(0), "Scenes planned in parallel")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: atlasplan plan [-format text|yaml] <scene.yaml>...")
	}
	if *format != "text" && *format != "yaml" {
		return fmt.Errorf("unknown format %q", *format)
	}

	reports, err := planScenes(context.Background(), cfg, fs.Args(), *workers)
	if err != nil {
		return err
	}

	if *format == "yaml" {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(reports)
	}
	for _, r := range reports {
		printReport(os.Stdout, r)
	}
	return nil
}

// planScenes allocates every scene on its own allocator, at most workers at a time.
// Reports are returned in input order.
func planScenes(ctx context.Context, cfg *config.Config, paths []string, workers int) ([]planReport, error) {
	settings := cfg.ShadowSettings()
	reports := make([]planReport, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := scene.Load(path)
			if err != nil {
				return err
			}
			alloc, err := shadow.NewAllocator(settings, shadow.WithLogger(logger.Named("shadow").With(zap.String("scene", s.Name))))
			if err != nil {
				return err
			}
			reports[i] = buildReport(s, alloc.Allocate(s.Frame()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func buildReport(s *scene.Scene, res *shadow.Result) planReport {
	r := planReport{
		Scene:    s.Name,
		Width:    res.Width,
		Height:   res.Height,
		Scale:    res.Scale,
		Degraded: res.Degraded.String(),
		Tiles:    make([]tileReport, 0, len(res.Placements)),
	}

	used := 0
	for _, p := range res.Placements {
		r.Tiles = append(r.Tiles, tileReport{
			Light:     lightName(s, p.Light),
			Slice:     p.Slice,
			X:         p.X,
			Y:         p.Y,
			Size:      p.Resolution,
			Requested: p.Requested,
		})
		used += p.Resolution * p.Resolution
	}
	for _, light := range res.Dropped {
		r.Dropped = append(r.Dropped, lightName(s, light))
	}
	if area := res.Width * res.Height; area > 0 {
		r.FreeRatio = 1 - float64(used)/float64(area)
	}
	return r
}

func lightName(s *scene.Scene, light int) string {
	if name := s.Lights[light].Name; name != "" {
		return fmt.Sprintf("%d:%s", light, name)
	}
	return fmt.Sprintf("%d", light)
}

func printReport(w io.Writer, r planReport) {
	fmt.Fprintf(w, "Scene:    %s\n", r.Scene)
	fmt.Fprintf(w, "Atlas:    %dx%d (scale 1/%d, %.1f%% free)\n", r.Width, r.Height, r.Scale, r.FreeRatio*100)
	fmt.Fprintf(w, "Degraded: %s\n", r.Degraded)
	if len(r.Dropped) > 0 {
		fmt.Fprintf(w, "Dropped:  %v\n", r.Dropped)
	}
	fmt.Fprintln(w, "Tiles:")
	for i, t := range r.Tiles {
		fmt.Fprintf(w, "  %3d  %-20s slice %d  at (%4d,%4d)  %4d/%-4d\n",
			i, t.Light, t.Slice, t.X, t.Y, t.Size, t.Requested)
	}
	fmt.Fprintln(w)
}

func cmdRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	maxEdge := fs.Int("max-edge", debug.DefaultMaxEdge, "Largest image side in pixels")
	labels := fs.Bool("labels", true, "Label tiles with light/slice")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("usage: atlasplan render <scene.yaml> <out.png>")
	}

	s, err := scene.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	alloc, err := shadow.NewAllocator(cfg.ShadowSettings())
	if err != nil {
		return err
	}
	res := alloc.Allocate(s.Frame())

	img := debug.NewAtlasRenderer(*maxEdge, *labels).Render(res)
	if err := debug.WritePNG(fs.Arg(1), img); err != nil {
		return err
	}
	logger.Info("atlas rendered",
		zap.String("scene", s.Name),
		zap.String("output", fs.Arg(1)),
		zap.Int("tiles", len(res.Placements)),
		zap.Stringer("degraded", res.Degraded))
	return nil
}
