// Command analyze runs one roof or construction analysis against a still image and prints the report.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"propintel-console/internal/config"
	"propintel-console/pkg/analysis"
	"propintel-console/pkg/capture"
	"propintel-console/pkg/report"

	"github.com/fatih/color"
)

func main() {
	kindFlag := flag.String("kind", "roof", "analysis kind: roof or construction")
	imagePath := flag.String("image", "", "PNG or JPEG to analyze")
	regionFlag := flag.String("region", "", "crop region as x,y,width,height in image pixels (default: whole image)")
	baseURL := flag.String("base-url", "", "analysis service base URL (default: from environment)")
	token := flag.String("token", "", "analysis service token (default: from environment)")
	download := flag.String("download", "", "directory to save the construction report into")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}
	if err := run(*kindFlag, *imagePath, *regionFlag, *baseURL, *token, *download, !*noColor); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func run(kindFlag, imagePath, regionFlag, baseURL, token, download string, colored bool) error {
	kind, err := analysis.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	if imagePath == "" {
		return fmt.Errorf("-image is required")
	}

	cfg := config.Load()
	endpoint := cfg.Analysis.Roof
	if kind == analysis.KindConstruction {
		endpoint = cfg.Analysis.Construction
	}
	if baseURL != "" {
		endpoint.BaseURL = baseURL
	}
	if token != "" {
		endpoint.Token = token
	}

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return err
	}
	frames := capture.NewFrameStore()
	if err := frames.Put(base64.StdEncoding.EncodeToString(raw), 0, 0); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frame, err := frames.Frame(ctx)
	if err != nil {
		return err
	}
	region := capture.CaptureRegion{Width: frame.Width, Height: frame.Height}
	if regionFlag != "" {
		if region, err = parseRegion(regionFlag); err != nil {
			return err
		}
	}

	client := analysis.NewClient(kind, analysis.ServiceConfig{BaseURL: endpoint.BaseURL, Token: endpoint.Token},
		&http.Client{Timeout: cfg.Analysis.HTTPTimeout})
	tracker := analysis.NewTracker(client, analysis.TrackerConfig{
		PollInterval: cfg.Analysis.PollInterval,
		PollTimeout:  cfg.Analysis.PollTimeout,
	}, progressPrinter())

	color.Cyan("Analyzing %s (%s)", filepath.Base(imagePath), kind)
	raster := capture.NewFrameRasterizer(frames)
	tracker.Run(ctx, func(ctx context.Context) (string, error) {
		return raster.Rasterize(ctx, region)
	})
	tracker.Wait()

	snap := tracker.Snapshot()
	if snap.Phase != analysis.PhaseCompleted {
		if snap.Error != "" {
			return fmt.Errorf("%s", snap.Error)
		}
		return fmt.Errorf("analysis stopped while %s", snap.Phase)
	}

	rep, err := report.Render(kind, snap.Result)
	if err != nil {
		return err
	}
	if rep == nil {
		color.Yellow("Analysis completed without a result")
	} else if err := report.WriteText(os.Stdout, rep, colored); err != nil {
		return err
	}

	if download != "" && kind == analysis.KindConstruction {
		file, err := client.DownloadReport(ctx, snap.ID)
		if err != nil {
			return err
		}
		path := filepath.Join(download, file.Filename)
		if err := os.WriteFile(path, file.Data, 0o644); err != nil {
			return err
		}
		color.Green("Report saved to %s", path)
	}
	return nil
}

// progressPrinter prints a line whenever the phase, stage or progress changes.
func progressPrinter() analysis.Listener {
	var last string
	return func(s analysis.Snapshot) {
		line := fmt.Sprintf("[%s] %3d%% %s", s.Phase, s.Progress, firstNonEmpty(s.Stage, s.Message))
		if line == last {
			return
		}
		last = line
		fmt.Fprintln(os.Stderr, line)
	}
}

func parseRegion(s string) (capture.CaptureRegion, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return capture.CaptureRegion{}, fmt.Errorf("region must be x,y,width,height")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return capture.CaptureRegion{}, fmt.Errorf("invalid region value %q", p)
		}
		v[i] = f
	}
	if v[2] <= 0 || v[3] <= 0 {
		return capture.CaptureRegion{}, fmt.Errorf("region width and height must be positive")
	}
	return capture.CaptureRegion{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
