// Command replay applies a scripted editing session to an image and writes the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"imgedit/internal/compositor"
	"imgedit/internal/image"
	"imgedit/internal/session"
	"imgedit/internal/version"
)

func main() {
	imagePath := flag.String("image", "", "Path to the base image (PNG, JPEG, GIF, TIFF, BMP or WebP)")
	scriptPath := flag.String("script", "", "Path to the YAML session script")
	outPath := flag.String("out", image.DefaultExportName, "Output PNG path")
	backend := flag.String("backend", "", "Compositor backend: "+strings.Join(compositor.Names(), "|")+" (overrides the script)")
	svgPath := flag.String("svg", "", "Also write the session as SVG to this path")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *imagePath == "" || *scriptPath == "" {
		fmt.Println("Usage: replay -image <path> -script <session.yaml> [-out out.png] [-backend raster|vector] [-svg out.svg]")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	base, err := image.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %s image: %dx%d pixels\n", base.Format, base.Width(), base.Height())

	script, err := session.Load(*scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load script: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		script.Backend = *backend
	}
	fmt.Printf("Script: %d events, viewport %.0fx%.0f\n",
		len(script.Steps), script.Viewport.Width, script.Viewport.Height)

	state, err := session.Replay(ctx, script, base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Replay failed: %v\n", err)
		os.Exit(1)
	}
	v := state.View()
	fmt.Printf("Final view: %d%% offset (%.1f, %.1f)\n", v.Percent(), v.OffsetX, v.OffsetY)

	if err := state.Export(ctx, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%s backend)\n", *outPath, state.Backend())

	if *svgPath != "" {
		if err := state.ExportSVG(*svgPath); err != nil {
			fmt.Fprintf(os.Stderr, "SVG export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *svgPath)
	}
}
