package main

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/panoslice/panoslice/carousel"
	"github.com/panoslice/panoslice/geometry"
	"github.com/panoslice/panoslice/grade"
)

// selectiveDeltaLimit caps the per-band deltas accepted on the command line.
const selectiveDeltaLimit = 100

// parseSelective parses repeated --selective flags of the form
// "band=saturation[,luminance]", e.g. "yellow=20" or "blue=-10,15".
func parseSelective(specs []string) ([]grade.SelectiveAdjustment, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	adjs := make([]grade.SelectiveAdjustment, 0, len(specs))
	for _, spec := range specs {
		name, deltas, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("selective %q: want band=saturation[,luminance]", spec)
		}
		band, err := grade.ParseBand(strings.TrimSpace(strings.ToLower(name)))
		if err != nil {
			return nil, fmt.Errorf("selective %q: %w", spec, err)
		}
		adj := grade.SelectiveAdjustment{Band: band}
		parts := strings.Split(deltas, ",")
		if len(parts) > 2 {
			return nil, fmt.Errorf("selective %q: want at most two deltas", spec)
		}
		adj.Saturation, err = parseDelta(parts[0])
		if err != nil {
			return nil, fmt.Errorf("selective %q: %w", spec, err)
		}
		if len(parts) == 2 {
			adj.Luminance, err = parseDelta(parts[1])
			if err != nil {
				return nil, fmt.Errorf("selective %q: %w", spec, err)
			}
		}
		adjs = append(adjs, adj)
	}
	return adjs, nil
}

func parseDelta(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("bad delta %q", s)
	}
	if v < -selectiveDeltaLimit || v > selectiveDeltaLimit {
		return 0, fmt.Errorf("delta %v out of range -%d..%d", v, selectiveDeltaLimit, selectiveDeltaLimit)
	}
	return v, nil
}

// parseCrop parses a --crop flag of the form "x,y,w,h" in pixels of the
// rotated image. An empty flag selects the full frame.
func parseCrop(spec string, width, height int) (geometry.Rect, error) {
	if spec == "" {
		return geometry.Rect{W: float64(width), H: float64(height)}, nil
	}
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return geometry.Rect{}, fmt.Errorf("crop %q: want x,y,w,h", spec)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("crop %q: bad value %q", spec, p)
		}
		vals[i] = v
	}
	return geometry.Rect{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
}

// resolveBlockColor parses a --block-color hex string like "#101010".
// An empty flag keeps the engine's white default.
func resolveBlockColor(spec string) (color.NRGBA, error) {
	if spec == "" {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}, nil
	}
	c, err := colorful.Hex(spec)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("block color %q: %w", spec, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// parseFormat maps a --panel-format name to its encoder.
func parseFormat(name string) (carousel.Format, error) {
	switch strings.ToLower(name) {
	case "jpeg", "jpg":
		return carousel.FormatJPEG, nil
	case "png":
		return carousel.FormatPNG, nil
	case "webp":
		return carousel.FormatWebP, nil
	}
	return 0, fmt.Errorf("unknown panel format %q", name)
}
