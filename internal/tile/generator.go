// Package tile renders one heat-map tile from a georeferenced raster.
package tile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/petchppo/heattile/internal/coord"
	"github.com/petchppo/heattile/internal/encode"
	"github.com/petchppo/heattile/internal/heatmap"
	"github.com/petchppo/heattile/internal/raster"
	"github.com/petchppo/heattile/internal/warp"
)

var (
	// ErrOutside reports a tile that does not intersect the raster.
	ErrOutside = errors.New("tile does not intersect raster")
	// ErrNoData reports a tile without any positive value after filtering.
	ErrNoData = errors.New("no valid data in tile")
)

// Request describes one tile to render.
type Request struct {
	Raster string
	Tile   coord.TileID

	// Threshold and Operator are accepted for compatibility and not used.
	Threshold *float64
	Operator  *string

	MinVal *float64
	MaxVal *float64
}

// Config holds tile generation configuration.
type Config struct {
	Encoder    encode.Encoder
	Resampling warp.Resampling
	BlockCache int
	Logger     *slog.Logger
}

// Generator renders tiles. It holds no per-request state.
type Generator struct {
	enc        encode.Encoder
	resampling warp.Resampling
	blockCache int
	log        *slog.Logger
}

// NewGenerator returns a Generator; zero Config fields select PNG output,
// bilinear resampling and slog.Default.
func NewGenerator(cfg Config) *Generator {
	g := &Generator{
		enc:        cfg.Encoder,
		resampling: cfg.Resampling,
		blockCache: cfg.BlockCache,
		log:        cfg.Logger,
	}
	if g.enc == nil {
		g.enc = &encode.PNGEncoder{}
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	return g
}

// Generate returns the encoded tile for req. Any failure while rendering,
// including a panic, yields the empty tile and one log record naming the
// tile. The error is non-nil only if the empty tile cannot be encoded.
func (g *Generator) Generate(ctx context.Context, req Request) ([]byte, error) {
	data, err := g.render(ctx, req)
	if err == nil {
		return data, nil
	}

	level := slog.LevelError
	if errors.Is(err, ErrOutside) || errors.Is(err, ErrNoData) {
		level = slog.LevelDebug
	}
	g.log.Log(ctx, level, "error generating tile", "tile", req.Tile.String(), "raster", req.Raster, "err", err)

	empty, eerr := encode.EmptyTile(g.enc)
	if eerr != nil {
		return nil, fmt.Errorf("encoding empty tile %s: %w", req.Tile, eerr)
	}
	return empty, nil
}

func (g *Generator) render(ctx context.Context, req Request) (data []byte, err error) {
	defer recoverPanic(&err)

	r, err := raster.Open(req.Raster, g.blockCache)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	proj, err := coord.ForEPSG(r.EPSG())
	if err != nil {
		return nil, err
	}
	tileBounds, err := coord.TransformBounds(coord.MercatorBounds(req.Tile), &coord.WebMercatorProj{}, proj, coord.BoundsDensifyPoints)
	if err != nil {
		return nil, fmt.Errorf("transforming tile bounds to EPSG:%d: %w", r.EPSG(), err)
	}
	if !coord.Overlaps(tileBounds, r.Bounds()) {
		return nil, ErrOutside
	}

	grid, err := warp.Reproject(ctx, r, req.Tile, g.resampling)
	if err != nil {
		return nil, fmt.Errorf("reprojecting: %w", err)
	}

	params := heatmap.Params{MinVal: req.MinVal, MaxVal: req.MaxVal}
	params.Filter(grid)
	valid := heatmap.CountValid(grid)
	if valid == 0 {
		return nil, ErrNoData
	}

	lo, hi := params.DisplayRange()
	data, err = g.enc.Encode(heatmap.Colorize(grid, lo, hi))
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", g.enc.Format(), err)
	}
	g.log.Debug("rendered tile", "tile", req.Tile.String(), "valid", valid, "bytes", len(data))
	return data, nil
}

// recoverPanic turns a panic in the deferring function into *err.
func recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}
