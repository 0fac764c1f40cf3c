package main

import (
	"fmt"
	"strconv"

	"github.com/petchppo/heattile/internal/tile"
)

// minArgs is raster path, x, y and z.
const minArgs = 4

// parseArgs maps the positional arguments
//
//	<raster> <x> <y> <z> [threshold] [operator] [min_val] [max_val]
//
// onto a request. Arguments past max_val are ignored.
func parseArgs(args []string) (tile.Request, error) {
	if len(args) < minArgs {
		return tile.Request{}, fmt.Errorf("expected at least %d arguments, got %d", minArgs, len(args))
	}
	req := tile.Request{Raster: args[0]}

	var err error
	for i, dst := range []*int{&req.Tile.X, &req.Tile.Y, &req.Tile.Z} {
		if *dst, err = strconv.Atoi(args[i+1]); err != nil {
			return tile.Request{}, fmt.Errorf("parsing %s: %w", [...]string{"x", "y", "z"}[i], err)
		}
	}

	if len(args) > 4 {
		if req.Threshold, err = parseFloat("threshold", args[4]); err != nil {
			return tile.Request{}, err
		}
	}
	if len(args) > 5 {
		op := args[5]
		req.Operator = &op
	}
	if len(args) > 6 {
		if req.MinVal, err = parseFloat("min_val", args[6]); err != nil {
			return tile.Request{}, err
		}
	}
	if len(args) > 7 {
		if req.MaxVal, err = parseFloat("max_val", args[7]); err != nil {
			return tile.Request{}, err
		}
	}
	return req, nil
}

func parseFloat(name, s string) (*float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return &v, nil
}
