// Command heattile renders one heat-map tile from a GeoTIFF and writes the
// encoded image to stdout.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/petchppo/heattile/internal/config"
	"github.com/petchppo/heattile/internal/raster"
	"github.com/petchppo/heattile/internal/tile"
)

// errTooFewArgs ends the process with status 1 and no output.
var errTooFewArgs = errors.New("too few arguments")

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errTooFewArgs) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var cfgFile string
	v := viper.New()
	config.SetDefaults(v)

	cmd := &cobra.Command{
		Use:   "heattile [flags] <raster> <x> <y> <z> [threshold] [operator] [min_val] [max_val]",
		Short: "Render a Web-Mercator heat-map tile from a GeoTIFF",
		Long: `heattile reprojects the part of a GeoTIFF covered by tile x/y/z onto a
256x256 Web-Mercator grid, colours it as a heat map and writes the encoded
tile to stdout.

When both min_val and max_val are given, values outside [min_val, max_val]
are dropped. The colour ramp spans min_val (default 0) to max_val (default
2500). threshold and operator are accepted and ignored.

Flags must precede the raster path; everything after it is positional, so
negative numbers need no escaping.

Examples:
  heattile dem.tif 8 5 4 > tile.png
  heattile --resampling nearest dem.tif 8 5 4 -5 gt 0 1500 > tile.png`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < minArgs {
				return errTooFewArgs
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.ReadInConfig(v, cfgFile, ".heattile")
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseArgs(args)
			if err != nil {
				return err
			}
			settings, err := config.Load(v)
			if err != nil {
				return err
			}
			log := settings.Logger(stderr)
			if used := v.ConfigFileUsed(); used != "" {
				log.Debug("using config file", "path", used)
			}

			gen := tile.NewGenerator(tile.Config{
				Encoder:    settings.Encoder,
				Resampling: settings.Resampling,
				BlockCache: settings.BlockCache,
				Logger:     log,
			})
			data, err := gen.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, err = stdout.Write(data)
			return err
		},
	}
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.SetInterspersed(false)
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.heattile.yaml)")
	flags.String(config.KeyResampling, "bilinear", "resampling method (bilinear|nearest)")
	flags.StringP(config.KeyFormat, "f", "png", "tile format (png|webp)")
	flags.String(config.KeyLogLevel, "info", "log level (debug|info|warn|error)")
	flags.String(config.KeyLogFormat, "text", "log format (text|json)")
	flags.Int(config.KeyBlockCache, raster.DefaultBlockCache, "decoded raster blocks kept in memory")

	if err := bindFlags(v, flags, config.KeyResampling, config.KeyFormat, config.KeyLogLevel, config.KeyLogFormat, config.KeyBlockCache); err != nil {
		panic(err)
	}
	return cmd
}

// bindFlags binds each key to the flag of the same name.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys ...string) error {
	for _, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return fmt.Errorf("binding flag %q: %w", key, err)
		}
	}
	return nil
}
