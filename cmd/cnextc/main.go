// Command cnextc compiles .cnx sources to C/C++.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	cnext "github.com/cnext-lang/cnextc"
)

func main() {
	app := &cli.App{
		Name:  "cnextc",
		Usage: "compile C-Next sources to C/C++",
		Commands: []*cli.Command{
			compileCommand(),
			cleanCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func compileCommand() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "compile one or more .cnx entry files and everything they include",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "cpp", Usage: "emit C++ instead of C"},
			&cli.StringFlag{Name: "out", Usage: "directory to write generated .c/.cpp files"},
			&cli.StringFlag{Name: "header-out", Usage: "directory to write generated headers"},
			&cli.StringFlag{Name: "base-path", Usage: "root directory used to resolve relative includes"},
			&cli.StringSliceFlag{Name: "include", Usage: "additional include search path (repeatable)"},
			&cli.StringFlag{Name: "target", Value: "generic", Usage: "target profile (generic, cortex-m0, cortex-m3, cortex-m4, cortex-m7)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "no-synth-default", Usage: "don't synthesize a default: break; case for switches missing one"},
			&cli.BoolFlag{Name: "no-cache-strlen", Usage: "don't hoist repeated .length reads in loop/if conditions"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("compile requires at least one entry file", 1)
			}

			logger, err := newLogger(c.Bool("debug"))
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg := cnext.NewConfig()
			cfg.SetBool("codegen.cpp", c.Bool("cpp"))
			cfg.SetBool("codegen.debug", c.Bool("debug"))
			cfg.SetBool("codegen.synthesize_default_case", !c.Bool("no-synth-default"))
			cfg.SetBool("codegen.cache_strlen", !c.Bool("no-cache-strlen"))
			cfg.SetString("codegen.target", c.String("target"))
			cfg.SetString("codegen.out_dir", c.String("out"))
			cfg.SetString("codegen.header_out_dir", c.String("header-out"))
			cfg.SetString("codegen.base_path", c.String("base-path"))

			sink := cnext.NewDiagnosticSink(logger)
			fs := cnext.OSFileSystem{}
			pipe := cnext.NewPipeline(fs, cfg, sink, c.StringSlice("include")...)

			result, err := pipe.Compile(context.Background(), c.Args().Slice())
			if err != nil {
				return err
			}
			for _, d := range sink.Items() {
				fmt.Fprintln(os.Stderr, d.FormatCLI())
			}
			if sink.HasErrors() {
				return cli.Exit(fmt.Sprintf("compilation failed with %d error(s)", sink.ErrorCount()), 1)
			}
			if err := pipe.WriteAll(result); err != nil {
				return err
			}
			logger.Info("compiled", zap.Int("sources", len(result.Sources)), zap.Int("headers", len(result.Headers)))
			return nil
		},
	}
}

func cleanCommand() *cli.Command {
	return &cli.Command{
		Name:      "clean",
		Usage:     "remove generated .c/.h files under a directory (cnext:generated marker only)",
		ArgsUsage: "DIR",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("clean requires exactly one directory", 1)
			}
			return cnext.CleanGenerated(cnext.OSFileSystem{}, c.Args().First())
		},
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	return cfg.Build()
}
