package main

import (
	"github.com/urfave/cli/v2"
)

const (
	globalVerbose  = "verbose"
	globalMetrics  = "metrics"
	globalManifest = "manifest"
)

var globalFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:  globalVerbose,
		Usage: "Log every lowering pass and resume to stderr.",
	},
	&cli.BoolFlag{
		Name:  globalMetrics,
		Usage: "Write metrics in Prometheus text format to stderr on exit.",
	},
	&cli.StringFlag{
		Name:  globalManifest,
		Usage: "Path to a YAML host manifest listing wasm modules to load as host functions.",
	},
}

const (
	funcName   = "func"
	lowerPass  = "passes"
	runArgs    = "arg"
	runSend    = "send"
	runLimit   = "limit"
	runNoColor = "no-color"
)

var (
	funcFlag = &cli.StringFlag{
		Name:    funcName,
		Aliases: []string{"f"},
		Usage:   "Function to use. May be omitted when the source defines exactly one.",
	}
	argsFlag = &cli.StringSliceFlag{
		Name:    runArgs,
		Aliases: []string{"a"},
		Usage: "Constructor argument, in declaration order. Numbers, true/false and nil are " +
			"read as literals; anything else is a string. Trailing parameters use their defaults.",
	}

	lowerFlags = []cli.Flag{
		funcFlag,
		&cli.BoolFlag{
			Name:  lowerPass,
			Usage: "Print the body after every lowering pass.",
		},
	}

	runFlags = []cli.Flag{
		funcFlag,
		argsFlag,
		&cli.StringSliceFlag{
			Name:  runSend,
			Usage: "Resume argument for the second and later calls, in order. Values are read like --arg.",
		},
		&cli.IntFlag{
			Name:  runLimit,
			Value: 1000,
			Usage: "Stop after this many produced values. 0 means no limit.",
		},
		&cli.BoolFlag{
			Name:  runNoColor,
			Usage: "Disable colored output even on a terminal.",
		},
	}

	stepFlags = []cli.Flag{
		funcFlag,
		argsFlag,
	}
)

func mergeFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, f := range flags {
		result = append(result, f...)
	}
	return result
}
