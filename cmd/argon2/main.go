package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	argon2engine "github.com/wippyai/argon2-engine"
	"github.com/wippyai/argon2-engine/backend"
	"github.com/wippyai/argon2-engine/engine"
	"github.com/wippyai/argon2-engine/hasher"
	"github.com/wippyai/argon2-engine/loader"
)

func main() {
	app := &cli.App{
		Name:  "argon2",
		Usage: "hash and verify passwords with the wasm Argon2 engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "primary-wasm",
				Usage: "path or URL of the SIMD engine build",
			},
			&cli.StringFlag{
				Name:  "primary-shim",
				Usage: "path or URL of the env shim for the SIMD build",
			},
			&cli.StringFlag{
				Name:  "fallback-wasm",
				Usage: "path or URL of the portable engine build",
			},
			&cli.BoolFlag{
				Name:  "no-threads",
				Usage: "disable the threads feature even when supported",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log engine lifecycle events",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			hashCommand(),
			verifyCommand(),
			interactiveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup wires logging and the process-wide hasher from global flags.
func setup(c *cli.Context) error {
	if c.Bool("verbose") {
		log, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		hasher.SetLogger(log.Named("hasher"))
		loader.SetLogger(log.Named("loader"))
		engine.SetLogger(log.Named("engine"))
	}

	hasher.Configure(
		hasher.WithLocators(backend.Locators{
			PrimaryBinary:  backend.Locator{Source: c.String("primary-wasm")},
			PrimaryShim:    backend.Locator{Source: c.String("primary-shim")},
			FallbackBinary: backend.Locator{Source: c.String("fallback-wasm")},
		}),
		hasher.WithThreads(!c.Bool("no-threads")),
	)
	return nil
}

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "hash one or more passwords",
		ArgsUsage: "<password> [password ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "salt",
				Aliases:  []string{"s"},
				Usage:    "salt bytes (at least 8)",
				Required: true,
			},
			&cli.UintFlag{
				Name:    "time",
				Aliases: []string{"t"},
				Usage:   "iteration count",
				Value:   uint(argon2engine.DefaultTimeCost),
			},
			&cli.UintFlag{
				Name:    "memory",
				Aliases: []string{"m"},
				Usage:   "memory cost in KiB",
				Value:   uint(argon2engine.DefaultMemoryCostKiB),
			},
			&cli.UintFlag{
				Name:    "parallelism",
				Aliases: []string{"p"},
				Usage:   "lane count",
				Value:   uint(argon2engine.DefaultParallelism),
			},
			&cli.UintFlag{
				Name:    "length",
				Aliases: []string{"l"},
				Usage:   "hash output length in bytes",
				Value:   uint(argon2engine.DefaultHashLength),
			},
			&cli.StringFlag{
				Name:  "variant",
				Usage: "argon2d or argon2i",
				Value: "argon2d",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "print only the hex hash",
			},
		},
		Action: runHash,
	}
}

func runHash(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no password given")
	}

	variant, err := parseVariant(c.String("variant"))
	if err != nil {
		return err
	}
	base := argon2engine.HashParams{
		Salt:          []byte(c.String("salt")),
		TimeCost:      uint32(c.Uint("time")),
		MemoryCostKiB: uint32(c.Uint("memory")),
		Parallelism:   uint32(c.Uint("parallelism")),
		HashLength:    uint32(c.Uint("length")),
		Variant:       variant,
	}

	passwords := c.Args().Slice()
	results := make([]*argon2engine.HashResult, len(passwords))

	// All goroutines funnel into the same lazily-loaded engine; the first
	// one triggers the load and the rest wait on it.
	g, ctx := errgroup.WithContext(c.Context)
	for i, pw := range passwords {
		params := base
		params.Password = []byte(pw)
		g.Go(func() error {
			res, err := hasher.Hash(ctx, params)
			if err != nil {
				return fmt.Errorf("hash %q: %w", pw, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, res := range results {
		if c.Bool("raw") {
			fmt.Println(res.HexHash)
			continue
		}
		if len(results) > 1 {
			fmt.Printf("[%d] %s\n", i, passwords[i])
		}
		fmt.Printf("Hex:     %s\n", res.HexHash)
		fmt.Printf("Encoded: %s\n", res.Encoded)
	}
	return nil
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "check a password against an encoded hash",
		ArgsUsage: "<encoded> <password>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("usage: verify <encoded> <password>")
			}
			err := hasher.Verify(c.Context, c.Args().Get(0), []byte(c.Args().Get(1)))
			if err != nil {
				return err
			}
			fmt.Println("OK")
			return nil
		},
	}
}

func interactiveCommand() *cli.Command {
	return &cli.Command{
		Name:    "interactive",
		Aliases: []string{"i"},
		Usage:   "hash interactively with a TUI",
		Action: func(c *cli.Context) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("interactive mode needs a terminal")
			}
			return runInteractive(context.Background())
		},
	}
}

func parseVariant(s string) (argon2engine.Variant, error) {
	switch strings.ToLower(s) {
	case "argon2d", "d":
		return argon2engine.TypeD, nil
	case "argon2i", "i":
		return argon2engine.TypeI, nil
	default:
		return 0, fmt.Errorf("unknown variant %q (want argon2d or argon2i)", s)
	}
}
