// Command zalloctrace replays a scripted allocate/resize/deallocate
// sequence against the core allocator and prints per-bucket occupancy
// once the whole trace has been replayed. It is a diagnostic aid, not a
// benchmark: it never times anything.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fengb/zee-alloc"
	"github.com/fengb/zee-alloc/backing"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "zalloctrace",
		Usage: "replay an allocation trace against zee-alloc and report bucket occupancy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "trace",
				Usage: "path to a JSON trace file; defaults to stdin",
			},
			&cli.UintFlag{
				Name:  "page-size",
				Value: uint(zeealloc.DefaultPageSize),
				Usage: "bucket page size in bytes",
			},
			&cli.StringFlag{
				Name:  "free-strategy",
				Value: "compact",
				Usage: "compact or fast",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log every allocator call instead of just the final report",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// step is one element of a trace file's top-level JSON array.
type step struct {
	Op    string  `json:"op"`
	ID    string  `json:"id"`
	Size  uintptr `json:"size"`
	Align uintptr `json:"align"`
}

func run(c *cli.Context) error {
	strategy := zeealloc.FreeCompact
	if c.String("free-strategy") == "fast" {
		strategy = zeealloc.FreeFast
	}

	validation := zeealloc.ValidationExternal
	if c.Bool("verbose") {
		validation = zeealloc.ValidationDev
	}

	alloc, err := zeealloc.NewAllocator(
		backing.NewMmapProvider(),
		zeealloc.WithPageSize(uintptr(c.Uint("page-size"))),
		zeealloc.WithFreeStrategy(strategy),
		zeealloc.WithValidation(validation),
	)
	if err != nil {
		return fmt.Errorf("construct allocator: %w", err)
	}

	in := os.Stdin
	if path := c.String("trace"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open trace: %w", err)
		}
		defer f.Close()
		in = f
	}

	var steps []step
	if err := json.NewDecoder(in).Decode(&steps); err != nil {
		return fmt.Errorf("decode trace: %w", err)
	}

	live := make(map[string][]byte)
	log := logrus.WithField("component", "zalloctrace")

	for i, s := range steps {
		switch s.Op {
		case "allocate":
			payload, err := alloc.Allocate(s.Size, s.Align)
			if err != nil {
				return fmt.Errorf("step %d: allocate %s: %w", i, s.ID, err)
			}
			live[s.ID] = payload
			if c.Bool("verbose") {
				log.Infof("allocate %s -> %d bytes", s.ID, len(payload))
			}

		case "resize":
			payload, ok := live[s.ID]
			if !ok {
				return fmt.Errorf("step %d: resize unknown id %s", i, s.ID)
			}
			resized, err := alloc.Resize(payload, s.Size, s.Align)
			if err != nil {
				return fmt.Errorf("step %d: resize %s: %w", i, s.ID, err)
			}
			live[s.ID] = resized
			if c.Bool("verbose") {
				log.Infof("resize %s -> %d bytes", s.ID, len(resized))
			}

		case "deallocate":
			payload, ok := live[s.ID]
			if !ok {
				return fmt.Errorf("step %d: deallocate unknown id %s", i, s.ID)
			}
			alloc.Deallocate(payload)
			delete(live, s.ID)
			if c.Bool("verbose") {
				log.Infof("deallocate %s", s.ID)
			}

		default:
			return fmt.Errorf("step %d: unknown op %q", i, s.Op)
		}
	}

	printReport(alloc)
	return nil
}

func printReport(alloc *zeealloc.Allocator) {
	stats := alloc.Stats()
	fmt.Printf("bytes from backing: %d\n", stats.BytesFromBacking)
	fmt.Printf("live allocations:   %d\n", stats.LiveAllocations)
	fmt.Printf("coalesces:          %d\n", stats.TotalCoalesces)
	fmt.Println("buckets:")
	for _, b := range alloc.Describe() {
		if b.FreeCount == 0 {
			continue
		}
		fmt.Printf("  [%d] frame=%d free=%d\n", b.Index, b.FrameSize, b.FreeCount)
	}
}
