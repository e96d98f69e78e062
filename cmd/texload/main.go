// Command texload streams every image in a directory into GPU textures.
//
// It requests all images asynchronously, runs a frame loop that services the
// upload queue, prints what was loaded and then tears everything down again.
//
//	texload -dir assets -workers 4 -frames 120
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/gogpu/texstream"
	"github.com/gogpu/texstream/backend"
	_ "github.com/gogpu/texstream/backend/headless"
	_ "github.com/gogpu/texstream/backend/native"
	"github.com/gogpu/texstream/gpucore"
)

func main() {
	var (
		dir        = flag.String("dir", "", "asset directory (overrides asset_root from -config)")
		workers    = flag.Int("workers", -1, "decode workers, 0 for GOMAXPROCS (overrides -config)")
		configPath = flag.String("config", "", "TOML config file")
		frames     = flag.Int("frames", 60, "frames to run before tearing down")
		device     = flag.String("backend", backend.BackendHeadless, fmt.Sprintf("GPU backend %v", backend.Available()))
		nearest    = flag.Bool("nearest", false, "use nearest filtering instead of linear")
		watch      = flag.Bool("watch", false, "keep running and reload on file changes (overrides -config)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg := &texstream.Config{}
	if *configPath != "" {
		var err error
		if cfg, err = texstream.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *dir != "" {
		cfg.AssetRoot = *dir
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	if *watch {
		cfg.Watch = true
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if cfg.AssetRoot == "" {
		cfg.AssetRoot = "."
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	dev, err := backend.Open(*device)
	if err != nil {
		log.Fatalf("Failed to open backend: %v", err)
	}
	defer dev.Close()

	sys := texstream.New(dev, cfg.Options()...)
	defer sys.Close()

	quality := gpucore.QualityLinear
	if *nearest {
		quality = gpucore.QualityNearest
	}

	names, err := imageNames(sys, cfg.AssetRoot)
	if err != nil {
		log.Fatalf("Failed to list %s: %v", cfg.AssetRoot, err)
	}
	if len(names) == 0 {
		log.Printf("No supported images in %s (looking for %s)", cfg.AssetRoot, strings.Join(sys.Extensions(), " "))
		return
	}

	start := time.Now()
	pending := make([]*texstream.Pending, len(names))
	for i, name := range names {
		pending[i] = sys.RequestTextureAsync(name, quality)
	}

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	frame := 0
	for ; frame < *frames && !allReady(pending); frame++ {
		<-ticker.C
		sys.ServicePendingUploads()
		sys.ReclaimDestroyed()
	}
	log.Printf("%d/%d requests resolved after %d frames (%v)",
		countReady(pending), len(pending), frame, time.Since(start).Round(time.Millisecond))

	for _, p := range pending {
		tex, ok := p.Texture()
		switch {
		case !ok:
			fmt.Printf("%-40s still loading\n", p.Name())
		case p.Err() != nil:
			fmt.Printf("%-40s error: %v\n", p.Name(), p.Err())
		default:
			u, v := tex.UV()
			fmt.Printf("%-40s %v uv=(%.3f, %.3f)\n", p.Name(), tex, u, v)
		}
	}
	printStats(sys.Stats())

	if cfg.Watch {
		runWatch(sys, cfg.AssetRoot, quality, ticker)
	}

	sys.InvalidateAll()
	n := sys.ReclaimDestroyed()
	log.Printf("Released %d textures", n)
	printStats(sys.Stats())
}

// imageNames lists the files in dir the system can decode.
func imageNames(sys *texstream.System, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && sys.Supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// runWatch services frames until interrupted, reloading on file changes.
func runWatch(sys *texstream.System, dir string, quality gpucore.Quality, ticker *time.Ticker) {
	w, err := texstream.NewWatcher(sys, dir)
	if err != nil {
		log.Fatalf("Failed to watch %s: %v", dir, err)
	}
	defer w.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	log.Printf("Watching %s for changes, press Ctrl+C to stop", dir)
	last := sys.Stats().Invalidations
	for {
		select {
		case <-interrupt:
			return
		case <-ticker.C:
			sys.ServicePendingUploads()
			sys.ReclaimDestroyed()
			s := sys.Stats()
			if s.Invalidations == last {
				continue
			}
			last = s.Invalidations
			names, err := imageNames(sys, dir)
			if err != nil {
				log.Printf("Failed to list %s: %v", dir, err)
				continue
			}
			for _, name := range names {
				sys.RequestTextureAsync(name, quality)
			}
			log.Printf("Assets changed, reloading %d images (%d textures released so far)", len(names), s.Destroyed)
		}
	}
}

func allReady(ps []*texstream.Pending) bool {
	return countReady(ps) == len(ps)
}

func countReady(ps []*texstream.Pending) int {
	n := 0
	for _, p := range ps {
		if p.Ready() {
			n++
		}
	}
	return n
}

func printStats(s texstream.Stats) {
	fmt.Printf("cached=%d hits=%d misses=%d uploaded=%d failed=%d queued=%d orphans=%d pending-destroy=%d destroyed=%d workers=%d\n",
		s.Cached, s.Hits, s.Misses, s.Uploaded, s.DecodeFailures, s.QueuedUploads,
		s.Orphans, s.PendingDestroy, s.Destroyed, s.Workers)
}
