// Command hygro reads the serial temperature/humidity sensor and keeps a
// textfile-collector snapshot of its latest reading.
//
//	hygro [flags] [SERIAL] [OUTPUT]
//
// SERIAL is a serial device, a capture file to replay, "auto" to detect a USB
// sensor, or "-" for stdin (the default). OUTPUT is the file rewritten on
// every reading, or "-" for stdout (the default).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/hygro.report/internal/config"
	"github.com/banshee-data/hygro.report/internal/exporter"
	"github.com/banshee-data/hygro.report/internal/fsutil"
	"github.com/banshee-data/hygro.report/internal/sensorport"
	"github.com/banshee-data/hygro.report/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON or YAML config file (optional)")
	baudRate    = flag.Int("baud", sensorport.DefaultBaudRate, "Serial baud rate")
	readTimeout = flag.Duration("read-timeout", sensorport.DefaultReadTimeout, "Per-read serial timeout")
	replayDelay = flag.Duration("replay-delay", sensorport.DefaultReplayDelay, "Delay between lines when replaying a capture file")
	listPorts   = flag.Bool("list-ports", false, "List serial ports that could hold the sensor and exit")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [SERIAL] [OUTPUT]\n\n", os.Args[0])
	fmt.Fprintf(flag.CommandLine.Output(), "SERIAL defaults to stdin (-), OUTPUT to stdout (-).\n\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *listPorts {
		candidates, err := sensorport.Candidates()
		if err != nil {
			log.Fatalf("failed to list serial ports: %v", err)
		}
		for _, c := range candidates {
			fmt.Println(c)
		}
		return
	}

	input, output, err := positional(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath, explicitFlags())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, input, output); err != nil {
		stop()
		log.Fatalf("hygro: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

// positional returns the SERIAL and OUTPUT arguments with their defaults.
func positional(args []string) (string, string, error) {
	input, output := sensorport.StdinPath, fsutil.StdoutPath
	switch len(args) {
	case 0:
	case 1:
		input = args[0]
	case 2:
		input, output = args[0], args[1]
	default:
		return "", "", fmt.Errorf("expected at most 2 arguments, got %d", len(args))
	}
	return input, output, nil
}

func explicitFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// loadConfig reads the optional config file and applies any flags the user set
// on the command line, which take precedence over the file.
func loadConfig(path string, set map[string]bool) (*config.Config, error) {
	cfg := config.EmptyConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if set["baud"] {
		cfg.SetBaudRate(*baudRate)
	}
	if set["read-timeout"] {
		cfg.SetReadTimeout(*readTimeout)
	}
	if set["replay-delay"] {
		cfg.SetReplayDelay(*replayDelay)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, input, output string) error {
	src, err := sensorport.Open(input, sensorport.OpenOptions{
		Port:        cfg.PortOptions(),
		ReplayDelay: cfg.GetReplayDelay(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Printf("failed to close source %s: %v", input, err)
		}
	}()

	dst, err := fsutil.OpenDestination(output)
	if err != nil {
		return err
	}
	defer func() {
		if err := dst.Close(); err != nil {
			log.Printf("failed to close destination %s: %v", output, err)
		}
	}()

	log.Printf("hygro %s reading %s, writing %s", version.Version, input, output)
	start := time.Now()
	stats, err := exporter.Run(ctx, src, dst, exporter.Options{
		Table:       cfg.FieldTable(),
		ResetBanner: cfg.GetResetBanner(),
	})
	log.Printf("published %d records (%d resets, %d partially parsed) in %v",
		stats.Published, stats.Resets, stats.Unparsed, time.Since(start).Round(time.Millisecond))
	return err
}
