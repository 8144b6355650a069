// um32: a Universal Machine runtime.
//
// um32 boots a binary image ("scroll") of big-endian 32-bit words and
// runs it to completion, wiring the machine's byte console to the
// process standard streams. A clean Halt exits 0; any machine fault
// exits non-zero with a diagnostic on stderr.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cbv/um32/pkg/console"
	"github.com/cbv/um32/pkg/image"
	"github.com/cbv/um32/pkg/um"
)

// Version information
var (
	Version   = "0.1.0"
	GitCommit = "dev"
)

// Configuration flags
var (
	configPath  = flag.String("config", "", "Path to an um32.toml config file")
	maxSteps    = flag.Uint64("max-steps", 0, "Abort after this many instructions (0 = unlimited)")
	trace       = flag.Bool("trace", false, "Log every instruction before it executes")
	verbose     = flag.Bool("verbose", false, "Log boot image details and execution stats")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <image>\n\nFlags:\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("um32 %s (%s)\n", Version, GitCommit)
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	log.SetFlags(0)
	log.SetPrefix("um32: ")

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	// Explicit flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-steps":
			cfg.Machine.MaxSteps = *maxSteps
		case "trace":
			cfg.Machine.Trace = *trace
		}
	})

	path := flag.Arg(0)
	words, err := image.Load(path)
	if err != nil {
		log.Fatalf("load %s: %v", path, err)
	}
	if *verbose {
		log.Printf("loaded %s: %d words, fingerprint %s", path, len(words), image.Fingerprint(words))
	}

	con := console.Stdio()
	opts := um.Opts{
		Console:  con,
		MaxSteps: cfg.Machine.MaxSteps,
	}
	if cfg.Machine.Trace {
		opts.OnStep = func(pc uint32, ins um.Instruction) {
			fmt.Fprintf(os.Stderr, "%08x  %s\n", pc, ins)
		}
	}

	m := um.New(words, opts)
	runErr := m.Run()

	// Output produced before the faulting instruction still belongs to
	// the program; drain it before reporting.
	if err := con.Flush(); err != nil {
		log.Printf("flush output: %v", err)
	}

	if runErr != nil {
		log.Fatalf("fault after %d instructions: %v", m.Steps(), runErr)
	}
	if *verbose {
		log.Printf("halted after %d instructions", m.Steps())
	}
}
