// Command-line entry point for the fuel cell DCL parser.
//
// Note about input formats
// ------------------------
// The parser consumes DCL controller log files: free-form text lines, each
// prefixed with a YYYY/MM/DD HH:MM:SS.mmm timestamp. Lines carrying a fuel
// cell engineering record embed 27 comma separated integers terminated by a
// colon, a decimal checksum, and a hex token. Everything else on a line is
// skipped with a per-line warning; a garbled file degrades to fewer records
// and more warnings, never to a hard failure.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"fuelcell_parser/internal/api"
	"fuelcell_parser/internal/dcl"
	"fuelcell_parser/internal/driver"
	"fuelcell_parser/internal/feed"
	_ "fuelcell_parser/internal/parsers" // register all parsers via init()
	"fuelcell_parser/internal/registry"
	"fuelcell_parser/internal/storage"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "fuelcell_parser - commands:")
	fmt.Fprintln(w, "  parse   - parse a DCL log file and output particles as JSON")
	fmt.Fprintln(w, "  ingest  - parse a DCL log file into the local archive (and optional analytics)")
	fmt.Fprintln(w, "  serve   - serve the particle archive over HTTP")
	fmt.Fprintln(w, "  feed    - consume raw DCL payloads from NATS (telemetered stream)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  fuelcell_parser parse -input 20150310.fuelcell1.log [-output out.json] [-pretty] [-stats]")
	fmt.Fprintln(w, "  fuelcell_parser ingest -input 20150310.fuelcell1.log -db particles.db [-analytics]")
	fmt.Fprintln(w, "  fuelcell_parser serve -db particles.db [-port 8080] [-api-key KEY]")
	fmt.Fprintln(w, "  fuelcell_parser feed -url nats://localhost:4222 -subject dcl.fuelcell.raw [-db particles.db]")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Datasets: %s\n", strings.Join(registry.Default().Datasets(), ", "))
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "parse":
		runParse(os.Args[2:])
	case "ingest":
		runIngest(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "feed":
		runFeed(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

// parseOut is the JSON envelope the parse command emits.
type parseOut struct {
	Dataset   string          `json:"dataset"`
	Particles []*dcl.Particle `json:"particles"`
	Warnings  []warningOut    `json:"warnings,omitempty"`
}

type warningOut struct {
	Line    int    `json:"line"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func runParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	inPath := fs.String("input", "", "Input DCL log file (default: stdin)")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	dataset := fs.String("dataset", dcl.TypeRecovered.String(), "Dataset to parse as")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	showStats := fs.Bool("stats", false, "Print basic counters to stderr")
	_ = fs.Parse(args)

	res := processInput(*dataset, *inPath)

	out := parseOut{Dataset: res.Dataset, Particles: res.Particles}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, warningOut{
			Line:    w.Line,
			Reason:  string(w.Reason),
			Message: w.Message(),
		})
	}

	var wout io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		wout = f
	}

	var enc []byte
	var err error
	if *pretty {
		enc, err = json.MarshalIndent(out, "", "  ")
	} else {
		enc, err = json.Marshal(out)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
		os.Exit(1)
	}
	_, _ = wout.Write(enc)
	if wout == os.Stdout {
		_, _ = wout.Write([]byte("\n"))
	}

	if *showStats {
		fmt.Fprintf(os.Stderr, "stats: particles=%d warnings=%d\n",
			len(res.Particles), len(res.Warnings))
	}
}

func runIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	inPath := fs.String("input", "", "Input DCL log file (required)")
	dbPath := fs.String("db", "particles.db", "SQLite archive path")
	dataset := fs.String("dataset", dcl.TypeRecovered.String(), "Dataset to parse as")
	analytics := fs.Bool("analytics", false, "Also write to ClickHouse/PostgreSQL (CLICKHOUSE_*/POSTGRES_* env overrides)")
	_ = fs.Parse(args)

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "ingest: -input is required")
		os.Exit(2)
	}

	res := processInput(*dataset, *inPath)

	db, err := storage.Open(*dbPath)
	if err != nil {
		log.Fatalf("open archive: %v", err)
	}
	defer db.Close()

	if err := db.InsertParticles(res.Particles, *inPath); err != nil {
		log.Fatalf("archive particles: %v", err)
	}
	if err := db.InsertWarnings(res.Warnings, *inPath); err != nil {
		log.Fatalf("archive warnings: %v", err)
	}

	if *analytics {
		ctx := context.Background()
		adb, err := storage.OpenAnalytics(ctx, storage.ConfigFromEnv())
		if err != nil {
			log.Fatalf("open analytics: %v", err)
		}
		defer adb.Close()

		if err := adb.CreateSchemas(ctx); err != nil {
			log.Fatalf("create analytics schemas: %v", err)
		}
		if err := adb.CH.InsertParticles(ctx, res.Particles, *inPath); err != nil {
			log.Fatalf("clickhouse insert: %v", err)
		}
		if err := adb.PG.RecordFileIngest(ctx, storage.FileIngest{
			Path:         *inPath,
			Dataset:      res.Dataset,
			RecordCount:  len(res.Particles),
			WarningCount: len(res.Warnings),
		}); err != nil {
			log.Fatalf("record ingest: %v", err)
		}
		if err := adb.PG.InsertIngestWarnings(ctx, *inPath, res.Warnings); err != nil {
			log.Fatalf("persist warnings: %v", err)
		}
	}

	log.Printf("ingested %s: %d particles, %d warnings", *inPath, len(res.Particles), len(res.Warnings))
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dbPath := fs.String("db", "particles.db", "SQLite archive path")
	port := fs.Int("port", 8080, "HTTP listen port")
	apiKey := fs.String("api-key", "", "Require this API key (empty = open access)")
	_ = fs.Parse(args)

	db, err := storage.Open(*dbPath)
	if err != nil {
		log.Fatalf("open archive: %v", err)
	}
	defer db.Close()

	srv := api.NewServer(db, api.Config{
		Port:        *port,
		AuthEnabled: *apiKey != "",
		APIKeys:     []string{*apiKey},
	})
	log.Fatal(srv.Run())
}

func runFeed(args []string) {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	url := fs.String("url", "nats://localhost:4222", "NATS server URL")
	subject := fs.String("subject", "dcl.fuelcell.raw", "Subject carrying raw DCL payloads")
	queue := fs.String("queue", "", "Queue group (empty = plain subscription)")
	outSubject := fs.String("out", "dcl.fuelcell.particles", "Subject to republish decoded particles on (empty = off)")
	dbPath := fs.String("db", "", "Optional SQLite archive to store particles in")
	dataset := fs.String("dataset", dcl.TypeTelemetered.String(), "Dataset to parse payloads as")
	_ = fs.Parse(args)

	var db *storage.DB
	if *dbPath != "" {
		var err error
		db, err = storage.Open(*dbPath)
		if err != nil {
			log.Fatalf("open archive: %v", err)
		}
		defer db.Close()
	}

	consumer, err := feed.NewConsumer(feed.Config{
		URL:        *url,
		Subject:    *subject,
		Queue:      *queue,
		OutSubject: *outSubject,
		Dataset:    *dataset,
	}, func(res *driver.Result) {
		if db != nil {
			if err := db.InsertParticles(res.Particles, *subject); err != nil {
				log.Printf("archive particles: %v", err)
			}
			if err := db.InsertWarnings(res.Warnings, *subject); err != nil {
				log.Printf("archive warnings: %v", err)
			}
		}
		log.Printf("feed: %d particles, %d warnings", len(res.Particles), len(res.Warnings))
	})
	if err != nil {
		log.Fatalf("start feed: %v", err)
	}
	defer consumer.Close()

	log.Printf("consuming %s from %s", *subject, *url)
	select {} // run until killed
}

// processInput parses one file (or stdin when path is empty) and exits the
// process on configuration or stream errors.
func processInput(dataset, path string) *driver.Result {
	drv := driver.New(dataset)

	var res *driver.Result
	var err error
	if path == "" {
		res, err = drv.Process(os.Stdin)
	} else {
		res, err = drv.ProcessFile(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse input: %v\n", err)
		os.Exit(1)
	}
	return res
}
