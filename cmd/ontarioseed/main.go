package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ontarioseed/internal"
	"ontarioseed/internal/catalog"
	"ontarioseed/internal/config"
	"ontarioseed/internal/logger"
	"ontarioseed/internal/pipeline"
	"ontarioseed/internal/reference"
	"ontarioseed/internal/storage"
	"ontarioseed/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "generate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out, dbPath := outputFlags(fs, cfg)
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("OPENDATA_BASE_URL", cfg.OpenDataBaseURL))
		must(cfg.Require("OPENDATA_PACKAGE_ID", cfg.OpenDataPackageID))

		db := openDB(*dbPath)
		if db != nil {
			defer db.Close()
		}
		svc := pipeline.NewGenerationService(cfg, catalog.NewClient(cfg), db, log)
		res, err := svc.Generate(ctx, out.resolve())
		must(err)
		printSummary(res)
	case "transform":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "local pipe-delimited export")
		sourceURL := fs.String("source-url", "", "source URL to record (defaults to the input path)")
		out, dbPath := outputFlags(fs, cfg)
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		raw, err := os.ReadFile(*input)
		must(err)
		source := *sourceURL
		if strings.TrimSpace(source) == "" {
			source = *input
		}

		db := openDB(*dbPath)
		if db != nil {
			defer db.Close()
		}
		svc := pipeline.NewGenerationService(cfg, nil, db, log)
		res, err := svc.Transform(catalog.DecodeText(raw), source, out.resolve())
		must(err)
		printSummary(res)
	case "resources":
		must(cfg.Require("OPENDATA_BASE_URL", cfg.OpenDataBaseURL))
		must(cfg.Require("OPENDATA_PACKAGE_ID", cfg.OpenDataPackageID))
		pkg, err := catalog.NewClient(cfg).PackageShow(ctx, cfg.OpenDataPackageID)
		must(err)
		picked, ok := catalog.PickEnglishTXTResource(pkg.Resources)
		fmt.Printf("package %s: %d resources\n", cfg.OpenDataPackageID, len(pkg.Resources))
		rows := make([][]string, 0, len(pkg.Resources))
		for _, r := range pkg.Resources {
			marker := ""
			if ok && r == picked {
				marker = "*"
			}
			rows = append(rows, []string{marker, string(catalog.ClassifyResource(r)), r.Format, r.FreshnessKey(), r.Name, r.URL})
		}
		printTable([]string{"", "tier", "format", "updated", "name", "url"}, rows)
		if !ok {
			must(pipeline.ErrNoEnglishResource)
		}
	case "search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		kind := fs.String("kind", "provider", "provider|school")
		seed := fs.String("seed", "", "seed CSV path (defaults to the configured output)")
		dbPath := fs.String("db", "", "read entries from a SQLite snapshot instead of a CSV")
		query := fs.String("q", "", "search text")
		limit := fs.Int("limit", reference.DefaultLimit, "max results")
		_ = fs.Parse(os.Args[2:])

		var idx *reference.Index
		if strings.TrimSpace(*dbPath) != "" {
			db, err := storage.Open(*dbPath)
			must(err)
			idx, err = loadSnapshotIndex(db, reference.Kind(strings.ToLower(*kind)))
			_ = db.Close()
			must(err)
		} else {
			idx, err = loadIndex(cfg, reference.Kind(strings.ToLower(*kind)), *seed)
			must(err)
		}
		log.Debug("seed index loaded", "kind", idx.Kind, "entries", idx.Len())
		header := append([]string{"score"}, columnsFor(idx.Kind)...)
		var rows [][]string
		for _, m := range idx.Search(*query, *limit) {
			rows = append(rows, append([]string{fmt.Sprintf("%.3f", m.Score)}, m.Values(idx.Kind)...))
		}
		printTable(header, rows)
	case "status":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dbPath := fs.String("db", cfg.DBPath, "SQLite snapshot path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*dbPath) == "" {
			must(fmt.Errorf("--db or SEED_DB_PATH is required"))
		}
		db, err := storage.Open(*dbPath)
		must(err)
		defer db.Close()

		run, err := db.LatestRun()
		must(err)
		if run == nil {
			fmt.Println("no runs recorded")
			return
		}
		generatedAt, err := db.GetMetadata("seed.generated_at")
		must(err)
		fmt.Printf("last run %s at %s\n", run.TraceID, run.CreatedAt)
		fmt.Printf("source: %s\n", run.SourceURL)
		fmt.Printf("high schools=%d course providers=%d totalMs=%.0f\n", run.HighSchoolCount, run.CourseProviderCount, run.Timings["totalMs"])
		if generatedAt != nil {
			fmt.Printf("generated at: %s\n", *generatedAt)
		}
	default:
		usage()
		os.Exit(1)
	}
}

type outputOptions struct {
	hs   *string
	cp   *string
	xlsx *string
}

func outputFlags(fs *flag.FlagSet, cfg config.Config) (outputOptions, *string) {
	out := outputOptions{
		hs:   fs.String("hs", cfg.HighSchoolOutput, "high school seed CSV"),
		cp:   fs.String("cp", cfg.CourseProviderOutput, "course provider seed CSV"),
		xlsx: fs.String("xlsx", cfg.XLSXOutput, "optional workbook path"),
	}
	dbPath := fs.String("db", cfg.DBPath, "optional SQLite snapshot path")
	return out, dbPath
}

func (o outputOptions) resolve() pipeline.Outputs {
	return pipeline.Outputs{
		HighSchoolPath:     *o.hs,
		CourseProviderPath: *o.cp,
		XLSXPath:           strings.TrimSpace(*o.xlsx),
	}
}

func openDB(path string) *storage.DB {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	db, err := storage.Open(path)
	must(err)
	return db
}

func loadIndex(cfg config.Config, kind reference.Kind, seed string) (*reference.Index, error) {
	switch kind {
	case reference.KindCourseProvider:
		if seed == "" {
			seed = cfg.CourseProviderOutput
		}
		return reference.LoadCourseProviders(seed)
	case reference.KindHighSchool:
		if seed == "" {
			seed = cfg.HighSchoolOutput
		}
		return reference.LoadHighSchools(seed)
	default:
		return nil, fmt.Errorf("unsupported kind: %s", kind)
	}
}

func loadSnapshotIndex(db *storage.DB, kind reference.Kind) (*reference.Index, error) {
	switch kind {
	case reference.KindCourseProvider:
		records, err := db.ListCourseProviders()
		if err != nil {
			return nil, err
		}
		return reference.FromCourseProviders(records), nil
	case reference.KindHighSchool:
		records, err := db.ListHighSchools()
		if err != nil {
			return nil, err
		}
		return reference.FromHighSchools(records), nil
	default:
		return nil, fmt.Errorf("unsupported kind: %s", kind)
	}
}

func columnsFor(kind reference.Kind) []string {
	if kind == reference.KindHighSchool {
		return internal.HighSchoolColumns
	}
	return internal.CourseProviderColumns
}

func printTable(header []string, rows [][]string) {
	for _, line := range util.FormatTable(header, rows) {
		fmt.Println(line)
	}
}

func printSummary(res pipeline.GenerationResult) {
	fmt.Printf("Source URL: %s\n", res.SourceURL)
	fmt.Printf("Wrote %d Ontario high school rows to %s\n", res.HighSchoolCount, res.Outputs.HighSchoolPath)
	fmt.Printf("Wrote %d Ontario external-course provider rows to %s\n", res.CourseProviderCount, res.Outputs.CourseProviderPath)
	if res.Outputs.XLSXPath != "" {
		fmt.Printf("Wrote workbook to %s\n", res.Outputs.XLSXPath)
	}
}

func usage() {
	fmt.Println("usage: ontarioseed <command>")
	fmt.Println("commands:")
	fmt.Println("  generate [--hs=...csv] [--cp=...csv] [--xlsx=...xlsx] [--db=...db]")
	fmt.Println("  transform --input=schools_en.txt [--source-url=...] [--hs=...] [--cp=...] [--xlsx=...] [--db=...]")
	fmt.Println("  resources")
	fmt.Println("  search --kind=provider|school [--seed=...csv | --db=...db] --q=... [--limit=10]")
	fmt.Println("  status [--db=...db]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
