package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"ontarioseed/internal"
	"ontarioseed/internal/catalog"
	"ontarioseed/internal/config"
	"ontarioseed/internal/logger"
	"ontarioseed/internal/storage"
)

var (
	ErrNoEnglishResource  = errors.New("could not find an English TXT resource in the Ontario package")
	ErrMissingDownloadURL = errors.New("ontario package resource is missing download URL")
)

// OpenDataSource is the part of the catalog client the generator needs.
type OpenDataSource interface {
	PackageShow(ctx context.Context, packageID string) (catalog.Package, error)
	FetchText(ctx context.Context, resourceURL string) (string, error)
}

type Outputs struct {
	HighSchoolPath     string
	CourseProviderPath string
	XLSXPath           string
}

type GenerationResult struct {
	SourceURL           string
	HighSchoolCount     int
	CourseProviderCount int
	Outputs             Outputs
}

type GenerationService struct {
	cfg    config.Config
	source OpenDataSource
	db     *storage.DB
	log    *logger.Logger
}

// NewGenerationService wires the generator. db may be nil, in which case no
// SQLite snapshot is written.
func NewGenerationService(cfg config.Config, source OpenDataSource, db *storage.DB, log *logger.Logger) *GenerationService {
	if log == nil {
		log = logger.Discard()
	}
	return &GenerationService{cfg: cfg, source: source, db: db, log: log.With("package", cfg.OpenDataPackageID)}
}

// SelectResource fetches package metadata and picks the export to download.
func (s *GenerationService) SelectResource(ctx context.Context) (internal.ResourceDescriptor, error) {
	pkg, err := s.source.PackageShow(ctx, s.cfg.OpenDataPackageID)
	if err != nil {
		return internal.ResourceDescriptor{}, err
	}
	s.log.Debug("package metadata loaded", "resources", len(pkg.Resources))

	resource, ok := catalog.PickEnglishTXTResource(pkg.Resources)
	if !ok {
		return internal.ResourceDescriptor{}, ErrNoEnglishResource
	}
	if strings.TrimSpace(resource.URL) == "" {
		return internal.ResourceDescriptor{}, ErrMissingDownloadURL
	}
	if catalog.ClassifyResource(resource) == catalog.TierFallback {
		s.log.Warn("no _en.txt resource, using name match", "name", resource.Name, "url", resource.URL)
	}
	return resource, nil
}

// Generate runs the whole job against the open data portal. Nothing is
// written unless every fetch succeeds.
func (s *GenerationService) Generate(ctx context.Context, out Outputs) (GenerationResult, error) {
	start := time.Now()
	resource, err := s.SelectResource(ctx)
	if err != nil {
		return GenerationResult{}, err
	}
	s.log.Info("resource selected", "name", resource.Name, "url", resource.URL, "freshness", resource.FreshnessKey())

	raw, err := s.source.FetchText(ctx, resource.URL)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("download %s: %w", resource.URL, err)
	}
	s.log.Info("resource downloaded", "size", humanize.Bytes(uint64(len(raw))), "elapsed", time.Since(start).Round(time.Millisecond))

	return s.transform(raw, resource.URL, out, start)
}

// Transform runs the pipeline over an export that is already on hand.
func (s *GenerationService) Transform(raw, sourceURL string, out Outputs) (GenerationResult, error) {
	return s.transform(raw, sourceURL, out, time.Now())
}

// transform stages every output first and moves the files into place only
// once the workbook and the SQLite snapshot have succeeded.
func (s *GenerationService) transform(raw, sourceURL string, out Outputs, start time.Time) (GenerationResult, error) {
	parseStart := time.Now()
	rows, err := ParseSourceRows(raw)
	if err != nil {
		return GenerationResult{}, err
	}
	s.log.Debug("source rows parsed", "rows", len(rows))

	seeds := BuildSeeds(sourceURL, rows)
	transformMs := float64(time.Since(parseStart).Milliseconds())
	s.log.Info("seed sets built", "highSchools", len(seeds.HighSchools), "courseProviders", len(seeds.CourseProviders))

	staged, err := stageSeedCSVs(out.HighSchoolPath, out.CourseProviderPath, seeds)
	if err != nil {
		return GenerationResult{}, err
	}
	if out.XLSXPath != "" {
		workbook, err := stageSeedXLSX(seeds, out.XLSXPath)
		if err != nil {
			staged.discard()
			return GenerationResult{}, err
		}
		staged = append(staged, workbook)
	}
	if s.db != nil {
		if err := s.snapshot(seeds, start, transformMs); err != nil {
			staged.discard()
			return GenerationResult{}, err
		}
	}
	if err := staged.commit(); err != nil {
		s.log.Error("outputs rolled back", "err", err)
		return GenerationResult{}, err
	}
	s.log.Debug("outputs written", "files", len(staged))

	return GenerationResult{
		SourceURL:           sourceURL,
		HighSchoolCount:     len(seeds.HighSchools),
		CourseProviderCount: len(seeds.CourseProviders),
		Outputs:             out,
	}, nil
}

// BuildSeeds classifies the parsed rows into both seed sets.
func BuildSeeds(sourceURL string, rows []internal.SourceRow) internal.SeedResult {
	return internal.SeedResult{
		SourceURL:       sourceURL,
		HighSchools:     GenerateHighSchoolRows(rows),
		CourseProviders: GenerateCourseProviderRows(rows),
	}
}

func (s *GenerationService) snapshot(seeds internal.SeedResult, start time.Time, transformMs float64) error {
	if err := s.db.ReplaceSeeds(seeds); err != nil {
		return err
	}
	timings := map[string]float64{
		"transformMs": transformMs,
		"totalMs":     float64(time.Since(start).Milliseconds()),
	}
	if err := s.db.InsertRun(uuid.New().String(), seeds.SourceURL, len(seeds.HighSchools), len(seeds.CourseProviders), timings); err != nil {
		return err
	}
	if err := s.db.SetMetadata("seed.source_url", seeds.SourceURL); err != nil {
		return err
	}
	return s.db.SetMetadata("seed.generated_at", time.Now().UTC().Format(time.RFC3339))
}
