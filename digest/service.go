package digest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"arxiv_digest/backfill"
	"arxiv_digest/config"
	"arxiv_digest/formatting"
	"arxiv_digest/internal/events"
	"arxiv_digest/internal/metrics"
	"arxiv_digest/internal/store"
)

// RenderInput carries everything a renderer needs for one digest page.
type RenderInput struct {
	Records     []Record
	Title       string
	PrimaryDate time.Time
	GeneratedAt time.Time
	DateRange   string
	TotalCount  int
}

// Renderer turns consolidated records into a finished document.
type Renderer interface {
	Render(RenderInput) ([]byte, error)
}

// RunOptions tunes one consolidation run.
type RunOptions struct {
	// Days limits the lookback window; zero means the configured default.
	Days int
	// Cleanup runs the retention sweep and index rewrite after generation.
	Cleanup bool
}

// Service orchestrates loading, planning, rendering and retention.
type Service struct {
	cfg      config.Config
	store    *store.Store
	renderer Renderer
	bus      *events.Bus
	now      func() time.Time
}

func NewService(cfg config.Config, st *store.Store, renderer Renderer) *Service {
	return &Service{cfg: cfg, store: st, renderer: renderer, now: time.Now}
}

// SetEventBus makes the service publish a RunEvent at the end of every run.
func (s *Service) SetEventBus(bus *events.Bus) { s.bus = bus }

// Run performs one consolidation pass: load the recent daily sources, derive
// the digest plan, render and write the report unless it already exists, then
// optionally sweep retention and rewrite the index.
func (s *Service) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	res := RunResult{RunID: uuid.NewString()}
	s.startRun(ctx, res.RunID, store.KindGenerate)

	days := opts.Days
	if days <= 0 {
		days = s.cfg.Digest.MaxDays
	}

	load := Load(s.cfg.SourceDir, days)
	if load.SkippedSources > 0 {
		metrics.SourcesSkipped.Add(float64(load.SkippedSources))
	}
	s.logRun(ctx, res.RunID, fmt.Sprintf("loaded %d records from %d days (%d sources skipped)",
		len(load.Records), len(load.CoveredDates), load.SkippedSources))

	if len(load.CoveredDates) == 0 {
		res.Status = StatusNoSources
		log.Warnf("no usable source files under %s", s.cfg.SourceDir)
		return res, s.finishRun(ctx, res, store.KindGenerate, nil)
	}

	plan, err := PlanDigest(load.CoveredDates)
	if err != nil {
		res.Status = StatusFailed
		return res, s.finishRun(ctx, res, store.KindGenerate, err)
	}
	res.OutputName = plan.OutputName
	res.DayCount = len(plan.Dates)
	res.RecordCount = len(load.Records)

	switch {
	case AlreadyExists(s.cfg.OutputDir, plan.OutputName):
		res.Status = StatusAlreadyExists
		log.Infof("report %s already exists, skipping generation", plan.OutputName)
	case len(load.Records) == 0:
		res.Status = StatusNoRecords
		log.Warn("no records found in the selected source files")
		return res, s.finishRun(ctx, res, store.KindGenerate, nil)
	default:
		if err := s.generate(plan, load.Records); err != nil {
			res.Status = StatusFailed
			return res, s.finishRun(ctx, res, store.KindGenerate, err)
		}
		res.Status = StatusGenerated
		metrics.ReportsGenerated.Inc()
		s.logRun(ctx, res.RunID, fmt.Sprintf("wrote %s (%d records, %d days)",
			plan.OutputName, len(load.Records), len(plan.Dates)))
	}

	if opts.Cleanup && s.cfg.Digest.CleanupEnabled {
		s.sweepAndReindex(ctx, &res)
	}

	return res, s.finishRun(ctx, res, store.KindGenerate, nil)
}

// sweepAndReindex runs the retention sweep and, only if the sweep itself
// succeeded, rewrites the index to match the directory it just swept. A
// failed sweep leaves the previous index alone.
func (s *Service) sweepAndReindex(ctx context.Context, res *RunResult) {
	sweep, err := Sweep(s.cfg.OutputDir, s.cfg.Digest.KeepWindows, DateOnly(s.now()))
	if err != nil {
		log.Warnf("retention sweep failed: %v", err)
		return
	}
	res.KeptCount = len(sweep.Kept)
	res.DeletedCount = len(sweep.Deleted)
	if len(sweep.Deleted) > 0 {
		metrics.ReportsDeleted.Add(float64(len(sweep.Deleted)))
	}
	s.logRun(ctx, res.RunID, fmt.Sprintf("sweep kept %d, deleted %d, skipped %d",
		len(sweep.Kept), len(sweep.Deleted), len(sweep.Skipped)))

	if count, err := WriteIndex(s.cfg.OutputDir, s.cfg.IndexPath); err != nil {
		log.Warnf("index rewrite failed: %v", err)
	} else {
		log.Infof("index rewritten with %d reports", count)
	}
}

// GenerateSingle renders a report for one source file, ignoring the lookback
// window and any existing report of the same name. The report date comes from
// the filename; an unparsable name falls back to today with a warning.
func (s *Service) GenerateSingle(ctx context.Context, sourcePath string) (RunResult, error) {
	res := RunResult{RunID: uuid.NewString()}
	s.startRun(ctx, res.RunID, store.KindGenerate)

	date, ok := ParseSourceDate(filepath.Base(sourcePath))
	if !ok {
		date = DateOnly(s.now())
		log.Warnf("could not extract date from filename %s, using today", filepath.Base(sourcePath))
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		res.Status = StatusFailed
		return res, s.finishRun(ctx, res, store.KindGenerate, fmt.Errorf("read source %s: %w", sourcePath, err))
	}
	records, ok := parseRecords(data, date)
	if !ok {
		res.Status = StatusFailed
		return res, s.finishRun(ctx, res, store.KindGenerate, fmt.Errorf("malformed source %s", sourcePath))
	}

	plan, err := PlanDigest([]time.Time{date})
	if err != nil {
		res.Status = StatusFailed
		return res, s.finishRun(ctx, res, store.KindGenerate, err)
	}
	res.OutputName = plan.OutputName
	res.DayCount = 1
	res.RecordCount = len(records)

	if len(records) == 0 {
		res.Status = StatusNoRecords
		log.Warnf("no records in %s", sourcePath)
		return res, s.finishRun(ctx, res, store.KindGenerate, nil)
	}

	if err := s.generate(plan, records); err != nil {
		res.Status = StatusFailed
		return res, s.finishRun(ctx, res, store.KindGenerate, err)
	}
	res.Status = StatusGenerated
	metrics.ReportsGenerated.Inc()
	return res, s.finishRun(ctx, res, store.KindGenerate, nil)
}

// Cleanup runs a standalone retention sweep and index rewrite. Unlike the
// sweep at the tail of Run, a missing output directory is an error here.
func (s *Service) Cleanup(ctx context.Context) (RunResult, error) {
	res := RunResult{RunID: uuid.NewString()}
	s.startRun(ctx, res.RunID, store.KindCleanup)

	sweep, err := Sweep(s.cfg.OutputDir, s.cfg.Digest.KeepWindows, DateOnly(s.now()))
	if err != nil {
		res.Status = StatusFailed
		return res, s.finishRun(ctx, res, store.KindCleanup, err)
	}
	res.KeptCount = len(sweep.Kept)
	res.DeletedCount = len(sweep.Deleted)
	if len(sweep.Deleted) > 0 {
		metrics.ReportsDeleted.Add(float64(len(sweep.Deleted)))
	}
	s.logRun(ctx, res.RunID, fmt.Sprintf("sweep kept %d, deleted %d, skipped %d",
		len(sweep.Kept), len(sweep.Deleted), len(sweep.Skipped)))

	if count, err := WriteIndex(s.cfg.OutputDir, s.cfg.IndexPath); err != nil {
		log.Warnf("index rewrite failed: %v", err)
	} else {
		log.Infof("index rewritten with %d reports", count)
	}

	res.Status = StatusSwept
	return res, s.finishRun(ctx, res, store.KindCleanup, nil)
}

// Backfill generates single-day reports for recent source files that have no
// report yet, newest first, up to limit.
func (s *Service) Backfill(ctx context.Context, limit int) (backfill.Summary, error) {
	if limit <= 0 {
		limit = s.cfg.BackfillLimit
	}
	runID := uuid.NewString()
	s.startRun(ctx, runID, store.KindBackfill)

	cands, err := s.listBackfillCandidates()
	if err != nil {
		res := RunResult{RunID: runID, Status: StatusFailed}
		return backfill.Summary{}, s.finishRun(ctx, res, store.KindBackfill, err)
	}
	summary := backfill.SelectMissing(cands, limit)

	for _, cand := range summary.Selected {
		res, err := s.GenerateSingle(ctx, filepath.Join(s.cfg.SourceDir, cand.SourceName))
		if err != nil || res.Status == StatusFailed {
			summary.Failed++
			log.Warnf("backfill of %s failed: %v", cand.SourceName, err)
			continue
		}
		if res.Status == StatusGenerated {
			summary.Generated++
		}
	}
	s.logRun(ctx, runID, fmt.Sprintf("backfill generated %d of %d missing (%d failed)",
		summary.Generated, summary.Missing, summary.Failed))

	if _, err := WriteIndex(s.cfg.OutputDir, s.cfg.IndexPath); err != nil {
		log.Warnf("index rewrite failed: %v", err)
	}

	var status string
	switch {
	case summary.Total == 0:
		status = StatusNoSources
	case summary.Generated > 0:
		status = StatusGenerated
	case summary.Failed > 0:
		status = StatusFailed
	default:
		status = StatusUpToDate
	}
	// For backfill runs day_count carries the candidates considered and
	// record_count the reports generated.
	res := RunResult{RunID: runID, Status: status, DayCount: summary.Total, RecordCount: summary.Generated}
	return summary, s.finishRun(ctx, res, store.KindBackfill, nil)
}

func (s *Service) listBackfillCandidates() ([]backfill.Candidate, error) {
	entries, err := os.ReadDir(s.cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("read source dir %s: %w", s.cfg.SourceDir, err)
	}
	var cands []backfill.Candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		date, ok := ParseSourceDate(entry.Name())
		if !ok {
			continue
		}
		name := SingleDayName(date)
		cands = append(cands, backfill.Candidate{
			Date:       date,
			SourceName: entry.Name(),
			ReportName: name,
			HasReport:  AlreadyExists(s.cfg.OutputDir, name),
		})
	}
	return cands, nil
}

func (s *Service) generate(plan Plan, records []Record) error {
	SortByPriority(records)

	title := formatting.ReportTitle(s.cfg.Digest.TitlePrefix, plan.Start, plan.End)
	in := RenderInput{
		Records:     records,
		Title:       title,
		PrimaryDate: plan.End,
		GeneratedAt: s.now(),
		DateRange:   formatting.DateRange(plan.Start, plan.End),
		TotalCount:  len(records),
	}
	body, err := s.renderer.Render(in)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", s.cfg.OutputDir, err)
	}
	path := filepath.Join(s.cfg.OutputDir, plan.OutputName)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	log.Infof("generated report %s", path)
	return nil
}

func (s *Service) startRun(ctx context.Context, runID, kind string) {
	if s.store == nil {
		return
	}
	if err := s.store.StartRun(ctx, runID, kind, s.now()); err != nil {
		log.Warnf("record run start: %v", err)
	}
}

func (s *Service) finishRun(ctx context.Context, res RunResult, kind string, runErr error) error {
	if s.store != nil {
		rec := store.Run{
			ID:           res.RunID,
			Status:       res.Status,
			OutputName:   res.OutputName,
			DayCount:     res.DayCount,
			RecordCount:  res.RecordCount,
			KeptCount:    res.KeptCount,
			DeletedCount: res.DeletedCount,
		}
		if runErr != nil {
			msg := runErr.Error()
			rec.Error = &msg
		}
		if err := s.store.FinishRun(ctx, rec, s.now()); err != nil {
			log.Warnf("record run finish: %v", err)
		}
	}
	metrics.RunsTotal.WithLabelValues(kind, res.Status).Inc()
	metrics.LastRunTime.WithLabelValues(kind).Set(float64(s.now().Unix()))
	if s.bus != nil {
		s.bus.Publish(events.RunEvent{
			RunID:      res.RunID,
			Kind:       kind,
			Status:     res.Status,
			OutputName: res.OutputName,
			Deleted:    res.DeletedCount,
		})
	}
	return runErr
}

func (s *Service) logRun(ctx context.Context, runID, line string) {
	log.Info(line)
	if s.store == nil {
		return
	}
	if err := s.store.AppendRunLog(ctx, runID, line, s.now()); err != nil {
		log.Debugf("record run log: %v", err)
	}
}
