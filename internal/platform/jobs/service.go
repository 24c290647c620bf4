package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ofsadmin/internal/ofs"
	"ofsadmin/internal/platform/config"
	"ofsadmin/internal/platform/metrics"
)

const JobStaleScan = "stale_scan"

type Service struct {
	DB      *pgxpool.Pool
	Cfg     config.Config
	Client  *ofs.Client
	Metrics *metrics.Collector
	queue   chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, client *ofs.Client, collector *metrics.Collector) *Service {
	return &Service{
		DB:      db,
		Cfg:     cfg,
		Client:  client,
		Metrics: collector,
		queue:   make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.ScanInterval > 0 {
		go s.scheduleStaleScans(ctx, s.Cfg.ScanInterval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

// scheduleStaleScans runs periodic dry-run scans so the dashboard always
// has a recent candidate count. Nothing is deleted from here.
func (s *Service) scheduleStaleScans(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobStaleScan, func(ctx context.Context) (any, error) {
				candidates, meta := s.Client.FindStaleUsers(ctx, s.Cfg.ScanCutoffDays, true)
				s.Metrics.RecordScan(meta.OK)
				if !meta.OK {
					slog.Warn("scheduled stale scan failed", "error", meta.Error, "firstCode", meta.FirstCode)
				}
				return map[string]any{
					"ok":         meta.OK,
					"cutoffDays": s.Cfg.ScanCutoffDays,
					"total":      meta.Total,
					"staleCount": len(candidates),
					"firstCode":  meta.FirstCode,
					"error":      meta.Error,
				}, nil
			})
		}
	}
}
