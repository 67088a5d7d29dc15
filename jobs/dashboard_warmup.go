package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gearbox-erp/gearbox-erp/internal/dashboard"
	jobmetrics "github.com/gearbox-erp/gearbox-erp/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DashboardWarmupJob pre-populates dashboard caches for active companies.
type DashboardWarmupJob struct {
	Dashboard *dashboard.Service
	Cache     *dashboard.Cache
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(dashboardSvc *dashboard.Service, cache *dashboard.Cache, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Dashboard: dashboardSvc,
		Cache:     cache,
		Pool:      pool,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks. The cache version is bumped first
// so stale aggregates stop being served, then each scope is recomputed.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting dashboard warmup", slog.String("company", payload.Company))

	companies, err := j.resolveCompanies(ctx, payload.Company)
	if err != nil {
		resultErr = err
		logger.Error("load warmup companies", slog.Any("error", err))
		return resultErr
	}

	if j.Cache != nil {
		if err := j.Cache.Bump(ctx); err != nil {
			logger.Warn("bump cache version", slog.Any("error", err))
		}
	}

	start := j.now()
	for _, company := range companies {
		if err := j.warmCompany(ctx, company); err != nil {
			resultErr = err
			logger.Error("warm company", slog.String("company", company), slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("completed dashboard warmup", slog.Int("companies", len(companies)), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *DashboardWarmupJob) warmCompany(ctx context.Context, company string) error {
	if j.Dashboard == nil {
		return nil
	}
	scopeCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	j.Dashboard.GetDashboardData(scopeCtx, dashboard.Filters{Company: company})
	return scopeCtx.Err()
}

// resolveCompanies returns the explicit company when given, otherwise every
// company seen on a job card plus the unscoped ("") dashboard.
func (j *DashboardWarmupJob) resolveCompanies(ctx context.Context, company string) ([]string, error) {
	if company != "" {
		return []string{company}, nil
	}
	if j.Pool == nil {
		return []string{""}, nil
	}
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT company FROM job_cards WHERE company <> '' ORDER BY company`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := []string{""}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return companies, nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
