package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/techwolf/example-api/pkg/logger"
)

// Sentinel kinds for smoke run errors.
var (
	ErrUnhealthy = errors.New("service unhealthy")
	ErrMismatch  = errors.New("responses did not match")
)

type job struct {
	seq int
	c   Case
}

// Run executes the complete smoke test. It returns ErrMismatch when any
// response differs from its Case.
func Run(ctx context.Context, config *Config, log logger.Logger) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	runID := uuid.NewString()
	baseURL := strings.TrimRight(config.BaseURL, "/")
	workers := max(config.Workers, 1)
	rounds := max(config.Rounds, 1)

	log.Info(ctx, "starting smoke run",
		logger.String("run_id", runID),
		logger.String("base_url", baseURL),
		logger.Int("rounds", rounds),
		logger.Int("workers", workers),
		logger.Duration("timeout", config.Timeout))

	client := newHTTPClient(config.Timeout)

	if err := checkServiceHealth(ctx, client, baseURL); err != nil {
		return stats, err
	}

	var jobs []job
	for round := 0; round < rounds; round++ {
		for _, c := range Cases(round) {
			jobs = append(jobs, job{seq: len(jobs), c: c})
		}
	}

	results := execute(ctx, client, baseURL, runID, workers, jobs, config.Verbose, log)

	for _, r := range results {
		stats.Sent++
		switch {
		case r.Err != nil:
			stats.Errors++
		case r.Passed():
			stats.Passed++
			continue
		default:
			stats.Failed++
		}
		if len(stats.Failures) < maxRecordedFailures {
			stats.Failures = append(stats.Failures, r)
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if stats.Failed > 0 || stats.Errors > 0 {
		return stats, fmt.Errorf("%w: %d failed, %d errors", ErrMismatch, stats.Failed, stats.Errors)
	}
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	status, _, err := client.Do(ctx, http.MethodGet, baseURL+"/healthz", "", "")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// execute sends jobs over a worker pool and returns results in job order.
func execute(ctx context.Context, client *HTTPClient, baseURL, runID string, workers int, jobs []job, verbose bool, log logger.Logger) []Result {
	results := make([]Result, len(jobs))
	jobChan := make(chan job, workers*WorkerChannelMultiplier)

	var (
		sent       int64
		lastReport atomic.Int64
		wg         sync.WaitGroup
	)
	lastReport.Store(time.Now().UnixNano())

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				requestID := runID + "-" + strconv.Itoa(j.seq)
				status, body, err := client.Do(ctx, j.c.Method, baseURL+j.c.Path, j.c.Body, requestID)
				r := Result{Case: j.c, RequestID: requestID, Status: status, Body: body, Err: err}
				results[j.seq] = r

				fields := []logger.Field{
					logger.String("case", j.c.Name),
					logger.String("request_id", requestID),
					logger.Int("status", status),
				}
				switch {
				case !r.Passed():
					log.Warn(ctx, "smoke request failed", append(fields,
						logger.Int("want_status", j.c.WantStatus),
						logger.String("want_body", j.c.WantBody),
						logger.String("body", body),
						logger.Any("error", err))...)
				case verbose:
					log.Debug(ctx, "smoke request", fields...)
				}

				total := atomic.AddInt64(&sent, 1)
				last := lastReport.Load()
				if time.Since(time.Unix(0, last)) >= progressInterval && lastReport.CompareAndSwap(last, time.Now().UnixNano()) {
					log.Info(ctx, "progress", logger.Int64("sent", total), logger.Int("total", len(jobs)))
				}
			}
		}()
	}

	go func() {
		defer close(jobChan)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobChan <- j:
			}
		}
	}()

	wg.Wait()

	// Jobs never dispatched because ctx ended are reported as errors.
	for i := range results {
		if results[i].Case.Name == "" {
			results[i] = Result{Case: jobs[i].c, Err: ctx.Err()}
		}
	}
	return results
}

// displayFinalStats logs the final run statistics and the first failures.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, requestsPerSecond float64
	if stats.Sent > 0 {
		successRate = float64(stats.Passed) / float64(stats.Sent) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Sent) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("sent", stats.Sent),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.Int("errors", stats.Errors),
		logger.Duration("duration", stats.Duration),
		logger.Float64("success_rate", successRate),
		logger.Float64("requests_per_second", requestsPerSecond))

	if omitted := stats.Failed + stats.Errors - len(stats.Failures); omitted > 0 {
		log.Warn(ctx, "more failures than listed; see the per-request warnings",
			logger.Int("listed", len(stats.Failures)),
			logger.Int("omitted", omitted))
	}
	for _, f := range stats.Failures {
		log.Warn(ctx, "case failed",
			logger.String("case", f.Case.Name),
			logger.String("request_id", f.RequestID),
			logger.Int("want_status", f.Case.WantStatus),
			logger.Int("status", f.Status),
			logger.String("want_body", f.Case.WantBody),
			logger.String("body", f.Body),
			logger.Any("error", f.Err))
	}
}
