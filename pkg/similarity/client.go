// Package similarity is the client for the remote cross-submission
// comparator. The comparison algorithm is opaque to this service: scores
// arrive precomputed and a pair is suspicious when its score meets the
// threshold.
package similarity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	compareDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "grouplab",
		Subsystem: "similarity",
		Name:      "compare_duration_seconds",
		Help:      "Duration of remote similarity comparison requests",
	}, []string{"status"})

	compareFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grouplab",
		Subsystem: "similarity",
		Name:      "compare_failures_total",
		Help:      "Number of failed remote similarity comparison requests",
	})
)

// Pair is one pairwise group comparison reported by the comparator.
type Pair struct {
	GroupAID uint    `json:"group_a_id"`
	GroupBID uint    `json:"group_b_id"`
	Score    float64 `json:"score"`
}

// Report is the comparator's answer for one deliverable.
type Report struct {
	DeliverableID uint    `json:"deliverable_id"`
	Threshold     float64 `json:"threshold"`
	Pairs         []Pair  `json:"pairs"`
}

// Config defines connection options for the comparator service.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Client calls the remote comparator over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewClient builds a comparator client from the configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("similarity service base url is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("github.com/noah-isme/grouplab-go-api/pkg/similarity"),
		logger:  cfg.Logger.With().Str("component", "similarity_client").Logger(),
	}, nil
}

// Compare requests the pairwise comparison report for a deliverable.
func (c *Client) Compare(parent context.Context, deliverableID uint) (Report, error) {
	ctx, span := c.tracer.Start(parent, "similarity.compare", trace.WithAttributes(
		attribute.Int64("deliverable_id", int64(deliverableID)),
	))
	defer span.End()

	url := fmt.Sprintf("%s/v1/comparisons/%d", c.baseURL, deliverableID)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Report{}, fmt.Errorf("failed to build comparison request: %w", err)
	}
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	response, err := c.http.Do(request)
	if err != nil {
		compareFailures.Inc()
		compareDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		span.SetStatus(codes.Error, err.Error())
		return Report{}, fmt.Errorf("comparison request failed: %w", err)
	}
	defer response.Body.Close()

	compareDuration.WithLabelValues(fmt.Sprintf("%d", response.StatusCode)).Observe(time.Since(start).Seconds())

	if response.StatusCode != http.StatusOK {
		compareFailures.Inc()
		span.SetStatus(codes.Error, response.Status)
		return Report{}, fmt.Errorf("comparison service returned %s", response.Status)
	}

	var report Report
	if err := json.NewDecoder(response.Body).Decode(&report); err != nil {
		compareFailures.Inc()
		return Report{}, fmt.Errorf("failed to decode comparison report: %w", err)
	}

	c.logger.Debug().
		Uint("deliverable_id", deliverableID).
		Int("pairs", len(report.Pairs)).
		Msg("similarity report fetched")

	return report, nil
}
