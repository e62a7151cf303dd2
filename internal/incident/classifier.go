// Package incident classifies and records free-text incident reports.
//
// Classification runs an ordered list of strategies and keeps the first
// answer. The generative model comes first; the keyword matcher is last and
// never fails, so a report always gets a severity.
package incident

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/metrics"
)

type Severity string

const (
	SeverityHigh Severity = "HIGH"
	SeverityMed  Severity = "MED"
	SeverityLow  Severity = "LOW"
)

// ParseSeverity accepts HIGH, MED or LOW in any case.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToUpper(strings.TrimSpace(s))) {
	case SeverityHigh:
		return SeverityHigh, true
	case SeverityMed:
		return SeverityMed, true
	case SeverityLow:
		return SeverityLow, true
	}
	return "", false
}

// MaxSummaryLength bounds Classification.Summary, in characters.
const MaxSummaryLength = 80

type Classification struct {
	Summary  string   `json:"summary"`
	Severity Severity `json:"severity"`
	Strategy string   `json:"strategy"`
}

// Label is the stored form of a classification, e.g. "[HIGH] Fire in stairwell".
func (c Classification) Label() string {
	return "[" + string(c.Severity) + "] " + c.Summary
}

// Strategy is one way of classifying a report. A strategy that cannot answer
// returns an error and the pipeline moves on.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, text string) (Classification, error)
}

// Pipeline tries strategies in order and returns the first success.
type Pipeline struct {
	strategies []Strategy
	metrics    *metrics.PatrolMetrics
}

func NewPipeline(m *metrics.PatrolMetrics, strategies ...Strategy) *Pipeline {
	return &Pipeline{strategies: strategies, metrics: m}
}

// Classify never fails while the pipeline ends with a KeywordStrategy.
func (p *Pipeline) Classify(ctx context.Context, text string) (Classification, error) {
	var lastErr error
	for _, s := range p.strategies {
		start := time.Now()
		c, err := s.Classify(ctx, text)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			p.metrics.RecordClassification(s.Name(), "unavailable", elapsed)
			logrus.WithError(err).WithField("strategy", s.Name()).Warn("Incident classification strategy failed, trying next")
			lastErr = err
			continue
		}
		p.metrics.RecordClassification(s.Name(), "success", elapsed)
		c.Strategy = s.Name()
		c.Summary = truncate(c.Summary, MaxSummaryLength)
		if c.Summary == "" {
			c.Summary = FallbackSummary(text)
		}
		return c, nil
	}
	if lastErr == nil {
		lastErr = apperr.Unavailable(nil, "no classification strategy configured")
	}
	return Classification{}, lastErr
}

// FallbackSummary derives a dashboard title from the report itself.
func FallbackSummary(text string) string {
	s := truncate(strings.Join(strings.Fields(text), " "), MaxSummaryLength)
	if s == "" {
		return "Incident report"
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
