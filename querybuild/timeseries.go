package querybuild

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

const (
	DefaultTimeColumn      = "timestamp"
	DefaultGrain           = "day"
	DefaultTimeseriesLimit = 1000
)

// ValidGrains are the DATE_TRUNC units accepted for bucketing.
var ValidGrains = map[string]bool{
	"hour":    true,
	"day":     true,
	"week":    true,
	"month":   true,
	"quarter": true,
	"year":    true,
}

// ValidAggregations maps request aggregations to SQL functions.
var ValidAggregations = map[string]string{
	"sum":   "SUM",
	"avg":   "AVG",
	"min":   "MIN",
	"max":   "MAX",
	"count": "COUNT",
}

// lookback units accepted by DATEADD
var validUnits = map[string]string{
	"day":     "DAY",
	"week":    "WEEK",
	"month":   "MONTH",
	"quarter": "QUARTER",
	"year":    "YEAR",
}

type Metric struct {
	Name        string `json:"name"`
	Column      string `json:"column"`
	Aggregation string `json:"aggregation"`
}

// Lookback restricts rows to the last Count units before today.
type Lookback struct {
	Unit  string `json:"unit"`
	Count int    `json:"count"`
}

type TimeseriesRequest struct {
	Table      string    `json:"table"`
	TimeColumn string    `json:"time_column"`
	Grain      string    `json:"grain"`
	Metrics    []Metric  `json:"metrics"`
	Lookback   *Lookback `json:"lookback,omitempty"`
	Limit      int       `json:"limit"`
}

// PeriodOverPeriodRequest compares one metric over the last Count units
// against the Count units before that.
type PeriodOverPeriodRequest struct {
	Table      string `json:"table"`
	TimeColumn string `json:"time_column"`
	Grain      string `json:"grain"`
	Metric     Metric `json:"metric"`
	Unit       string `json:"unit"`
	Count      int    `json:"count"`
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func bucketExpr(grain, timeColumn string) (string, error) {
	if !ValidGrains[grain] {
		return "", fmt.Errorf("invalid grain: %q", grain)
	}
	if err := ValidateIdentifier(timeColumn); err != nil {
		return "", err
	}

	// grain is checked against ValidGrains
	return fmt.Sprintf("DATE_TRUNC('%s', %s) AS time_bucket", grain, timeColumn), nil
}

// alias lowercases the metric name and replaces whitespace runs with "_".
func alias(m Metric) string {
	name := m.Name
	if name == "" {
		name = m.Aggregation
		if m.Column != "*" {
			name += " " + strings.ReplaceAll(strings.Trim(m.Column, "`"), ".", "_")
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

func metricExpr(m Metric, as string) (string, error) {
	fn, ok := ValidAggregations[strings.ToLower(m.Aggregation)]
	if !ok {
		return "", fmt.Errorf("invalid aggregation: %q", m.Aggregation)
	}

	if !(m.Column == "*" && fn == "COUNT") {
		if err := ValidateIdentifier(m.Column); err != nil {
			return "", err
		}
	}
	if err := ValidateIdentifier(as); err != nil {
		return "", fmt.Errorf("metric alias: %w", err)
	}

	return fmt.Sprintf("%s(%s) AS %s", fn, m.Column, as), nil
}

func sinceExpr(timeColumn, unit string, count int) (string, error) {
	u, ok := validUnits[strings.ToLower(unit)]
	if !ok {
		return "", fmt.Errorf("invalid lookback unit: %q", unit)
	}
	if count <= 0 {
		return "", errors.New("lookback count must be positive")
	}

	return fmt.Sprintf("%s >= DATEADD(%s, -%d, CURRENT_DATE())", timeColumn, u, count), nil
}

// Timeseries returns a statement that buckets table by grain and aggregates
// every metric per bucket, newest bucket first. Without metrics it counts rows.
func Timeseries(req TimeseriesRequest) (string, error) {
	if err := ValidateIdentifier(req.Table); err != nil {
		return "", err
	}

	timeColumn := defaultString(req.TimeColumn, DefaultTimeColumn)

	bucket, err := bucketExpr(defaultString(req.Grain, DefaultGrain), timeColumn)
	if err != nil {
		return "", err
	}

	columns := []string{bucket}
	if len(req.Metrics) == 0 {
		columns = append(columns, "COUNT(*) AS count")
	}
	for _, m := range req.Metrics {
		expr, err := metricExpr(m, alias(m))
		if err != nil {
			return "", err
		}
		columns = append(columns, expr)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultTimeseriesLimit
	}

	qb := sq.Select(columns...).From(req.Table)

	if req.Lookback != nil {
		since, err := sinceExpr(timeColumn, req.Lookback.Unit, req.Lookback.Count)
		if err != nil {
			return "", err
		}
		qb = qb.Where(since)
	}

	query, _, err := qb.
		GroupBy("time_bucket").
		OrderBy("time_bucket DESC").
		Limit(uint64(limit)). // #nosec G115 -- positive
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building timeseries query: %w", err)
	}

	return query, nil
}

// PeriodOverPeriod returns a statement with current_value, previous_value and
// pct_change per bucket.
func PeriodOverPeriod(req PeriodOverPeriodRequest) (string, error) {
	if err := ValidateIdentifier(req.Table); err != nil {
		return "", err
	}

	timeColumn := defaultString(req.TimeColumn, DefaultTimeColumn)

	bucket, err := bucketExpr(defaultString(req.Grain, DefaultGrain), timeColumn)
	if err != nil {
		return "", err
	}
	value, err := metricExpr(req.Metric, "value")
	if err != nil {
		return "", err
	}

	current, err := sinceExpr(timeColumn, req.Unit, req.Count)
	if err != nil {
		return "", err
	}
	previous, err := sinceExpr(timeColumn, req.Unit, req.Count*2)
	if err != nil {
		return "", err
	}
	// strict upper bound of the previous window is the start of the current one
	before := strings.Replace(current, ">=", "<", 1)

	currentSQL, _, err := sq.Select(bucket, value).
		From(req.Table).
		Where(current).
		GroupBy("time_bucket").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building current period: %w", err)
	}

	previousSQL, _, err := sq.Select(bucket, value).
		From(req.Table).
		Where(previous).
		Where(before).
		GroupBy("time_bucket").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building previous period: %w", err)
	}

	query, _, err := sq.Select(
		"c.time_bucket",
		"c.value AS current_value",
		"p.value AS previous_value",
		"((c.value - p.value) / NULLIF(p.value, 0)) * 100 AS pct_change",
	).
		Prefix(fmt.Sprintf("WITH current_period AS (%s), previous_period AS (%s)", currentSQL, previousSQL)).
		From("current_period c").
		LeftJoin("previous_period p ON c.time_bucket = p.time_bucket").
		OrderBy("c.time_bucket DESC").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building period over period query: %w", err)
	}

	return query, nil
}
