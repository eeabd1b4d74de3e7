// Package infer derives column profiles from raw tabular samples: a simple
// order-preserving row truncation and a deterministic column datatype
// inferencer.
package infer

import (
	"regexp"
	"strings"

	"github.com/dataforge/dataforge/internal/core"
)

// MaxSampleValues caps the per-column sample carried in a profile.
const MaxSampleValues = 3

var (
	booleanPattern = regexp.MustCompile(`^(?i)(true|false|yes|no|0|1)$`)
	numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern   = regexp.MustCompile(`^[\d\s+()-]{10,}$`)
)

// ExtractSample returns the first limit rows in their original order. It
// never reorders or samples randomly; empty input yields empty output.
func ExtractSample(rows []map[string]string, limit int) []map[string]string {
	if limit < 0 {
		limit = 0
	}
	if len(rows) <= limit {
		return rows
	}
	return rows[:limit]
}

// InferColumnType classifies a column from its values. Rules apply in fixed
// precedence over the non-empty subset:
//
//  1. boolean: every value matches a boolean token
//  2. integer/float: every value is numeric; float when any carries a dot
//  3. date: any value starts with an ISO date
//  4. email: any value looks like an address
//  5. url: any value has an http(s) scheme
//  6. phone: any value is >=10 chars of digits/space/+/-/parens
//  7. string: everything else
//
// Rules 1-2 require all values to match while 3-6 fire on any match; that
// asymmetry is load-bearing. A column of all-digit strings with one date-like
// outlier never reaches rule 3, because rule 2 already fully matched.
func InferColumnType(values []string) core.ColumnType {
	present := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			present = append(present, trimmed)
		}
	}
	if len(present) == 0 {
		return core.ColumnString
	}

	if allMatch(present, booleanPattern) {
		return core.ColumnBoolean
	}

	if allMatch(present, numericPattern) {
		for _, value := range present {
			if strings.Contains(value, ".") {
				return core.ColumnFloat
			}
		}
		return core.ColumnInteger
	}

	switch {
	case anyMatch(present, datePattern):
		return core.ColumnDate
	case anyMatch(present, emailPattern):
		return core.ColumnEmail
	case anyURL(present):
		return core.ColumnURL
	case anyMatch(present, phonePattern):
		return core.ColumnPhone
	}

	return core.ColumnString
}

// ProfileColumns builds a profile per named column from sample rows. Sample
// values keep row order and are capped at MaxSampleValues.
func ProfileColumns(names []string, rows []map[string]string) []core.ColumnProfile {
	profiles := make([]core.ColumnProfile, 0, len(names))
	for _, name := range names {
		values := make([]string, 0, len(rows))
		for _, row := range rows {
			if value, ok := row[name]; ok && strings.TrimSpace(value) != "" {
				values = append(values, value)
			}
		}

		samples := values
		if len(samples) > MaxSampleValues {
			samples = samples[:MaxSampleValues]
		}

		profiles = append(profiles, core.ColumnProfile{
			Name:         name,
			Datatype:     InferColumnType(values),
			SampleValues: samples,
		})
	}
	return profiles
}

func allMatch(values []string, pattern *regexp.Regexp) bool {
	for _, value := range values {
		if !pattern.MatchString(value) {
			return false
		}
	}
	return true
}

func anyMatch(values []string, pattern *regexp.Regexp) bool {
	for _, value := range values {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

func anyURL(values []string) bool {
	for _, value := range values {
		if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
			return true
		}
	}
	return false
}
