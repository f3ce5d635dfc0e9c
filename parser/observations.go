package parser

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/crunchsb/levy/model"
	"github.com/pkg/errors"
)

var defaultTimeFormats = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// observation is one row of a long-format file.
type observation struct {
	id     string
	order  int64
	date   *time.Time
	value  float64
	period *int
}

// parseValue reads a float and reports false for blanks and NaN, which
// mark missing observations.
func parseValue(in string) (float64, bool, error) {
	in = strings.TrimSpace(in)
	if in == "" {
		return 0, false, nil
	}

	v, err := strconv.ParseFloat(in, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "parsing value '%s'", in)
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	if math.IsInf(v, 0) {
		return 0, false, errors.Errorf("value '%s' is not finite", in)
	}
	return v, true, nil
}

// parseTime accepts integer time steps or timestamps. Integer steps
// carry no date. Timestamps order by their unix nanoseconds.
func parseTime(in, format string) (int64, *time.Time, error) {
	in = strings.TrimSpace(in)
	if step, err := strconv.ParseInt(in, 10, 64); err == nil {
		return step, nil, nil
	}

	formats := defaultTimeFormats
	if format != "" {
		formats = []string{format}
	}
	for _, layout := range formats {
		if ts, err := time.Parse(layout, in); err == nil {
			return ts.UnixNano(), &ts, nil
		}
	}

	return 0, nil, errors.Errorf("cannot parse time '%s'", in)
}

func parsePeriod(in string) (*int, error) {
	in = strings.TrimSpace(in)
	if in == "" {
		return nil, nil
	}

	if p, err := strconv.Atoi(in); err == nil {
		return &p, nil
	}
	f, err := strconv.ParseFloat(in, 64)
	if err != nil || f != math.Trunc(f) {
		return nil, errors.Errorf("period '%s' is not an integer", in)
	}
	p := int(f)
	return &p, nil
}

// groupObservations splits rows into series in first seen order and sorts
// each series by time. Dates and periods are kept only when every row of
// the series has one.
func groupObservations(rows []observation) []model.Series {
	order := []string{}
	groups := map[string][]observation{}
	for _, row := range rows {
		if _, ok := groups[row.id]; !ok {
			order = append(order, row.id)
		}
		groups[row.id] = append(groups[row.id], row)
	}

	out := make([]model.Series, 0, len(order))
	for _, id := range order {
		group := groups[id]
		sort.SliceStable(group, func(i, j int) bool { return group[i].order < group[j].order })

		s := model.Series{ID: id, Values: make([]float64, len(group))}
		dates := make([]time.Time, 0, len(group))
		periods := make([]int, 0, len(group))
		for i, row := range group {
			s.Values[i] = row.value
			if row.date != nil {
				dates = append(dates, *row.date)
			}
			if row.period != nil {
				periods = append(periods, *row.period)
			}
		}
		if len(dates) == len(group) {
			s.Dates = dates
		}
		if len(periods) == len(group) {
			s.Periods = periods
		}

		out = append(out, s)
	}
	return out
}
