package export

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/crunchsb/levy"
	"github.com/crunchsb/levy/model"
)

type columnKind int

const (
	stringColumn columnKind = iota
	intColumn
	floatColumn
	dateColumn
)

type column struct {
	name string
	kind columnKind
}

// table is the format-neutral shape shared by the tabular writers. Cells
// hold string, int, float64 or time.Time values; nil marks a missing
// value.
type table struct {
	name    string
	columns []column
	rows    [][]interface{}
}

func (t table) header() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.name
	}
	return out
}

func floatCell(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func floatPtrCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return floatCell(*v)
}

func intPtrCell(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func dateCell(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// formatCell renders a cell as text; missing values are empty.
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(levy.ShortDateFormat)
		}
		return val.Format(time.RFC3339)
	default:
		return ""
	}
}

const (
	summaryTableName    = "summary"
	featuresTableName   = "features"
	breaksTableName     = "breaks"
	consistentTableName = "consistent_breaks"
	monthlyTableName    = "breaks_by_month"
)

func featureTable(rows []model.FeatureRow) table {
	names := model.FeatureColumns(rows)
	hasLabels := false
	for _, row := range rows {
		if row.Label != nil {
			hasLabels = true
			break
		}
	}

	t := table{name: featuresTableName, columns: []column{{name: "series_id", kind: stringColumn}}}
	if hasLabels {
		t.columns = append(t.columns, column{name: "label", kind: intColumn})
	}
	for _, name := range names {
		t.columns = append(t.columns, column{name: name, kind: floatColumn})
	}

	for _, row := range rows {
		cells := []interface{}{row.SeriesID}
		if hasLabels {
			if row.Label != nil {
				cells = append(cells, *row.Label)
			} else {
				cells = append(cells, nil)
			}
		}
		for _, name := range names {
			v, ok := row.Features.Get(name)
			if !ok {
				cells = append(cells, nil)
				continue
			}
			cells = append(cells, floatPtrCell(v.Ptr()))
		}
		t.rows = append(t.rows, cells)
	}
	return t
}

func breakTable(rows []model.BreakRow) table {
	kinds := []columnKind{stringColumn, floatColumn, intColumn, intColumn, dateColumn, floatColumn, floatColumn, floatColumn, floatColumn}
	t := table{name: breaksTableName}
	for i, name := range model.BreakRowColumns() {
		t.columns = append(t.columns, column{name: name, kind: kinds[i]})
	}

	for _, row := range rows {
		t.rows = append(t.rows, []interface{}{
			row.SeriesID,
			row.Tau,
			row.BreakSectionIndex,
			row.BreakIndex,
			dateCell(row.BreakDate),
			floatCell(row.MeanBefore),
			floatCell(row.MeanAfter),
			floatCell(row.ChangeRatio),
			floatCell(row.PValue),
		})
	}
	return t
}

func summaryTable(rows []model.SeriesSummary) table {
	t := table{
		name: summaryTableName,
		columns: []column{
			{name: "series_id", kind: stringColumn},
			{name: "status", kind: stringColumn},
			{name: "error", kind: stringColumn},
			{name: "n_observations", kind: intColumn},
			{name: "n_sections", kind: intColumn},
			{name: "n_breaks", kind: intColumn},
			{name: "mean_duration", kind: floatColumn},
			{name: "std_duration", kind: floatColumn},
			{name: "cv_duration", kind: floatColumn},
			{name: "norm_kurtosis", kind: floatColumn},
			{name: "shapiro_pvalue", kind: floatColumn},
			{name: "boundary_index", kind: intColumn},
			{name: "boundary_break_distance", kind: intColumn},
		},
	}

	for _, row := range rows {
		if row.Status == model.SummaryError {
			t.rows = append(t.rows, []interface{}{
				row.SeriesID, string(row.Status), row.Error, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil,
			})
			continue
		}
		t.rows = append(t.rows, []interface{}{
			row.SeriesID,
			string(row.Status),
			nil,
			row.Observations,
			row.Sections,
			row.Breaks,
			floatCell(row.MeanDuration),
			floatCell(row.StdDuration),
			floatPtrCell(row.CVDuration),
			floatPtrCell(row.NormKurtosis),
			floatPtrCell(row.ShapiroPValue),
			intPtrCell(row.BoundaryIndex),
			intPtrCell(row.BreakDistance),
		})
	}
	return t
}

func consistentTable(rows []model.ConsistentBreak) table {
	t := table{
		name: consistentTableName,
		columns: []column{
			{name: "series_id", kind: stringColumn},
			{name: "month", kind: stringColumn},
			{name: "n_taus", kind: intColumn},
			{name: "taus", kind: stringColumn},
			{name: "mean_change_ratio", kind: floatColumn},
			{name: "first_date", kind: dateColumn},
		},
	}

	for _, row := range rows {
		taus := make([]string, len(row.Taus))
		for i, tau := range row.Taus {
			taus[i] = strconv.FormatFloat(tau, 'g', -1, 64)
		}
		first := row.FirstDate
		t.rows = append(t.rows, []interface{}{
			row.SeriesID,
			row.Month,
			row.Count,
			strings.Join(taus, ";"),
			floatCell(row.MeanChangeRatio),
			dateCell(&first),
		})
	}
	return t
}

func monthlyTable(rows []model.MonthlyBreaks) table {
	t := table{
		name: monthlyTableName,
		columns: []column{
			{name: "month", kind: stringColumn},
			{name: "n_breaks", kind: intColumn},
			{name: "mean_change_ratio", kind: floatColumn},
		},
	}

	for _, row := range rows {
		t.rows = append(t.rows, []interface{}{row.Month, row.Count, floatCell(row.MeanChangeRatio)})
	}
	return t
}
