package feature

import (
	"math"
	"sort"
	"time"

	"cardealworker/helpers"
	"cardealworker/internal/ad"
	errs "cardealworker/pkg/errors"
)

// Numeric feature columns, in matrix order after the target.
var numericOrder = []string{
	"first_reg_year",
	"mileage_in_km",
	"car_age_years",
	"time_to_hu_years",
	"power_ps",
	"cc",
	"prev_owners",
}

// Free-text technical attributes retained as categorical columns.
var categoricalTechnical = []string{
	"emissionClass",
	"climatisation",
	"countryVersion",
	"damageCondition",
	"export",
	"transmission",
}

// All categorical columns. The interior attribute is split on its
// first comma into a coarse type and an optional color before
// one-hot expansion.
var categoricalOrder = append(
	[]string{"fuel", "interior_type", "interior_color"},
	categoricalTechnical...,
)

type colKind int

const (
	colTarget colKind = iota
	colNumeric
	colFlag    // boolean feature tag column
	colLevel   // one-hot categorical level
	colNALevel // one-hot missing/unknown level
)

type encodedColumn struct {
	name   string
	kind   colKind
	source string // numeric column, tag, or categorical column
	level  string
}

// Schema is the frozen result of fitting the pipeline over a training
// batch: the encoded column universe, the categorical level sets, and
// the per-column imputation means. Transform and Align are pure with
// respect to it, so it cleanly separates batch-dependent state from
// per-record logic. That includes the reference instant for the age
// columns: it is captured once at fit time and reused by Align, so a
// record encodes identically however long after training it is scored.
type Schema struct {
	Columns []string
	// Means holds the per-numeric-column training means, frozen at fit
	// time. They must travel with the trained model; recomputing them
	// from an inference batch would leak mismatched statistics.
	Means map[string]float64

	cols    []encodedColumn
	levels  map[string]map[string]bool
	refTime time.Time
}

// Fit derives the schema from a training batch. Feature generation has
// to see the whole batch: the tag universe and categorical level sets
// are unions over every record.
func Fit(records []ad.Record) (*Schema, error) {
	if len(records) == 0 {
		return nil, errs.NewValidation(component, "cannot fit a schema on an empty batch")
	}

	refTime := time.Now()
	rows := make([]rawRow, len(records))
	for i := range records {
		rows[i] = newRawRow(&records[i], refTime)
	}

	tagSet := make(map[string]bool)
	levels := make(map[string]map[string]bool)
	for _, col := range categoricalOrder {
		levels[col] = make(map[string]bool)
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, row := range rows {
		for tag := range row.tags {
			tagSet[tag] = true
		}
		for col, level := range row.categorical {
			if level != "" {
				levels[col][level] = true
			}
		}
		for col, v := range row.numeric {
			if !math.IsNaN(v) {
				sums[col] += v
				counts[col]++
			}
		}
	}

	means := make(map[string]float64, len(numericOrder))
	for _, col := range numericOrder {
		if counts[col] > 0 {
			means[col] = sums[col] / float64(counts[col])
		} else {
			means[col] = 0
		}
	}

	cols := []encodedColumn{{name: "price", kind: colTarget}}
	for _, col := range numericOrder {
		cols = append(cols, encodedColumn{name: col, kind: colNumeric, source: col})
	}
	for _, tag := range sortedKeys(tagSet) {
		cols = append(cols, encodedColumn{name: "feature_" + tag, kind: colFlag, source: tag})
	}
	for _, col := range categoricalOrder {
		for _, level := range sortedKeys(levels[col]) {
			cols = append(cols, encodedColumn{name: col + "_" + level, kind: colLevel, source: col, level: level})
		}
		// explicit missing/unknown level so inference-time rows with
		// unseen categories degrade instead of erroring
		cols = append(cols, encodedColumn{name: col + "_nan", kind: colNALevel, source: col})
	}

	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.name
	}

	return &Schema{
		Columns: names,
		Means:   means,
		cols:    cols,
		levels:  levels,
		refTime: refTime,
	}, nil
}

// Transform encodes a batch in training mode: missing numerics are
// imputed with the frozen column means.
func (s *Schema) Transform(records []ad.Record) *Matrix {
	return s.build(records, func(col string) float64 {
		return s.Means[col]
	})
}

// Align encodes a batch in inference mode against the trained column
// set. Columns the batch cannot produce stay zero and residual missing
// numerics are zero-filled, not mean-imputed; the asymmetry with
// Transform is deliberate. Align never fails and never emits a column
// outside the schema.
func (s *Schema) Align(records []ad.Record) *Matrix {
	return s.build(records, func(string) float64 {
		return 0
	})
}

func (s *Schema) build(records []ad.Record, impute func(col string) float64) *Matrix {
	matrix := &Matrix{
		Columns: s.Columns,
		IDs:     make([]int64, len(records)),
		Rows:    make([][]float64, len(records)),
	}

	for i := range records {
		row := newRawRow(&records[i], s.refTime)
		matrix.IDs[i] = row.id
		out := make([]float64, len(s.cols))

		for j, col := range s.cols {
			switch col.kind {
			case colTarget:
				out[j] = row.price
			case colNumeric:
				v := row.numeric[col.source]
				if math.IsNaN(v) {
					v = impute(col.source)
				}
				out[j] = v
			case colFlag:
				if row.tags[col.source] {
					out[j] = 1
				}
			case colLevel:
				if row.categorical[col.source] == col.level {
					out[j] = 1
				}
			case colNALevel:
				level := row.categorical[col.source]
				if level == "" || !s.levels[col.source][level] {
					out[j] = 1
				}
			}
		}
		matrix.Rows[i] = out
	}
	return matrix
}

// rawRow is the intermediate, batch-independent representation of one
// record. NaN marks a missing numeric, "" a missing categorical; both
// are distinguishable from genuine zeros downstream.
type rawRow struct {
	id          int64
	price       float64
	numeric     map[string]float64
	categorical map[string]string
	tags        map[string]bool
}

func newRawRow(record *ad.Record, now time.Time) rawRow {
	row := rawRow{
		id:          record.AdID,
		price:       record.Dart.Ad.Price.Value,
		numeric:     make(map[string]float64, len(numericOrder)),
		categorical: make(map[string]string, len(categoricalOrder)),
		tags:        make(map[string]bool, len(record.Web.Features)),
	}

	missing := math.NaN()
	tech := record.Web.Technical

	if record.Dart.FirstRegYear.Set {
		row.numeric["first_reg_year"] = record.Dart.FirstRegYear.Value
	} else {
		row.numeric["first_reg_year"] = missing
	}

	row.numeric["mileage_in_km"] = numericFrom(tech, "mileage", ExtractNumber)
	row.numeric["cc"] = numericFrom(tech, "cubicCapacity", ExtractNumber)
	row.numeric["power_ps"] = numericFrom(tech, "power", SecondNumber)
	row.numeric["prev_owners"] = numericFrom(tech, "numberOfPreviousOwners", ExtractNumber)

	row.numeric["car_age_years"] = missing
	if s, ok := tech["firstRegistration"]; ok {
		if age, err := YearsSince(s, now); err == nil {
			row.numeric["car_age_years"] = age
		}
	}

	row.numeric["time_to_hu_years"] = missing
	if s, ok := tech["hu"]; ok {
		if years, err := YearsUntil(s, now); err == nil {
			row.numeric["time_to_hu_years"] = years
		}
	}

	row.categorical["fuel"] = record.Dart.Fuel
	row.categorical["interior_type"] = ""
	row.categorical["interior_color"] = ""
	if interior, ok := tech["interior"]; ok && interior != "" {
		if part, err := helpers.GetSplitPart(interior, ", ", 0); err == nil {
			row.categorical["interior_type"] = part
		}
		if part, err := helpers.GetSplitPart(interior, ", ", 1); err == nil {
			row.categorical["interior_color"] = part
		}
	}
	for _, col := range categoricalTechnical {
		row.categorical[col] = tech[col]
	}

	for _, tag := range record.Web.Features {
		row.tags[tag] = true
	}

	return row
}

// numericFrom extracts a numeric technical attribute, mapping both
// absence and parse failure to the missing sentinel.
func numericFrom(tech map[string]string, key string, parse func(string) (int, error)) float64 {
	s, ok := tech[key]
	if !ok {
		return math.NaN()
	}
	n, err := parse(s)
	if err != nil {
		return math.NaN()
	}
	return float64(n)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
