package feature

import (
	"strings"
	"testing"

	"cardealworker/internal/ad"

	"github.com/stretchr/testify/assert"
)

func makeRecord(id int64, price float64, technical map[string]string, features []string) ad.Record {
	if technical == nil {
		technical = map[string]string{}
	}
	return ad.Record{
		AdID: id,
		Web: ad.WebData{
			Technical: technical,
			Features:  features,
		},
		Dart: ad.DartData{
			Ad:           ad.DartAd{Price: ad.FlexNumber{Value: price, Set: true}},
			FirstRegYear: ad.FlexNumber{Value: 2012, Set: true},
			Fuel:         "Benzin",
		},
	}
}

func (m *Matrix) value(t *testing.T, rowIdx int, column string) float64 {
	t.Helper()
	idx := m.ColumnIndex(column)
	assert.GreaterOrEqual(t, idx, 0, "column %s not in matrix", column)
	return m.Rows[rowIdx][idx]
}

func TestFitEmptyBatch(t *testing.T) {
	_, err := Fit(nil)
	assert.Error(t, err)
}

func TestFeatureTagUniverse(t *testing.T) {
	records := []ad.Record{
		makeRecord(1, 9999, nil, []string{"Klimaanlage", "Sitzheizung"}),
		makeRecord(2, 12500, nil, []string{"Sitzheizung", "Navigationssystem"}),
		makeRecord(3, 8000, nil, nil),
	}

	schema, err := Fit(records)
	assert.NoError(t, err)

	// the column universe is the union over the whole batch
	for _, tag := range []string{"Klimaanlage", "Sitzheizung", "Navigationssystem"} {
		assert.Contains(t, schema.Columns, "feature_"+tag)
	}

	m := schema.Transform(records)
	assert.Equal(t, 1.0, m.value(t, 0, "feature_Klimaanlage"))
	assert.Equal(t, 1.0, m.value(t, 0, "feature_Sitzheizung"))
	assert.Equal(t, 0.0, m.value(t, 0, "feature_Navigationssystem"))
	// a record without tags gets explicit zeros, not absence
	assert.Equal(t, 0.0, m.value(t, 2, "feature_Klimaanlage"))
	assert.Equal(t, 0.0, m.value(t, 2, "feature_Sitzheizung"))
}

func TestNumericExtractionAndTarget(t *testing.T) {
	records := []ad.Record{
		makeRecord(1, 9999, map[string]string{
			"mileage":       "150.000 km",
			"cubicCapacity": "1.595 cm³",
			"power":         "90 kW (122 PS)",
		}, nil),
	}

	schema, err := Fit(records)
	assert.NoError(t, err)
	m := schema.Transform(records)

	assert.Equal(t, 9999.0, m.value(t, 0, "price"))
	assert.Equal(t, 150000.0, m.value(t, 0, "mileage_in_km"))
	assert.Equal(t, 1595.0, m.value(t, 0, "cc"))
	assert.Equal(t, 122.0, m.value(t, 0, "power_ps"))
	assert.Equal(t, 2012.0, m.value(t, 0, "first_reg_year"))
}

func TestHuNeuMapsToSentinel(t *testing.T) {
	records := []ad.Record{
		makeRecord(1, 9999, map[string]string{"hu": "Neu"}, nil),
	}

	schema, err := Fit(records)
	assert.NoError(t, err)
	m := schema.Transform(records)
	assert.Equal(t, 2.0, m.value(t, 0, "time_to_hu_years"))
}

func TestTransformImputesFrozenMeans(t *testing.T) {
	records := []ad.Record{
		makeRecord(1, 9999, map[string]string{"mileage": "100.000"}, nil),
		makeRecord(2, 12500, map[string]string{"mileage": "200.000"}, nil),
		makeRecord(3, 8000, nil, nil), // missing mileage
	}

	schema, err := Fit(records)
	assert.NoError(t, err)
	assert.Equal(t, 150000.0, schema.Means["mileage_in_km"])

	m := schema.Transform(records)
	assert.Equal(t, 150000.0, m.value(t, 2, "mileage_in_km"), "missing numerics take the training mean")
}

func TestMissingDistinctFromZero(t *testing.T) {
	records := []ad.Record{
		makeRecord(1, 9999, map[string]string{"numberOfPreviousOwners": "0"}, nil),
		makeRecord(2, 12500, map[string]string{"numberOfPreviousOwners": "4"}, nil),
		makeRecord(3, 8000, nil, nil),
	}

	schema, err := Fit(records)
	assert.NoError(t, err)

	// the absent attribute must not drag the mean toward zero
	assert.Equal(t, 2.0, schema.Means["prev_owners"])

	m := schema.Transform(records)
	assert.Equal(t, 0.0, m.value(t, 0, "prev_owners"))
	assert.Equal(t, 2.0, m.value(t, 2, "prev_owners"))
}

func TestInteriorSplit(t *testing.T) {
	records := []ad.Record{
		makeRecord(1, 9999, map[string]string{"interior": "Vollleder, Schwarz"}, nil),
		makeRecord(2, 12500, map[string]string{"interior": "Stoff"}, nil),
	}

	schema, err := Fit(records)
	assert.NoError(t, err)
	m := schema.Transform(records)

	assert.Equal(t, 1.0, m.value(t, 0, "interior_type_Vollleder"))
	assert.Equal(t, 1.0, m.value(t, 0, "interior_color_Schwarz"))
	assert.Equal(t, 1.0, m.value(t, 1, "interior_type_Stoff"))
	// no second comma part means the color takes the missing level
	assert.Equal(t, 1.0, m.value(t, 1, "interior_color_nan"))
}

func TestCategoricalNaNLevel(t *testing.T) {
	records := []ad.Record{
		makeRecord(1, 9999, map[string]string{"transmission": "Schaltgetriebe"}, nil),
		makeRecord(2, 12500, nil, nil),
	}

	schema, err := Fit(records)
	assert.NoError(t, err)
	m := schema.Transform(records)

	assert.Equal(t, 1.0, m.value(t, 0, "transmission_Schaltgetriebe"))
	assert.Equal(t, 0.0, m.value(t, 0, "transmission_nan"))
	assert.Equal(t, 1.0, m.value(t, 1, "transmission_nan"))
}

func TestAlignKeepsFitTimeReference(t *testing.T) {
	records := []ad.Record{
		makeRecord(1, 9999, map[string]string{"firstRegistration": "03/2015", "hu": "11/2026"}, nil),
	}

	schema, err := Fit(records)
	assert.NoError(t, err)

	// ages must come from the instant captured at fit time, not from a
	// fresh clock read inside Align
	trained := schema.Transform(records)
	aligned := schema.Align(records)
	assert.Equal(t, trained.value(t, 0, "car_age_years"), aligned.value(t, 0, "car_age_years"))
	assert.Equal(t, trained.value(t, 0, "time_to_hu_years"), aligned.value(t, 0, "time_to_hu_years"))
}

func TestAlignRestrictsToTrainedColumns(t *testing.T) {
	training := []ad.Record{
		makeRecord(1, 9999, map[string]string{"transmission": "Schaltgetriebe"}, []string{"Klimaanlage"}),
		makeRecord(2, 12500, map[string]string{"transmission": "Automatik"}, nil),
	}
	schema, err := Fit(training)
	assert.NoError(t, err)

	// an inference batch with zero overlapping categorical levels
	inference := []ad.Record{
		makeRecord(3, 7000, map[string]string{"transmission": "Halbautomatik"}, []string{"Standheizung"}),
	}
	m := schema.Align(inference)

	assert.Equal(t, schema.Columns, m.Columns, "alignment never introduces new columns")
	// the unseen transmission level falls into the nan bucket
	assert.Equal(t, 0.0, m.value(t, 0, "transmission_Schaltgetriebe"))
	assert.Equal(t, 0.0, m.value(t, 0, "transmission_Automatik"))
	assert.Equal(t, 1.0, m.value(t, 0, "transmission_nan"))
	// the unseen tag produced no column at all
	for _, col := range m.Columns {
		assert.False(t, strings.Contains(col, "Standheizung"))
	}
}

func TestAlignZeroFillsMissing(t *testing.T) {
	training := []ad.Record{
		makeRecord(1, 9999, map[string]string{"mileage": "100.000"}, nil),
		makeRecord(2, 12500, map[string]string{"mileage": "200.000"}, nil),
	}
	schema, err := Fit(training)
	assert.NoError(t, err)

	inference := []ad.Record{makeRecord(3, 7000, nil, nil)}
	m := schema.Align(inference)

	// inference zero-fills instead of mean-imputing
	assert.Equal(t, 0.0, m.value(t, 0, "mileage_in_km"))
}

func TestSplitTarget(t *testing.T) {
	records := []ad.Record{
		makeRecord(1, 9999, map[string]string{"mileage": "100.000"}, nil),
		makeRecord(2, 12500, map[string]string{"mileage": "200.000"}, nil),
	}
	schema, err := Fit(records)
	assert.NoError(t, err)
	m := schema.Transform(records)

	X, y := m.SplitTarget("price")
	assert.Equal(t, []float64{9999, 12500}, y)
	assert.Len(t, X, 2)
	assert.Len(t, X[0], len(m.Columns)-1)
}
