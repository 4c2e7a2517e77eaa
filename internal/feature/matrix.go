package feature

// Matrix is the numeric design matrix fed to the regressor, one row
// per record, keyed by ad id.
type Matrix struct {
	Columns []string
	IDs     []int64
	Rows    [][]float64
}

// ColumnIndex returns the position of a column, or -1.
func (m *Matrix) ColumnIndex(name string) int {
	for i, col := range m.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// SplitTarget separates the target column from the rest of the matrix,
// returning the remaining feature rows and the target vector.
func (m *Matrix) SplitTarget(target string) ([][]float64, []float64) {
	idx := m.ColumnIndex(target)
	if idx < 0 {
		return m.Rows, nil
	}

	X := make([][]float64, len(m.Rows))
	y := make([]float64, len(m.Rows))
	for i, row := range m.Rows {
		features := make([]float64, 0, len(row)-1)
		features = append(features, row[:idx]...)
		features = append(features, row[idx+1:]...)
		X[i] = features
		y[i] = row[idx]
	}
	return X, y
}
