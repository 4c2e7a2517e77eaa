package predict

import (
	"math"

	"cardealworker/internal/ad"
	"cardealworker/internal/feature"
	"cardealworker/logger"
	errs "cardealworker/pkg/errors"
)

const crossValFolds = 5

// Regressor is the model contract the predictor trains and queries.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) float64
	Score(X [][]float64, y []float64) float64
}

// Factory builds a fresh untrained regressor. Cross-validation needs
// one per fold.
type Factory func() Regressor

// Predictor turns scraped records into a trained price model and
// scores new records against it.
type Predictor struct {
	factory       Factory
	crossValidate bool

	schema    *feature.Schema
	regressor Regressor
	log       *logger.Logger
}

// New creates a predictor that trains regressors from the given factory.
func New(factory Factory, crossValidate bool) *Predictor {
	return &Predictor{
		factory:       factory,
		crossValidate: crossValidate,
		log:           logger.ForPredictor(),
	}
}

// Trained reports whether Train has completed at least once.
func (p *Predictor) Trained() bool {
	return p.schema != nil && p.regressor != nil
}

// Train fits a fresh schema and regressor on the batch. The previous
// model stays in place if anything fails.
func (p *Predictor) Train(records []ad.Record) error {
	schema, err := feature.Fit(records)
	if err != nil {
		return err
	}

	matrix := schema.Transform(records)
	X, y := matrix.SplitTarget("price")

	regressor := p.factory()
	if err := regressor.Fit(X, y); err != nil {
		return err
	}

	p.log.Info().
		Int("rows", len(X)).
		Int("columns", len(matrix.Columns)).
		Float64("r2", regressor.Score(X, y)).
		Msg("Model trained")

	if p.crossValidate {
		if mean, std, ok := p.crossValScore(X, y); ok {
			p.log.Info().
				Int("folds", crossValFolds).
				Float64("r2_mean", mean).
				Float64("r2_std", std).
				Msg("Cross-validation complete")
		}
	}

	p.schema = schema
	p.regressor = regressor
	return nil
}

// Predict scores records against the trained model. Rows with a
// corrupted actual price or a degenerate inferred price are logged and
// dropped rather than failing the batch.
func (p *Predictor) Predict(records []ad.Record) ([]ad.PricePrediction, error) {
	if !p.Trained() {
		return nil, errs.NewValidation("predictor", "predict called before a model was trained")
	}

	records = ad.DedupeLastWins(records)
	matrix := p.schema.Align(records)
	X, y := matrix.SplitTarget("price")

	predictions := make([]ad.PricePrediction, 0, len(X))
	for i := range X {
		actual := y[i]
		if math.IsNaN(actual) || actual <= 0 {
			p.log.Warn().
				Int64("ad_id", matrix.IDs[i]).
				Float64("price_actual", actual).
				Msg("Skipping row with corrupted actual price")
			continue
		}

		inferred := p.regressor.Predict(X[i])
		if math.IsNaN(inferred) || math.IsInf(inferred, 0) {
			p.log.Warn().
				Int64("ad_id", matrix.IDs[i]).
				Float64("price_inferred", inferred).
				Msg("Skipping row with degenerate inferred price")
			continue
		}

		difference := int(actual) - int(inferred)
		predictions = append(predictions, ad.PricePrediction{
			AdID:          matrix.IDs[i],
			URL:           records[i].URL,
			PriceActual:   int(actual),
			PriceInferred: int(inferred),
			Difference:    difference,
			IsCheap:       difference < 0,
		})
	}
	return predictions, nil
}

// crossValScore runs k-fold cross-validation with contiguous folds,
// training a fresh regressor per fold. Returns false when the batch is
// too small to fold.
func (p *Predictor) crossValScore(X [][]float64, y []float64) (mean, std float64, ok bool) {
	n := len(X)
	if n < crossValFolds*2 {
		p.log.Warn().
			Int("rows", n).
			Msg("Too few rows for cross-validation")
		return 0, 0, false
	}

	scores := make([]float64, 0, crossValFolds)
	foldSize := n / crossValFolds
	for fold := 0; fold < crossValFolds; fold++ {
		lo := fold * foldSize
		hi := lo + foldSize
		if fold == crossValFolds-1 {
			hi = n
		}

		trainX := make([][]float64, 0, n-(hi-lo))
		trainY := make([]float64, 0, n-(hi-lo))
		trainX = append(trainX, X[:lo]...)
		trainX = append(trainX, X[hi:]...)
		trainY = append(trainY, y[:lo]...)
		trainY = append(trainY, y[hi:]...)

		regressor := p.factory()
		if err := regressor.Fit(trainX, trainY); err != nil {
			p.log.Warn().
				Int("fold", fold).
				Err(err).
				Msg("Cross-validation fold failed")
			return 0, 0, false
		}
		scores = append(scores, regressor.Score(X[lo:hi], y[lo:hi]))
	}

	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	for _, s := range scores {
		std += (s - mean) * (s - mean)
	}
	std = math.Sqrt(std / float64(len(scores)))
	return mean, std, true
}
