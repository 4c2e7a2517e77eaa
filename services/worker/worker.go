package worker

import (
	"context"
	"encoding/json"
	"time"

	"cardealworker/config"
	"cardealworker/internal/ad"
	"cardealworker/internal/observability"
	"cardealworker/logger"
	"cardealworker/services/publisher"
)

// Scraper produces one epoch's worth of deduplicated ad records.
type Scraper interface {
	ScrapeSearch() ([]ad.Record, error)
}

// Predictor trains on a batch and scores it.
type Predictor interface {
	Train(records []ad.Record) error
	Predict(records []ad.Record) ([]ad.PricePrediction, error)
	Trained() bool
}

// Sink optionally persists every prediction of an epoch.
type Sink interface {
	Write(predictions []ad.PricePrediction) error
}

// Worker drives the scrape, train, predict, publish cycle. It runs the
// whole pipeline sequentially; the site tolerates exactly one request
// in flight.
type Worker struct {
	ctx       context.Context
	scraper   Scraper
	predictor Predictor
	publisher publisher.Publisher
	sink      Sink
	cfg       *config.Config
	wait      func(d time.Duration) bool
	log       *logger.Logger
}

// NewWorker creates a new worker. sink may be nil.
func NewWorker(
	ctx context.Context,
	scraper Scraper,
	predictor Predictor,
	pub publisher.Publisher,
	sink Sink,
	cfg *config.Config,
) *Worker {
	w := &Worker{
		ctx:       ctx,
		scraper:   scraper,
		predictor: predictor,
		publisher: pub,
		sink:      sink,
		cfg:       cfg,
		log:       logger.ForWorker(),
	}
	w.wait = w.waitInterval
	return w
}

// Start runs epochs until the context is cancelled. Epoch failures are
// logged and followed by a cooldown; the loop itself never exits on
// error.
func (w *Worker) Start() {
	for {
		start := time.Now()
		err := w.RunEpoch()
		elapsed := time.Since(start)

		wait := w.cfg.CrawlInterval
		if err != nil {
			w.log.Error().Err(err).Dur("elapsed", elapsed).Msg("Epoch failed")
			wait = w.cfg.CooldownInterval
		} else {
			w.log.Info().Dur("elapsed", elapsed).Msg("Epoch complete")
		}

		if !w.wait(wait) {
			return
		}
	}
}

// RunEpoch executes one full pipeline pass.
func (w *Worker) RunEpoch() error {
	records, err := w.scraper.ScrapeSearch()
	if err != nil {
		return err
	}
	w.log.Info().Int("records", len(records)).Msg("Scrape complete")

	if len(records) >= w.cfg.MinTrainRecords {
		if err := w.predictor.Train(records); err != nil {
			return err
		}
	} else {
		w.log.Warn().
			Int("records", len(records)).
			Int("min_train_records", w.cfg.MinTrainRecords).
			Msg("Too few records to retrain")
	}

	if !w.predictor.Trained() {
		w.log.Warn().Msg("No trained model yet, skipping prediction")
		return nil
	}

	predictions, err := w.predictor.Predict(records)
	if err != nil {
		return err
	}

	if w.sink != nil {
		if err := w.sink.Write(predictions); err != nil {
			w.log.Error().Err(err).Msg("Prediction sink write failed")
		}
	}

	w.publishCheap(predictions)

	if err := w.publisher.TrimStreams(); err != nil {
		w.log.Error().Err(err).Msg("Stream trimming failed")
	}
	return nil
}

// publishCheap pushes only the underpriced predictions downstream. A
// single publish failure is logged and does not stop the rest of the
// batch.
func (w *Worker) publishCheap(predictions []ad.PricePrediction) {
	published := 0
	for _, p := range predictions {
		if !p.IsCheap {
			continue
		}

		payload, err := json.Marshal(p)
		if err != nil {
			w.log.Error().Err(err).Int64("ad_id", p.AdID).Msg("Failed to marshal prediction")
			continue
		}

		if err := w.publisher.Publish(payload); err != nil {
			w.log.Error().Err(err).Int64("ad_id", p.AdID).Msg("Failed to publish prediction")
			continue
		}

		observability.PredictionsPublished.Inc()
		published++
	}
	w.log.Info().
		Int("predictions", len(predictions)).
		Int("published", published).
		Msg("Publish complete")
}

// waitInterval sleeps for d unless the context is cancelled first.
// Returns false on cancellation.
func (w *Worker) waitInterval(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
