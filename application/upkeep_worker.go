package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"

	log "github.com/sirupsen/logrus"
)

// UpkeepRecorder receives the outcome of each upkeep evaluation
type UpkeepRecorder interface {
	RecordUpkeepCheck(raffleID int64, result string, duration time.Duration)
}

// Upkeep results reported to the recorder
const (
	UpkeepNotNeeded = "not_needed"
	UpkeepPerformed = "performed"
	UpkeepFailed    = "failed"
)

// UpkeepWorker polls every deployed raffle and performs upkeep when a draw is due
type UpkeepWorker struct {
	contract     *RaffleContract
	pollInterval time.Duration
	recorder     UpkeepRecorder
}

// NewUpkeepWorker creates a new upkeep worker. recorder may be nil.
func NewUpkeepWorker(contract *RaffleContract, pollInterval time.Duration, recorder UpkeepRecorder) *UpkeepWorker {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	return &UpkeepWorker{
		contract:     contract,
		pollInterval: pollInterval,
		recorder:     recorder,
	}
}

// Start begins the upkeep worker and returns a function that stops it
func (w *UpkeepWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithField("pollInterval", w.pollInterval).Info("Upkeep worker started")

		for {
			if _, err := w.RunOnce(ctx); err != nil {
				log.WithError(err).Error("Error running raffle upkeep")
			}

			select {
			case <-ctx.Done():
				log.Info("Upkeep worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Upkeep worker shutting down (stop requested)...")
				return
			case <-time.After(w.pollInterval):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// RunOnce checks every raffle once and returns how many draws were started
func (w *UpkeepWorker) RunOnce(ctx context.Context) (int, error) {
	raffleIDs, err := w.contract.ListRaffleIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list raffles: %w", err)
	}

	var performed, failed int
	for _, raffleID := range raffleIDs {
		ok, err := w.upkeep(ctx, raffleID)
		if err != nil {
			log.WithFields(log.Fields{
				"raffleID": raffleID,
				"error":    err,
			}).Error("Raffle upkeep failed")
			failed++
			continue
		}
		if ok {
			performed++
		}
	}

	if performed > 0 || failed > 0 {
		log.WithFields(log.Fields{
			"raffles":   len(raffleIDs),
			"performed": performed,
			"failed":    failed,
		}).Info("Completed raffle upkeep pass")
	}

	return performed, nil
}

// upkeep runs the check and, when needed, the perform step for one raffle
func (w *UpkeepWorker) upkeep(ctx context.Context, raffleID int64) (bool, error) {
	start := time.Now()

	needed, performData, err := w.contract.CheckUpkeep(ctx, raffleID, nil)
	if err != nil {
		w.record(raffleID, UpkeepFailed, start)
		return false, fmt.Errorf("failed to check upkeep: %w", err)
	}
	if !needed {
		w.record(raffleID, UpkeepNotNeeded, start)
		return false, nil
	}

	requestID, err := w.contract.PerformUpkeep(ctx, raffleID, performData)
	if err != nil {
		// Another process may have started the draw between check and perform
		if errors.Is(err, entities.ErrUpkeepNotNeeded) {
			w.record(raffleID, UpkeepNotNeeded, start)
			return false, nil
		}
		w.record(raffleID, UpkeepFailed, start)
		return false, fmt.Errorf("failed to perform upkeep: %w", err)
	}

	w.record(raffleID, UpkeepPerformed, start)
	log.WithFields(log.Fields{
		"raffleID":  raffleID,
		"requestID": requestID.String(),
	}).Info("Performed raffle upkeep")
	return true, nil
}

func (w *UpkeepWorker) record(raffleID int64, result string, start time.Time) {
	if w.recorder != nil {
		w.recorder.RecordUpkeepCheck(raffleID, result, time.Since(start))
	}
}
