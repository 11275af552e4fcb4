package recorder

import "PremiumScreener/internal/model"

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordRun(sum *model.RunSummary) error
	RecordSignals(scanDate string, records []model.SignalRecord) error
	Close() error
}

// History is implemented by recorders that can read stored signals back.
type History interface {
	LatestSignals() (scanDate string, records []model.SignalRecord, err error)
}
