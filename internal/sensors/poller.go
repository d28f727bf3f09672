package sensors

import (
	"context"
	"log/slog"
	"time"

	"sensorlog/internal/logging"
)

// Poller gathers records from a list of sensors, one signal at a time.
type Poller struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewPoller constructs a Poller. A nil logger discards output.
func NewPoller(fetcher Fetcher, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Poller{fetcher: fetcher, logger: logger}
}

// Gather polls every signal of every sensor sequentially and returns one
// record per sensor in input order. All records share the timestamp at.
func (p *Poller) Gather(ctx context.Context, list []Sensor, at time.Time) []Record {
	records := make([]Record, 0, len(list))
	for _, sensor := range list {
		record := NewRecord(at, sensor.Name)
		for _, signal := range sensor.Signals {
			record.Set(signal, p.fetch(ctx, sensor, signal))
		}
		records = append(records, record)
	}
	return records
}

func (p *Poller) fetch(ctx context.Context, sensor Sensor, signal string) string {
	url := SignalURL(sensor.Address, signal)
	value, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		p.logger.Warn("signal fetch failed",
			slog.String(logging.FieldSensor, sensor.Name),
			slog.String(logging.FieldSignal, signal),
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return Sentinel
	}
	p.logger.Debug("signal fetched",
		slog.String(logging.FieldSensor, sensor.Name),
		slog.String(logging.FieldSignal, signal),
		slog.Int("bytes", len(value)),
	)
	return value
}
