package influx

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

const statsBucket = "bot_stats"

// StatsSource exposes the counters the reporter samples.
type StatsSource interface {
	CountOpenTickets() (int64, error)
	CountDownloads() (int64, error)
}

// Reporter periodically samples bot counters and writes them as a stats
// point.
type Reporter struct {
	manager *Manager
	source  StatsSource
	guildID string
}

// NewReporter creates a Reporter sampling from source.
func NewReporter(manager *Manager, source StatsSource, guildID string) *Reporter {
	return &Reporter{
		manager: manager,
		source:  source,
		guildID: guildID,
	}
}

// Run samples every interval until the context is cancelled.
func (r *Reporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report(ctx)
		}
	}
}

func (r *Reporter) report(ctx context.Context) {
	openTickets, err := r.source.CountOpenTickets()
	if err != nil {
		r.manager.Logger.Error().Err(err).Msg("Error counting open tickets")
		return
	}
	downloads, err := r.source.CountDownloads()
	if err != nil {
		r.manager.Logger.Error().Err(err).Msg("Error counting downloads")
		return
	}

	point := influxdb2.NewPointWithMeasurement("bot_activity").
		AddTag("guildId", r.guildID).
		AddField("openTickets", openTickets).
		AddField("downloads", downloads).
		SetTime(time.Now())

	if err := r.manager.WritePoint(ctx, statsBucket, point); err != nil {
		r.manager.Logger.Error().Err(err).Msg("Error writing stats point")
	}
}
