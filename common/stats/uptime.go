package stats

import (
	"context"
	"time"
)

var UptimeReportInterval = 500 * time.Millisecond
var DefaultStartupGaugeSpikeLen = time.Minute

// StartUptimeReporting sets startedGauge to 1 for spikeLen so dashboards can
// spot restarts, and keeps uptimeGauge at the uptime in ms. Blocks until ctx
// is done.
func StartUptimeReporting(ctx context.Context, stat StatsReceiver, uptimeGauge, startedGauge string, spikeLen time.Duration) {
	start := Clock.Now()
	started := stat.Gauge(startedGauge)
	started.Update(1)
	spike := time.NewTimer(spikeLen)
	defer spike.Stop()

	tick, stop := Clock.Ticker(UptimeReportInterval)
	defer stop()
	uptime := stat.Gauge(uptimeGauge)
	for {
		select {
		case <-ctx.Done():
			return
		case <-spike.C:
			started.Update(0)
		case <-tick:
			uptime.Update(int64(Clock.Now().Sub(start) / time.Millisecond))
		}
	}
}
