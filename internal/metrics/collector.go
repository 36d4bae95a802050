// Package metrics exports signed pre-key and watchdog state to Prometheus.
//
// The collector reads fresh state in one read transaction per scrape; it
// caches nothing and never writes.
package metrics

import (
	"context"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"

	"spkstore/internal/domain"
	"spkstore/internal/store"
)

var log = logging.Logger("spkstore/metrics")

const namespace = "spkstore"

var (
	recordsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "signed_prekeys"),
		"Number of signed pre-keys stored for the scope.",
		[]string{"scope"}, nil,
	)
	currentDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "current_signed_prekey_id"),
		"Id of the current signed pre-key, -1 when unset.",
		[]string{"scope"}, nil,
	)
	currentMissingDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "current_signed_prekey_missing"),
		"1 when the current id points at a removed record.",
		[]string{"scope"}, nil,
	)
	newestAgeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "current_signed_prekey_age_seconds"),
		"Age of the current signed pre-key.",
		[]string{"scope"}, nil,
	)
	failuresDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "prekey_update_failures"),
		"Consecutive failed signed pre-key rotations.",
		[]string{"scope"}, nil,
	)
	failingForDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "prekey_update_failing_seconds"),
		"Time since the first failure of the current streak, 0 when not failing.",
		[]string{"scope"}, nil,
	)
	scrapeErrorDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "scrape_error"),
		"1 when reading the store failed during this scrape.",
		[]string{"scope"}, nil,
	)
)

// Collector is a prometheus.Collector over one or more scopes.
type Collector struct {
	db      domain.DB
	scopes  []*store.Diagnostics
	names   []string
	timeout time.Duration
	now     func() time.Time
}

// NewCollector reports on every diagnostics instance in diags.
func NewCollector(db domain.DB, diags map[domain.IdentityScope]*store.Diagnostics) *Collector {
	c := &Collector{db: db, timeout: 5 * time.Second, now: time.Now}
	for _, scope := range domain.AllScopes() {
		d, ok := diags[scope]
		if !ok {
			continue
		}
		c.scopes = append(c.scopes, d)
		c.names = append(c.names, scope.String())
	}
	return c
}

// WithClock sets the clock used for age gauges.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		recordsDesc, currentDesc, currentMissingDesc, newestAgeDesc,
		failuresDesc, failingForDesc, scrapeErrorDesc,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	now := c.now()
	for i, diag := range c.scopes {
		scope := c.names[i]
		var r store.Report
		err := c.db.View(ctx, func(tx domain.ReadTx) error {
			var err error
			r, err = diag.Report(tx)
			return err
		})
		if err != nil {
			log.Warnw("metrics scrape failed", "scope", scope, "error", err)
			ch <- prometheus.MustNewConstMetric(scrapeErrorDesc, prometheus.GaugeValue, 1, scope)
			continue
		}
		ch <- prometheus.MustNewConstMetric(scrapeErrorDesc, prometheus.GaugeValue, 0, scope)
		ch <- prometheus.MustNewConstMetric(recordsDesc, prometheus.GaugeValue, float64(len(r.Records)), scope)

		current, missing, age := -1.0, 0.0, 0.0
		if r.CurrentID != nil {
			current = float64(*r.CurrentID)
			if r.CurrentMissing {
				missing = 1
			}
		}
		for _, e := range r.Records {
			if e.Current {
				age = now.Sub(e.GeneratedAt).Seconds()
			}
		}
		ch <- prometheus.MustNewConstMetric(currentDesc, prometheus.GaugeValue, current, scope)
		ch <- prometheus.MustNewConstMetric(currentMissingDesc, prometheus.GaugeValue, missing, scope)
		ch <- prometheus.MustNewConstMetric(newestAgeDesc, prometheus.GaugeValue, age, scope)
		ch <- prometheus.MustNewConstMetric(failuresDesc, prometheus.GaugeValue, float64(r.FailureCount), scope)
		ch <- prometheus.MustNewConstMetric(failingForDesc, prometheus.GaugeValue, r.Watchdog.FailingFor(now).Seconds(), scope)
	}
}

// Compile-time assertion that Collector implements prometheus.Collector.
var _ prometheus.Collector = (*Collector)(nil)
