package store

import (
	"time"

	"spkstore/internal/crypto"
	"spkstore/internal/domain"
)

// Diagnostics reports on one scope's signed pre-keys and watchdog. It never
// writes, except for RemoveAll in builds tagged spkdebug.
type Diagnostics struct {
	keys     *SignedPreKeyStore
	watchdog *RotationWatchdog
}

// NewDiagnostics reports on keys and watchdog, which must share a scope.
func NewDiagnostics(keys *SignedPreKeyStore, watchdog *RotationWatchdog) *Diagnostics {
	if keys.scope != watchdog.scope {
		panic("store: diagnostics over mismatched scopes")
	}
	return &Diagnostics{keys: keys, watchdog: watchdog}
}

// ReportEntry describes one stored record without its private key.
type ReportEntry struct {
	ID          domain.SignedPreKeyID `json:"id" yaml:"id"`
	Fingerprint domain.Fingerprint    `json:"fingerprint" yaml:"fingerprint"`
	GeneratedAt time.Time             `json:"generated_at" yaml:"generated_at"`
	Current     bool                  `json:"current" yaml:"current"`
}

// Report is a point-in-time summary of a scope.
type Report struct {
	Scope          string                 `json:"scope" yaml:"scope"`
	Records        []ReportEntry          `json:"records" yaml:"records"`
	CurrentID      *domain.SignedPreKeyID `json:"current_id,omitempty" yaml:"current_id,omitempty"`
	CurrentMissing bool                   `json:"current_missing,omitempty" yaml:"current_missing,omitempty"`
	FailureCount   int32                  `json:"failure_count" yaml:"failure_count"`
	FirstFailure   *time.Time             `json:"first_failure,omitempty" yaml:"first_failure,omitempty"`
	Watchdog       domain.WatchdogState   `json:"-" yaml:"-"`
}

// Report collects stored ids, the current id and the watchdog state.
func (d *Diagnostics) Report(tx domain.ReadTx) (Report, error) {
	recs, err := d.keys.LoadSignedPreKeys(tx)
	if err != nil {
		return Report{}, err
	}
	currentID, hasCurrent, err := d.keys.CurrentSignedPreKeyID(tx)
	if err != nil {
		return Report{}, err
	}
	state, err := d.watchdog.State(tx)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Scope:        d.keys.scope.String(),
		Records:      make([]ReportEntry, 0, len(recs)),
		FailureCount: state.FailureCount,
		Watchdog:     state,
	}
	found := false
	for _, rec := range recs {
		cur := hasCurrent && rec.ID == currentID
		found = found || cur
		r.Records = append(r.Records, ReportEntry{
			ID:          rec.ID,
			Fingerprint: crypto.Fingerprint(rec.PublicKey.Slice()),
			GeneratedAt: rec.GeneratedAt,
			Current:     cur,
		})
	}
	if hasCurrent {
		r.CurrentID = &currentID
		r.CurrentMissing = !found
	}
	if state.HasFirstFailure {
		at := state.FirstFailure
		r.FirstFailure = &at
	}
	return r, nil
}

// LogSignedPreKeyReport writes the report to the store logger.
func (d *Diagnostics) LogSignedPreKeyReport(tx domain.ReadTx) error {
	r, err := d.Report(tx)
	if err != nil {
		return err
	}
	ids := make([]domain.SignedPreKeyID, 0, len(r.Records))
	for _, e := range r.Records {
		ids = append(ids, e.ID)
	}
	fields := []any{
		"scope", r.Scope,
		"count", len(ids),
		"ids", ids,
		"failures", r.FailureCount,
	}
	if r.CurrentID != nil {
		fields = append(fields, "current", *r.CurrentID, "currentMissing", r.CurrentMissing)
	}
	if r.FirstFailure != nil {
		fields = append(fields, "firstFailure", r.FirstFailure.Format(time.RFC3339))
	}
	log.Infow("signed pre-key report", fields...)
	for _, e := range r.Records {
		log.Infow("signed pre-key",
			"scope", r.Scope,
			"id", e.ID,
			"fingerprint", e.Fingerprint,
			"generatedAt", e.GeneratedAt.Format(time.RFC3339),
			"current", e.Current,
		)
	}
	return nil
}
