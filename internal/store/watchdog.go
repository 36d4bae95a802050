package store

import (
	"fmt"
	"math"
	"time"

	"spkstore/internal/domain"
	"spkstore/internal/kv"
)

// RotationWatchdog persists how many signed pre-key rotations in a row have
// failed for one scope, and when the streak started.
//
// It enacts no policy. A scheduler reads State and decides whether to alert or
// retry harder. The count and the first-failure date are cleared separately,
// so a zero count can sit next to a stale date.
type RotationWatchdog struct {
	scope domain.IdentityScope
	opts  options
}

// NewRotationWatchdog returns the watchdog for scope.
func NewRotationWatchdog(scope domain.IdentityScope, opts ...Option) *RotationWatchdog {
	return &RotationWatchdog{scope: scope, opts: buildOptions(opts)}
}

func (w *RotationWatchdog) countKey() string {
	return kv.Key(w.scope, kv.PreKeyUpdateFailureCountKey)
}

func (w *RotationWatchdog) dateKey() string {
	return kv.Key(w.scope, kv.FirstPreKeyUpdateFailureDate)
}

// PreKeyUpdateFailureCount returns the failure count, 0 if never incremented.
func (w *RotationWatchdog) PreKeyUpdateFailureCount(tx domain.ReadTx) (int32, error) {
	var n int32
	if _, err := getScalar(tx, w.opts.codec, w.countKey(), &n); err != nil {
		return 0, fmt.Errorf("prekey update failure count: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("prekey update failure count %d: %w", n, ErrCorruptScalar)
	}
	return n, nil
}

// IncrementPreKeyUpdateFailureCount adds one failure and returns the new
// count, which saturates at math.MaxInt32. On the first failure of a streak
// it also records the current time as the first-failure date, unless a date
// is already set.
func (w *RotationWatchdog) IncrementPreKeyUpdateFailureCount(tx domain.WriteTx) (int32, error) {
	n, err := w.PreKeyUpdateFailureCount(tx)
	if err != nil {
		return 0, err
	}
	if n == math.MaxInt32 {
		log.Warnw("signed pre-key rotation failed, count saturated", "scope", w.scope, "failures", n)
		return n, nil
	}
	n++
	if err := putScalar(tx, w.opts.codec, w.countKey(), n); err != nil {
		return 0, fmt.Errorf("increment prekey update failure count: %w", err)
	}
	if n == 1 {
		_, set, err := w.FirstPreKeyUpdateFailureDate(tx)
		if err != nil {
			return 0, err
		}
		if !set {
			if err := w.SetFirstPreKeyUpdateFailureDate(tx, w.opts.now()); err != nil {
				return 0, err
			}
		}
	}
	log.Warnw("signed pre-key rotation failed", "scope", w.scope, "failures", n)
	return n, nil
}

// ClearPreKeyUpdateFailureCount resets the count to 0. The first-failure date
// is left alone.
func (w *RotationWatchdog) ClearPreKeyUpdateFailureCount(tx domain.WriteTx) error {
	if err := tx.Delete(w.countKey()); err != nil {
		return fmt.Errorf("clear prekey update failure count: %w", err)
	}
	return nil
}

// FirstPreKeyUpdateFailureDate returns when the current failure streak began.
func (w *RotationWatchdog) FirstPreKeyUpdateFailureDate(tx domain.ReadTx) (time.Time, bool, error) {
	var at time.Time
	ok, err := getScalar(tx, w.opts.codec, w.dateKey(), &at)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("first prekey update failure date: %w", err)
	}
	return at, ok, nil
}

// SetFirstPreKeyUpdateFailureDate overwrites the first-failure date.
func (w *RotationWatchdog) SetFirstPreKeyUpdateFailureDate(tx domain.WriteTx, at time.Time) error {
	if err := putScalar(tx, w.opts.codec, w.dateKey(), at.UTC()); err != nil {
		return fmt.Errorf("set first prekey update failure date: %w", err)
	}
	return nil
}

// ClearFirstPreKeyUpdateFailureDate removes the first-failure date.
func (w *RotationWatchdog) ClearFirstPreKeyUpdateFailureDate(tx domain.WriteTx) error {
	if err := tx.Delete(w.dateKey()); err != nil {
		return fmt.Errorf("clear first prekey update failure date: %w", err)
	}
	return nil
}

// State reads the count and the date together.
func (w *RotationWatchdog) State(tx domain.ReadTx) (domain.WatchdogState, error) {
	n, err := w.PreKeyUpdateFailureCount(tx)
	if err != nil {
		return domain.WatchdogState{}, err
	}
	at, ok, err := w.FirstPreKeyUpdateFailureDate(tx)
	if err != nil {
		return domain.WatchdogState{}, err
	}
	return domain.WatchdogState{FailureCount: n, FirstFailure: at, HasFirstFailure: ok}, nil
}

// Compile-time assertion that RotationWatchdog implements domain.RotationWatchdog.
var _ domain.RotationWatchdog = (*RotationWatchdog)(nil)
