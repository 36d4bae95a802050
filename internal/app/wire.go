package app

import (
	"fmt"
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"

	"spkstore/internal/domain"
	"spkstore/internal/kv"
	"spkstore/internal/metrics"
	identitysvc "spkstore/internal/services/identity"
	prekeysvc "spkstore/internal/services/prekey"
	"spkstore/internal/store"
)

var log = logging.Logger("spkstore/app")

// Scope bundles the stores and services of one identity scope.
type Scope struct {
	Name        domain.IdentityScope
	Identity    *store.IdentityFileStore
	IDs         domain.IdentityService
	Keys        *store.SignedPreKeyStore
	Watchdog    *store.RotationWatchdog
	Diagnostics *store.Diagnostics
	PreKeys     *prekeysvc.Service
}

// Wire bundles the database and every scope built on it.
type Wire struct {
	Config  Config
	DB      domain.DB
	Scopes  map[domain.IdentityScope]*Scope
	Metrics *metrics.Collector
}

// NewWire constructs the dependency graph from cfg. The caller must Close it.
func NewWire(cfg Config) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.SetLogLevelRegex("spkstore/.*", cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	w := &Wire{Config: cfg, DB: db, Scopes: make(map[domain.IdentityScope]*Scope)}
	diags := make(map[domain.IdentityScope]*store.Diagnostics)
	for _, name := range domain.AllScopes() {
		ids := store.NewIdentityFileStore(cfg.Home, name)
		keys := store.NewSignedPreKeyStore(name)
		wd := store.NewRotationWatchdog(name)
		sc := &Scope{
			Name:        name,
			Identity:    ids,
			IDs:         identitysvc.New(ids),
			Keys:        keys,
			Watchdog:    wd,
			Diagnostics: store.NewDiagnostics(keys, wd),
			PreKeys:     prekeysvc.New(ids, db, keys, wd),
		}
		w.Scopes[name] = sc
		diags[name] = sc.Diagnostics
	}
	w.Metrics = metrics.NewCollector(db, diags)

	log.Debugw("wired", "home", cfg.Home, "backend", cfg.Backend, "scope", cfg.Scope)
	return w, nil
}

func openDB(cfg Config) (domain.DB, error) {
	switch cfg.Backend {
	case BackendBolt:
		return kv.OpenBolt(filepath.Join(cfg.Home, "spkstore.db"))
	case BackendLevelDB:
		return kv.OpenLevelDB(filepath.Join(cfg.Home, "leveldb"))
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Current returns the scope selected by Config.Scope.
func (w *Wire) Current() *Scope {
	return w.Scopes[w.Config.IdentityScope()]
}

// Close releases the database.
func (w *Wire) Close() error {
	if w == nil || w.DB == nil {
		return nil
	}
	return w.DB.Close()
}
