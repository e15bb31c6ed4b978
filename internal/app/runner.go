package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/sammi-go/internal/batch"
	"github.com/samvad-hq/sammi-go/internal/config"
	"github.com/samvad-hq/sammi-go/internal/logger"
	"github.com/samvad-hq/sammi-go/internal/storage"
	"github.com/samvad-hq/sammi-go/pkg/publishers"
	"github.com/samvad-hq/sammi-go/pkg/sammi"
)

// Runner replays a requests file against SAMMI, once or on an interval.
type Runner struct {
	cfg      *config.Config
	entries  []batch.Entry
	fanout   *publishers.Fanout
	service  *batch.Service
	interval time.Duration
	log      logger.Logger
	store    storage.Store
}

// NewClient builds the SAMMI client described by cfg.
func NewClient(cfg *config.Config, log logger.Logger) *sammi.Client {
	return sammi.New(sammi.Config{
		Host:     cfg.SAMMIHost,
		Port:     cfg.SAMMIPort,
		Password: cfg.SAMMIPassword,
		Timeout:  cfg.Timeout,
	}, sammi.WithLogger(log))
}

// NewRunner builds a runner from config files. client may be nil, in which
// case one is built from cfg.
func NewRunner(ctx context.Context, cfg *config.Config, client batch.Sender, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if client == nil {
		client = NewClient(cfg, log)
	}

	entries, err := batch.LoadEntries(cfg.RequestsFile)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}
	entryIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		entryIDs = append(entryIDs, e.ID)
	}
	log.InfoObj("requests loaded", "requests_meta", map[string]any{
		"count": len(entries),
		"ids":   entryIDs,
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	var publisher batch.EventPublisher
	if fanout.Size() > 0 {
		publisher = fanout
	}

	return &Runner{
		cfg:      cfg,
		entries:  entries,
		fanout:   fanout,
		service:  batch.NewService(client, publisher, store, log),
		interval: cfg.ReplayInterval,
		log:      log,
		store:    store,
	}, nil
}

// buildFanout loads publishers when a publishers file is configured.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run executes one pass, then repeats every interval until ctx is cancelled.
// With no interval it returns after the first pass.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("runner is not initialized")
	}
	defer r.close()

	if r.interval <= 0 {
		return r.runOnce(ctx)
	}

	r.log.InfoObj("replay loop starting", "runner_state", map[string]any{
		"requests_count":   len(r.entries),
		"publishers_count": r.fanout.Size(),
		"replay_interval":  r.interval.String(),
	})

	if err := r.runOnce(ctx); err != nil {
		r.log.ErrorObj("initial pass failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("replay loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled pass failed", "error", err)
			}
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) error {
	start := time.Now()
	summary, err := r.service.Run(ctx, r.entries)
	r.log.InfoObj("pass completed", "pass_meta", map[string]any{
		"sent":       summary.Sent,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return err
}

func (r *Runner) close() {
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err)
	}
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err)
	}
}
