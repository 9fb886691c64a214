package sync

import (
	"context"
	"errors"

	"media-sync/core/gate"
	"media-sync/feature/library/store"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrUpstreamUnavailable is returned when the server or the device returns no data.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Pass names used in logs and metrics.
const (
	PassUsers        = "users"
	PassRemoteAssets = "remote_assets"
	PassRemoteAlbums = "remote_albums"
	PassLocalAlbums  = "local_albums"
	PassInsertAsset  = "insert_asset"
	PassWipeLocal    = "wipe_local"
)

// Service runs reconciliation passes against the local snapshot.
type Service struct {
	store  *store.Store
	gate   *gate.Gate
	remote RemoteSource
	device DeviceSource
	clock  clockwork.Clock
	logger *zap.Logger
	userID string
}

// NewService creates a new sync service for the configured user.
func NewService(st *store.Store, remote RemoteSource, device DeviceSource, clock clockwork.Clock, logger *zap.Logger, cfg Config) *Service {
	return &Service{
		store:  st,
		gate:   gate.New(),
		remote: remote,
		device: device,
		clock:  clock,
		logger: logger.With(zap.String("user_id", cfg.UserID)),
		userID: cfg.UserID,
	}
}

// Status describes the gate.
type Status struct {
	Busy    bool `json:"busy"`
	Waiting int  `json:"waiting"`
}

// Status returns whether a pass is running and how many are queued.
func (s *Service) Status() Status {
	return Status{Busy: s.gate.Busy(), Waiting: s.gate.Waiting()}
}

// exclusive runs fn behind the gate and records the outcome.
func (s *Service) exclusive(ctx context.Context, pass string, fn func(ctx context.Context) (bool, error)) bool {
	var changed bool
	err := s.gate.Run(ctx, func(ctx context.Context) error {
		gateWaiting.Set(float64(s.gate.Waiting()))
		start := s.clock.Now()
		defer func() {
			passDuration.WithLabelValues(pass).Observe(s.clock.Since(start).Seconds())
		}()
		var err error
		changed, err = fn(ctx)
		return err
	})
	gateWaiting.Set(float64(s.gate.Waiting()))
	if err != nil {
		s.logger.Error("Sync pass failed", zap.String("pass", pass), zap.Error(err))
		runsTotal.WithLabelValues(pass, "failed").Inc()
		return false
	}

	outcome := "unchanged"
	if changed {
		outcome = "changed"
	}
	runsTotal.WithLabelValues(pass, outcome).Inc()
	s.logger.Debug("Sync pass finished", zap.String("pass", pass), zap.Bool("changed", changed))
	return changed
}

// commit applies cs and counts rollbacks by step. Updates of rows that no
// longer exist are logged and skipped.
func (s *Service) commit(ctx context.Context, cs *store.Changeset) error {
	err := s.store.Commit(ctx, cs)
	if err == nil {
		for _, a := range cs.Vanished {
			anomaliesTotal.WithLabelValues("vanished_asset").Inc()
			s.logger.Warn("Stored asset vanished before its update, skipping", zap.Any("asset", a))
		}
		return nil
	}
	var commitErr *store.CommitError
	if errors.As(err, &commitErr) {
		commitFailures.WithLabelValues(commitErr.Step).Inc()
	} else {
		commitFailures.WithLabelValues("transaction").Inc()
	}
	return err
}
