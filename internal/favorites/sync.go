package favorites

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// SaveResult reports the outcome of Save. The local write always happened
// when no error is returned; Synced tells whether the remote caught up.
type SaveResult struct {
	IDs     []string `json:"ids"`
	Synced  bool     `json:"synced"`
	Added   int      `json:"added"`
	Removed int      `json:"removed"`
}

// Synchronizer mirrors local favorites to the remote store of the
// signed-in identity.
type Synchronizer struct {
	local    LocalStore
	remote   RemoteStore
	notifier Notifier
	log      logger.Logger
}

// NewSynchronizer creates a favorites synchronizer. remote and notifier
// may be nil, in which case only local favorites exist.
func NewSynchronizer(local LocalStore, remote RemoteStore, notifier Notifier, log logger.Logger) *Synchronizer {
	return &Synchronizer{local: local, remote: remote, notifier: notifier, log: log}
}

func signedIn(id *domain.Identity) bool {
	return id != nil && id.ID != ""
}

// Get returns the favorites for device and identity. A non-empty remote
// list, or any remote list when force is set, replaces the local one.
// Otherwise local wins, so favorites collected before the first sync
// are not wiped by an empty remote.
func (s *Synchronizer) Get(ctx context.Context, device string, id *domain.Identity, force bool) ([]string, error) {
	device = deviceOrDefault(device)
	if !signedIn(id) || s.remote == nil {
		return s.loadLocal(ctx, device)
	}

	remote, err := s.remote.List(ctx, id.ID)
	if err != nil {
		s.log.Warn("remote favorites unavailable, using local",
			logger.String("user_id", id.ID),
			logger.Error(err),
		)
		return s.loadLocal(ctx, device)
	}
	remote = domain.DedupeIDs(remote)

	if len(remote) > 0 || force {
		if err := s.local.Save(ctx, device, remote); err != nil {
			s.log.Warn("local favorites write failed",
				logger.String("device", device),
				logger.Error(err),
			)
		}
		return remote, nil
	}
	return s.loadLocal(ctx, device)
}

// Save writes ids locally, then applies only the difference to the remote
// set. A remote failure is logged and reported through SaveResult.Synced;
// the local write is never rolled back.
func (s *Synchronizer) Save(ctx context.Context, device string, ids []string, id *domain.Identity) (SaveResult, error) {
	device = deviceOrDefault(device)
	ids = domain.DedupeIDs(ids)
	res := SaveResult{IDs: ids}

	if err := s.local.Save(ctx, device, ids); err != nil {
		return res, fmt.Errorf("save local favorites: %w", err)
	}
	if !signedIn(id) || s.remote == nil {
		return res, nil
	}

	added, removed, err := s.push(ctx, id.ID, ids)
	res.Added, res.Removed = added, removed
	if err != nil {
		s.log.Warn("favorites sync failed",
			logger.String("user_id", id.ID),
			logger.Error(err),
		)
		return res, nil
	}
	res.Synced = true
	return res, nil
}

// Reconcile runs on sign-in. A non-empty remote list overwrites the local
// one; an empty remote receives the local favorites.
func (s *Synchronizer) Reconcile(ctx context.Context, device string, id *domain.Identity) ([]string, error) {
	device = deviceOrDefault(device)
	if !signedIn(id) || s.remote == nil {
		return s.loadLocal(ctx, device)
	}

	remote, err := s.remote.List(ctx, id.ID)
	if err != nil {
		s.log.Warn("favorites reconcile skipped, remote unavailable",
			logger.String("user_id", id.ID),
			logger.Error(err),
		)
		return s.loadLocal(ctx, device)
	}
	remote = domain.DedupeIDs(remote)

	if len(remote) > 0 {
		if err := s.local.Save(ctx, device, remote); err != nil {
			return nil, fmt.Errorf("save local favorites: %w", err)
		}
		return remote, nil
	}

	local, err := s.loadLocal(ctx, device)
	if err != nil {
		return nil, err
	}
	if len(local) > 0 {
		if err := s.remote.Add(ctx, id.ID, local); err != nil {
			s.log.Warn("favorites upload failed",
				logger.String("user_id", id.ID),
				logger.Error(err),
			)
		}
	}
	return local, nil
}

func (s *Synchronizer) push(ctx context.Context, userID string, ids []string) (int, int, error) {
	current, err := s.remote.List(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("list remote favorites: %w", err)
	}
	add, remove := domain.DiffFavorites(ids, current)

	if len(add) > 0 {
		if err := s.remote.Add(ctx, userID, add); err != nil {
			return 0, 0, fmt.Errorf("add remote favorites: %w", err)
		}
	}
	if len(remove) > 0 {
		if err := s.remote.Remove(ctx, userID, remove); err != nil {
			return len(add), 0, fmt.Errorf("remove remote favorites: %w", err)
		}
	}
	return len(add), len(remove), nil
}

func (s *Synchronizer) loadLocal(ctx context.Context, device string) ([]string, error) {
	ids, err := s.local.Load(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("load local favorites: %w", err)
	}
	return domain.DedupeIDs(ids), nil
}

func deviceOrDefault(device string) string {
	if device == "" {
		return DefaultDevice
	}
	return device
}
