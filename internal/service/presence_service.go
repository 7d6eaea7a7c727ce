package service

import (
	"context"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/constant"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// PresenceService tracks heartbeats. A user is online while their last
// heartbeat is younger than the online window; nothing sweeps stale rows.
type PresenceService struct {
	*deps
}

func newPresenceService(d *deps) *PresenceService {
	return &PresenceService{deps: d}
}

// Heartbeat records that userId is active now
func (s *PresenceService) Heartbeat(ctx context.Context, userId string) (err error) {
	defer observe("update_presence", &err)

	if err := s.repos.Presence.Touch(ctx, userId, s.now()); err != nil {
		log.CtxError(ctx, "touch presence failed: user_id=%s, error=%v", userId, err)
		return errcode.ErrInternalServer
	}
	s.notifier.Publish(ctx, constant.TopicPresence)
	return nil
}

// ListOnline returns the ids of users whose heartbeat is inside the window
func (s *PresenceService) ListOnline(ctx context.Context) ([]string, error) {
	cutoff := entity.WindowCutoff(s.now(), s.cfg.Presence.OnlineWindow)
	ids, err := s.repos.Presence.ListSeenAfter(ctx, cutoff)
	if err != nil {
		log.CtxError(ctx, "list online users failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
