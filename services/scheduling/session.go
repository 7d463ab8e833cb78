package scheduling

import (
	"context"
	"errors"

	"bookly/models"
	"bookly/services/schederr"
	"bookly/services/selection"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SelectionUpdate carries the fields a client changed. Nil fields are left alone.
type SelectionUpdate struct {
	MasterID *string           `json:"masterId"`
	Date     *string           `json:"date"`
	Time     *models.TimeOfDay `json:"time"`
	Reset    bool              `json:"reset"`
}

func requireClient(identity models.Identity) error {
	if identity.Role != models.RoleClient || identity.ID == "" {
		return schederr.New(schederr.Forbidden, "only clients can book")
	}
	return nil
}

// StartSession opens a selection session for serviceID.
func (s *Scheduler) StartSession(ctx context.Context, identity models.Identity, serviceID string) (*selection.Session, error) {
	if err := requireClient(identity); err != nil {
		return nil, err
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if _, err := s.schedule(ctx, serviceID); err != nil {
		return nil, err
	}
	sess := selection.New(uuid.New().String(), serviceID, identity.ID, s.Clock.Now())
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return nil, schederr.FromRemote(err, "save session")
	}
	s.Logger.Debug("selection session started", zap.String("sessionID", sess.ID), zap.String("serviceID", serviceID))
	return sess, nil
}

// loadSession returns the caller's session. Sessions of other clients are
// reported as missing.
func (s *Scheduler) loadSession(ctx context.Context, identity models.Identity, sessionID string) (*selection.Session, error) {
	if err := requireClient(identity); err != nil {
		return nil, err
	}
	sess, err := s.Sessions.Load(ctx, sessionID)
	if errors.Is(err, selection.ErrSessionNotFound) || (err == nil && sess.ClientID != identity.ID) {
		return nil, schederr.New(schederr.NotFound, "session %s not found", sessionID)
	}
	if err != nil {
		return nil, schederr.FromRemote(err, "load session")
	}
	return sess, nil
}

// GetSession returns the caller's session.
func (s *Scheduler) GetSession(ctx context.Context, identity models.Identity, sessionID string) (*selection.Session, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.loadSession(ctx, identity, sessionID)
}

// UpdateSession applies a selection change. Once master and date are known
// the slot list is fetched so the client can pick a time.
func (s *Scheduler) UpdateSession(ctx context.Context, identity models.Identity, sessionID string, update SelectionUpdate) (*selection.Session, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	unlock, err := s.lock(ctx, "session:" + sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.loadSession(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}
	if update.Reset {
		sess.Reset()
	}
	if update.MasterID != nil {
		if *update.MasterID == "" {
			return nil, schederr.New(schederr.Validation, "master is required")
		}
		sched, err := s.schedule(ctx, sess.ServiceID)
		if err != nil {
			return nil, err
		}
		if !sched.Service.HasMaster(*update.MasterID) {
			return nil, schederr.New(schederr.Validation, "master %s does not perform service %s", *update.MasterID, sess.ServiceID)
		}
		sess.SetMaster(*update.MasterID)
	}
	if update.Date != nil {
		if err := sess.SetDate(*update.Date, s.Options.Location); err != nil {
			return nil, err
		}
	}
	if update.Time != nil {
		if err := sess.SetTime(*update.Time); err != nil {
			return nil, err
		}
	}

	if sess.MasterID != "" && sess.Date != "" && len(sess.Slots) == 0 {
		slots, err := s.AvailableSlots(ctx, sess.ServiceID, sess.MasterID, sess.Date)
		if err != nil {
			s.Logger.Warn("could not prefetch slots", zap.String("sessionID", sessionID), zap.Error(err))
		} else {
			sess.SetSlots(slots, s.Clock.Now())
		}
	}

	if err := s.Sessions.Save(ctx, sess); err != nil {
		return nil, schederr.FromRemote(err, "save session")
	}
	return sess, nil
}

// SessionComplete reports whether the session can be submitted, refreshing
// a stale slot list first.
func (s *Scheduler) SessionComplete(ctx context.Context, identity models.Identity, sessionID string) (bool, *selection.Session, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	unlock, err := s.lock(ctx, "session:" + sessionID)
	if err != nil {
		return false, nil, err
	}
	defer unlock()

	sess, err := s.loadSession(ctx, identity, sessionID)
	if err != nil {
		return false, nil, err
	}
	fetchedAt := sess.SlotsFetchedAt
	complete, err := sess.IsComplete(ctx, s, s.Clock, s.Options.Staleness)
	if err != nil {
		return false, nil, err
	}
	if !sess.SlotsFetchedAt.Equal(fetchedAt) {
		if err := s.Sessions.Save(ctx, sess); err != nil {
			s.Logger.Warn("failed to save refreshed session", zap.String("sessionID", sessionID), zap.Error(err))
		}
	}
	return complete, sess, nil
}

// DiscardSession drops the caller's session.
func (s *Scheduler) DiscardSession(ctx context.Context, identity models.Identity, sessionID string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	unlock, err := s.lock(ctx, "session:" + sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.loadSession(ctx, identity, sessionID); err != nil {
		return err
	}
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		return schederr.FromRemote(err, "delete session")
	}
	return nil
}
