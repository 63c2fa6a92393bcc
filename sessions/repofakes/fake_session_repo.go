package fakesessionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lunavps/auth-service/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	byID    map[string]*sessions.Session
	byToken map[string]string // refresh token to session id
	lock    sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		byID:    make(map[string]*sessions.Session),
		byToken: make(map[string]string),
	}
}

func (sr *FakeSessionRepo) GetByRefreshToken(_ context.Context, refreshToken string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	id, ok := sr.byToken[refreshToken]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	copied := *sr.byID[id]
	return &copied, nil
}

func (sr *FakeSessionRepo) Upsert(_ context.Context, session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	return sr.upsertLocked(session)
}

func (sr *FakeSessionRepo) upsertLocked(session *sessions.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if existingID, ok := sr.byToken[session.RefreshToken]; ok && existingID != session.ID {
		return sessions.ErrDuplicateRefreshToken
	}
	if existing, ok := sr.byID[session.ID]; ok {
		delete(sr.byToken, existing.RefreshToken)
	}
	copied := *session
	sr.byID[session.ID] = &copied
	sr.byToken[session.RefreshToken] = session.ID
	return nil
}

func (sr *FakeSessionRepo) Delete(_ context.Context, sessionID string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.deleteLocked(sessionID)
	return nil
}

func (sr *FakeSessionRepo) deleteLocked(sessionID string) bool {
	session, ok := sr.byID[sessionID]
	if !ok {
		return false
	}
	delete(sr.byToken, session.RefreshToken)
	delete(sr.byID, sessionID)
	return true
}

func (sr *FakeSessionRepo) DeleteAllForUser(_ context.Context, userID string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	for id, session := range sr.byID {
		if session.UserID == userID {
			sr.deleteLocked(id)
		}
	}
	return nil
}

func (sr *FakeSessionRepo) Rotate(_ context.Context, old *sessions.Session, next *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if !sr.deleteLocked(old.ID) {
		return sessions.ErrNotFound
	}
	return sr.upsertLocked(next)
}

func (sr *FakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	deleted := 0
	for id, session := range sr.byID {
		if session.Expired(now) {
			sr.deleteLocked(id)
			deleted++
		}
	}
	return deleted, nil
}

// Count reports the number of live sessions (test helper).
func (sr *FakeSessionRepo) Count() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	return len(sr.byID)
}
