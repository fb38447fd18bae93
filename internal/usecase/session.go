package usecase

import (
	"errors"
	"sync"

	"tonpurse/internal/entity"
)

// Sessions fronts the durable session records with a live map so every
// update of one chat works on the same session object. The transport
// delivers a chat's updates in order, so the session itself needs no lock;
// the map does.
type Sessions struct {
	repo sessionRepository

	mu   sync.Mutex
	live map[int64]*entity.Session
}

func NewSessions(repo sessionRepository) *Sessions {
	return &Sessions{
		repo: repo,
		live: make(map[int64]*entity.Session),
	}
}

// Load returns the live session for a user, reviving it from the store or
// creating a fresh one on first contact. A revived session carries no
// wallet; the password gate rebuilds it.
func (s *Sessions) Load(userID int64) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.live[userID]; ok {
		return sess, nil
	}

	record, err := s.repo.Get(userID)
	if err != nil {
		if !errors.Is(err, entity.ErrSessionNotFound) {
			return nil, err
		}
		record = entity.Session{UserID: userID}
	}

	sess := &record
	s.live[userID] = sess
	return sess, nil
}

func (s *Sessions) Save(sess *entity.Session) error {
	return s.repo.Save(sess.UserID, *sess)
}
