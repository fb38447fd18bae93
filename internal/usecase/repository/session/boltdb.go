package session

import (
	"encoding/binary"
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"tonpurse/internal/entity"
)

var (
	sessionBucketName = []byte("sessions")
)

type BoltDBRepository struct {
	db *bolt.DB
}

func NewBoltDB(db *bolt.DB) (*BoltDBRepository, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucketName)
		if err != nil {
			return err
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return &BoltDBRepository{db: db}, nil
}

// Save persists the JSON-serializable subset of a session. The wallet and
// any other key material are excluded by the session's own tags and never
// reach disk.
func (r *BoltDBRepository) Save(userID int64, sess entity.Session) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionBucketName)

		raw, err := json.Marshal(sess)
		if err != nil {
			return err
		}

		return bucket.Put(itob(userID), raw)
	})
}

func (r *BoltDBRepository) Get(userID int64) (entity.Session, error) {
	var sess entity.Session

	err := r.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sessionBucketName).Get(itob(userID))
		if raw == nil {
			return entity.ErrSessionNotFound
		}

		return json.Unmarshal(raw, &sess)
	})

	if err != nil {
		return entity.Session{}, err
	}

	return sess, nil
}

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
