package lockmgr

import (
	"bytes"
	"errors"

	"github.com/ValentinKolb/kvmsg/lib/store"
)

// releasedExpire is the lifetime of the empty entry a release leaves behind
const releasedExpire int32 = 1

// ErrInvalidTimeout is returned for a negative lock timeout
var ErrInvalidTimeout = errors.New("lockmgr: timeout must not be negative")

type lockMgrImpl struct {
	store store.IVersionedStore
}

// NewLockManager creates a lock manager that keeps its locks in s
func NewLockManager(s store.IVersionedStore) ILockManager {
	return &lockMgrImpl{
		store: s,
	}
}

func (lm *lockMgrImpl) AcquireLock(key string, timeout int32) (bool, []byte, error) {
	if timeout < 0 {
		return false, nil, ErrInvalidTimeout
	}

	value, version, err := lm.store.Get(key)
	if err != nil {
		return false, nil, err
	}
	// an empty value is a released lock
	if len(value) > 0 {
		return false, nil, nil
	}

	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// version 0 only matches a missing key, so two acquirers never both win
	result, err := lm.store.Set(key, ownerID, store.CondVersion, version, timeout)
	if err != nil {
		return false, nil, err
	}
	if !result.Applied {
		return false, nil, nil
	}
	return true, ownerID, nil
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	value, version, err := lm.store.Get(key)
	if err != nil {
		return false, err
	}
	if len(value) == 0 {
		return true, nil
	}

	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	result, err := lm.store.Set(key, nil, store.CondVersion, version, releasedExpire)
	if err != nil {
		return false, err
	}
	return result.Applied, nil
}
