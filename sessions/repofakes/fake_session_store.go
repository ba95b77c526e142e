package sessionrepofakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/helpdesk-console/sessions"
)

var _ sessions.Store = (*FakeSessionStore)(nil)

// FakeSessionStore keeps the encoded payload in memory so that it goes
// through the same validation as the durable stores.
type FakeSessionStore struct {
	lock    sync.RWMutex
	payload []byte

	Saves  int
	Loads  int
	Clears int
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{}
}

func (fs *FakeSessionStore) Save(_ context.Context, identity sessions.Identity, credentials sessions.Credentials) error {
	data, err := sessions.Encode(sessions.New(identity, credentials))
	if err != nil {
		return err
	}
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.payload = data
	fs.Saves++
	return nil
}

func (fs *FakeSessionStore) Load(_ context.Context) (*sessions.Session, bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.Loads++
	if fs.payload == nil {
		return nil, false
	}
	s, err := sessions.Decode(fs.payload)
	if err != nil {
		return nil, false
	}
	return s, true
}

func (fs *FakeSessionStore) Clear(_ context.Context) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.payload = nil
	fs.Clears++
	return nil
}

// SetRaw replaces the stored bytes, bypassing encoding.
func (fs *FakeSessionStore) SetRaw(data []byte) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.payload = data
}

// Counts returns the number of Save, Load and Clear calls.
func (fs *FakeSessionStore) Counts() (saves, loads, clears int) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.Saves, fs.Loads, fs.Clears
}
