package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/roomly/apiserver/internal/storage"
	"github.com/roomly/apiserver/internal/store"
	"github.com/roomly/apiserver/types"
	"github.com/sirupsen/logrus"
)

var errBoom = errors.New("boom")

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memoryRepo mimics the Postgres repository, unique constraints included.
type memoryRepo struct {
	mu      sync.Mutex
	byID    map[string]types.User
	getErr  error
	saveErr error

	// skipLookups hides users from GetByEmail/GetByUsername to simulate a
	// concurrent signup that passed the pre-checks.
	skipLookups bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: map[string]types.User{}}
}

func (m *memoryRepo) find(match func(types.User) bool) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return types.User{}, m.getErr
	}
	for _, user := range m.byID {
		if match(user) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (types.User, error) {
	return m.find(func(u types.User) bool { return u.ID == id })
}

func (m *memoryRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	if m.skipLookups {
		return types.User{}, store.ErrNotFound
	}
	return m.find(func(u types.User) bool { return u.Email == email })
}

func (m *memoryRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	if m.skipLookups {
		return types.User{}, store.ErrNotFound
	}
	return m.find(func(u types.User) bool { return u.Account.Username == username })
}

func (m *memoryRepo) GetByToken(_ context.Context, token string) (types.User, error) {
	return m.find(func(u types.User) bool { return u.Token == token })
}

func (m *memoryRepo) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return types.User{}, m.saveErr
	}
	for _, existing := range m.byID {
		switch {
		case existing.Email == user.Email:
			return types.User{}, store.ErrEmailTaken
		case existing.Account.Username == user.Account.Username:
			return types.User{}, store.ErrUsernameTaken
		case existing.Token == user.Token:
			return types.User{}, store.ErrTokenTaken
		}
	}
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryRepo) Update(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return types.User{}, m.saveErr
	}
	existing, ok := m.byID[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	existing.Account.Photo = user.Account.Photo
	m.byID[user.ID] = existing
	return existing, nil
}

func (m *memoryRepo) put(user types.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[user.ID] = user
}

func (m *memoryRepo) get(id string) types.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

// fakePictureStorage records uploads and destroys.
type fakePictureStorage struct {
	uploads   []storage.UploadOptions
	destroyed []string
	uploadErr error
	next      int
}

func (f *fakePictureStorage) Upload(_ context.Context, opts storage.UploadOptions) (storage.Asset, error) {
	if f.uploadErr != nil {
		return storage.Asset{}, f.uploadErr
	}
	f.uploads = append(f.uploads, opts)
	publicID := opts.PublicID
	if publicID == "" {
		f.next++
		publicID = fmt.Sprintf("%s/asset-%d", opts.Folder, f.next)
	}
	return storage.Asset{SecureURL: "https://cdn.test/" + publicID, PublicID: publicID}, nil
}

func (f *fakePictureStorage) Destroy(_ context.Context, publicID string) error {
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

type publishedEvent struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.events = append(f.events, publishedEvent{channel: channel, data: data, attrs: attrs})
	return "id", nil
}

type fixedIssuer struct {
	value string
	err   error
}

func (f fixedIssuer) Issue() (string, error) { return f.value, f.err }
