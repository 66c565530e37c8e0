package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/roomly/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID = "0b6c1f0e-8d7a-4f55-9b1e-2c3d4e5f6a70"
	otherID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

type pictureFixture struct {
	repo      *memoryRepo
	storage   *fakePictureStorage
	publisher *fakePublisher
	svc       *PictureService
}

func newPictureFixture() *pictureFixture {
	f := &pictureFixture{
		repo:      newMemoryRepo(),
		storage:   &fakePictureStorage{},
		publisher: &fakePublisher{},
	}
	events := NewEvents(f.publisher, "user-events", discardLogger())
	f.svc = NewPictureService(f.repo, f.storage, PictureConfig{Folder: "airbnb"}, events, discardLogger())

	f.repo.put(types.User{ID: ownerID, Email: "a@x.io", Account: types.Account{Username: "alice"}, Token: "tok-alice"})
	f.repo.put(types.User{ID: otherID, Email: "b@x.io", Account: types.Account{Username: "bob"}, Token: "tok-bob"})
	return f
}

func photo(content string) *PhotoFile {
	return &PhotoFile{
		Filename:    "me.png",
		ContentType: "image/png",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
	}
}

func owner() types.User { return types.User{ID: ownerID} }

func TestUpload_NewPicture(t *testing.T) {
	f := newPictureFixture()

	profile, err := f.svc.Upload(context.Background(), ownerID, owner(), photo("png"))
	require.NoError(t, err)

	require.NotNil(t, profile.Account.Photo)
	assert.Equal(t, "airbnb/"+ownerID+"/asset-1", profile.Account.Photo.PictureID)
	assert.Equal(t, "https://cdn.test/airbnb/"+ownerID+"/asset-1", profile.Account.Photo.URL)
	assert.Equal(t, []string{}, profile.Rooms)

	require.Len(t, f.storage.uploads, 1)
	assert.Equal(t, "airbnb/"+ownerID, f.storage.uploads[0].Folder)
	assert.Empty(t, f.storage.uploads[0].PublicID)
	assert.Equal(t, "image/png", f.storage.uploads[0].ContentType)
	assert.Equal(t, int64(3), f.storage.uploads[0].Size)

	assert.Equal(t, profile.Account.Photo, f.repo.get(ownerID).Account.Photo)

	require.Len(t, f.publisher.events, 1)
	var event types.UserEvent
	require.NoError(t, json.Unmarshal(f.publisher.events[0].data, &event))
	assert.Equal(t, types.EventUserPictureUpdated, event.Type)
	assert.Equal(t, ownerID, event.UserID)
	assert.Equal(t, profile.Account.Photo.PictureID, event.PictureID)
}

func TestUpload_ReplaceReusesPictureID(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()

	first, err := f.svc.Upload(ctx, ownerID, owner(), photo("one"))
	require.NoError(t, err)
	second, err := f.svc.Upload(ctx, ownerID, owner(), photo("two"))
	require.NoError(t, err)

	require.Len(t, f.storage.uploads, 2)
	assert.Equal(t, first.Account.Photo.PictureID, f.storage.uploads[1].PublicID)
	assert.Equal(t, first.Account.Photo.PictureID, second.Account.Photo.PictureID)
	assert.Equal(t, first.Account.Photo.URL, second.Account.Photo.URL)
}

func TestUpload_ProfileOmitsCredentials(t *testing.T) {
	f := newPictureFixture()

	profile, err := f.svc.Upload(context.Background(), ownerID, owner(), photo("png"))
	require.NoError(t, err)

	raw, err := json.Marshal(profile)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.ElementsMatch(t, []string{"_id", "email", "account", "rooms"}, keys(fields))
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name      string
		targetID  string
		requester types.User
		photo     *PhotoFile
		want      error
	}{
		{name: "missing id", targetID: " ", requester: owner(), photo: photo("x"), want: ErrMissingID},
		{name: "unknown user", targetID: "5d41402a-bc4b-4a76-b971-9d911017c592", requester: owner(), photo: photo("x"), want: ErrUserNotFound},
		{name: "other user", targetID: otherID, requester: owner(), photo: photo("x"), want: ErrUnauthorized},
		{name: "anonymous", targetID: ownerID, requester: types.User{}, photo: photo("x"), want: ErrUnauthorized},
		{name: "missing photo", targetID: ownerID, requester: owner(), photo: nil, want: ErrMissingPhoto},
		{name: "empty body", targetID: ownerID, requester: owner(), photo: &PhotoFile{}, want: ErrMissingPhoto},
		// Ownership is checked before the photo.
		{name: "other user without photo", targetID: otherID, requester: owner(), photo: nil, want: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPictureFixture()

			_, err := f.svc.Upload(context.Background(), tt.targetID, tt.requester, tt.photo)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.storage.uploads)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestUpload_PhotoTooLarge(t *testing.T) {
	f := newPictureFixture()
	f.svc.cfg.MaxBytes = 4

	_, err := f.svc.Upload(context.Background(), ownerID, owner(), photo("12345"))
	assert.ErrorIs(t, err, ErrPhotoTooLarge)
	assert.Equal(t, "uploaded file too large", err.Error())
	assert.Empty(t, f.storage.uploads)

	_, err = f.svc.Upload(context.Background(), ownerID, owner(), photo("1234"))
	assert.NoError(t, err)
}

func TestUpload_SizeCheckedAfterOwnership(t *testing.T) {
	f := newPictureFixture()
	f.svc.cfg.MaxBytes = 4

	_, err := f.svc.Upload(context.Background(), otherID, owner(), photo("12345"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Upload(context.Background(), "5d41402a-bc4b-4a76-b971-9d911017c592", owner(), photo("12345"))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpload_DefaultMaxBytes(t *testing.T) {
	f := newPictureFixture()
	big := &PhotoFile{Size: DefaultMaxPhotoBytes + 1, Body: strings.NewReader("x")}

	_, err := f.svc.Upload(context.Background(), ownerID, owner(), big)
	assert.ErrorIs(t, err, ErrPhotoTooLarge)
}

func TestUpload_StorageFailureLeavesAccount(t *testing.T) {
	f := newPictureFixture()
	f.storage.uploadErr = errBoom

	_, err := f.svc.Upload(context.Background(), ownerID, owner(), photo("png"))
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, f.repo.get(ownerID).Account.Photo)
}

func TestDelete_RemovesPicture(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()

	uploaded, err := f.svc.Upload(ctx, ownerID, owner(), photo("png"))
	require.NoError(t, err)

	profile, err := f.svc.Delete(ctx, ownerID, owner())
	require.NoError(t, err)

	assert.Nil(t, profile.Account.Photo)
	assert.Nil(t, f.repo.get(ownerID).Account.Photo)
	assert.Equal(t, []string{uploaded.Account.Photo.PictureID}, f.storage.destroyed)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, types.EventUserPictureDeleted, f.publisher.events[1].attrs[types.EventAttributeType])

	_, err = f.svc.Delete(ctx, ownerID, owner())
	assert.ErrorIs(t, err, ErrNoPhotoFound)
}

func TestDelete_Errors(t *testing.T) {
	tests := []struct {
		name      string
		targetID  string
		requester types.User
		want      error
	}{
		{name: "missing id", targetID: "", requester: owner(), want: ErrMissingID},
		{name: "unknown user", targetID: "5d41402a-bc4b-4a76-b971-9d911017c592", requester: owner(), want: ErrUserNotFound},
		{name: "other user", targetID: otherID, requester: owner(), want: ErrUnauthorized},
		{name: "no photo", targetID: ownerID, requester: owner(), want: ErrNoPhotoFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPictureFixture()

			_, err := f.svc.Delete(context.Background(), tt.targetID, tt.requester)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.storage.destroyed)
		})
	}
}

func TestEvents_NilIsNoop(t *testing.T) {
	var events *Events
	assert.NotPanics(t, func() {
		events.Emit(context.Background(), types.EventUserCreated, ownerID, "")
	})
}
