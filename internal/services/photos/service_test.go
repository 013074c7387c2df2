package photos

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/anoixa/photo-share/database"
	"github.com/anoixa/photo-share/database/dbtest"
	"github.com/anoixa/photo-share/database/models"
	"github.com/anoixa/photo-share/database/repo/accounts"
	"github.com/anoixa/photo-share/database/repo/favorites"
	photorepo "github.com/anoixa/photo-share/database/repo/photos"
	"github.com/anoixa/photo-share/internal/services"
	"github.com/anoixa/photo-share/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type likeEvent struct {
	PhotoID string
	Likes   []string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []likeEvent
}

func (n *recordingNotifier) PublishLikeUpdate(photoID string, likes []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, likeEvent{PhotoID: photoID, Likes: append([]string{}, likes...)})
}

func (n *recordingNotifier) Events() []likeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]likeEvent{}, n.events...)
}

// failingDeleteStorage 删除总是失败的存储
type failingDeleteStorage struct {
	storage.Provider
}

func (f failingDeleteStorage) DeleteWithContext(context.Context, string) error {
	return errors.New("disk unavailable")
}

type fixture struct {
	svc       *Service
	users     *accounts.Repository
	photos    *photorepo.Repository
	favorites *favorites.Repository
	store     storage.Provider
	notifier  *recordingNotifier
	db        database.Provider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.NewProvider(t)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		users:     accounts.NewRepository(db),
		photos:    photorepo.NewRepository(db),
		favorites: favorites.NewRepository(db),
		store:     store,
		notifier:  &recordingNotifier{},
		db:        db,
	}
	f.svc = NewService(f.photos, f.users, f.store, f.notifier)
	return f
}

func (f *fixture) createUser(t *testing.T, loginName string) *models.User {
	t.Helper()
	user := &models.User{LoginName: loginName, Password: "x", FirstName: loginName, LastName: "Test"}
	require.NoError(t, f.users.CreateUser(context.Background(), user))
	return user
}

func (f *fixture) upload(t *testing.T, ownerID string) *models.Photo {
	t.Helper()
	data := []byte("jpeg bytes")
	photo, err := f.svc.Upload(context.Background(), ownerID, Blob{Name: "a.jpg", Size: int64(len(data)), Body: bytes.NewReader(data)})
	require.NoError(t, err)
	return photo
}

func TestUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.createUser(t, "alice")

	photo := f.upload(t, owner.ID)
	assert.Equal(t, owner.ID, photo.UserID)
	assert.Regexp(t, `^U\d+-[0-9a-f-]{36}\.jpg$`, photo.FileName)

	exists, err := f.store.Exists(ctx, photo.FileName)
	require.NoError(t, err)
	assert.True(t, exists)

	stored := dbtest.Photo(t, f.db, photo.ID)
	require.NotNil(t, stored)
	assert.Empty(t, stored.Comments)
	assert.Empty(t, stored.LikeUserIDs())
}

func TestUpload_EmptyBlob(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")

	_, err := f.svc.Upload(context.Background(), owner.ID, Blob{Name: "a.jpg"})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.svc.Upload(context.Background(), owner.ID, Blob{Name: "a.jpg", Size: 0, Body: bytes.NewReader(nil)})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestDeletePhoto_RemovesFromEveryFavorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	carol := f.createUser(t, "carol")

	photo := f.upload(t, alice.ID)
	other := f.upload(t, alice.ID)
	for _, u := range []*models.User{alice, bob, carol} {
		require.NoError(t, f.favorites.Add(ctx, u.ID, photo.ID))
	}
	require.NoError(t, f.favorites.Add(ctx, bob.ID, other.ID))

	require.NoError(t, f.svc.DeletePhoto(ctx, photo.ID, alice.ID))

	for _, u := range []*models.User{alice, bob, carol} {
		assert.NotContains(t, dbtest.FavoritePhotoIDs(t, f.db, u.ID), photo.ID)
	}
	assert.Equal(t, []string{other.ID}, dbtest.FavoritePhotoIDs(t, f.db, bob.ID))

	exists, err := f.store.Exists(ctx, photo.FileName)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeletePhoto_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	photo := f.upload(t, alice.ID)

	assert.ErrorIs(t, f.svc.DeletePhoto(ctx, photo.ID, bob.ID), services.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeletePhoto(ctx, uuid.NewString(), alice.ID), services.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeletePhoto(ctx, "not-an-id", alice.ID), services.ErrValidation)

	stored := dbtest.Photo(t, f.db, photo.ID)
	assert.NotNil(t, stored, "a rejected delete leaves the photo untouched")
}

func TestDeletePhoto_BlobFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	photo := f.upload(t, alice.ID)

	svc := NewService(f.photos, f.users, failingDeleteStorage{f.store}, f.notifier)
	require.NoError(t, svc.DeletePhoto(ctx, photo.ID, alice.ID))

	stored := dbtest.Photo(t, f.db, photo.ID)
	assert.Nil(t, stored)
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	photo := f.upload(t, alice.ID)

	_, err := f.svc.AddComment(ctx, photo.ID, alice.ID, "   \t\n ")
	assert.ErrorIs(t, err, services.ErrValidation)

	comment, err := f.svc.AddComment(ctx, photo.ID, alice.ID, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", comment.Comment)
	assert.False(t, comment.DateTime.IsZero())

	_, err = f.svc.AddComment(ctx, uuid.NewString(), alice.ID, "hello")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestDeleteComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	photo := f.upload(t, alice.ID)

	comment, err := f.svc.AddComment(ctx, photo.ID, bob.ID, "nice")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteComment(ctx, photo.ID, comment.ID, alice.ID), services.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, photo.ID, uuid.NewString(), bob.ID), services.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, uuid.NewString(), comment.ID, bob.ID), services.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, "bad", comment.ID, bob.ID), services.ErrValidation)

	require.NoError(t, f.svc.DeleteComment(ctx, photo.ID, comment.ID, bob.ID))

	stored := dbtest.Photo(t, f.db, photo.ID)
	assert.Empty(t, stored.Comments)
}

func TestLikeUnlike_EmitsOneEventPerTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	photo := f.upload(t, alice.ID)

	likes, err := f.svc.Like(ctx, photo.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, likes)

	likes, err = f.svc.Like(ctx, photo.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, likes, "liking twice equals liking once")

	likes, err = f.svc.Unlike(ctx, photo.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)

	likes, err = f.svc.Unlike(ctx, photo.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)

	assert.Equal(t, []likeEvent{
		{PhotoID: photo.ID, Likes: []string{bob.ID}},
		{PhotoID: photo.ID, Likes: []string{}},
	}, f.notifier.Events())
}

func TestUnlike_NeverLikedIsNoop(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	photo := f.upload(t, alice.ID)

	likes, err := f.svc.Unlike(context.Background(), photo.ID, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)
	assert.Empty(t, f.notifier.Events())
}

func TestLike_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")

	_, err := f.svc.Like(ctx, uuid.NewString(), alice.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = f.svc.Like(ctx, "bad", alice.ID)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.svc.Like(ctx, uuid.NewString(), "")
	assert.ErrorIs(t, err, services.ErrUnauthorized)
	assert.Empty(t, f.notifier.Events())
}

func TestLike_ConcurrentSameUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	photo := f.upload(t, alice.ID)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Like(ctx, photo.ID, bob.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	likes, err := f.photos.LikeUserIDs(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, likes)
	assert.Len(t, f.notifier.Events(), 1)
}

func TestPhotosOfUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	photo := f.upload(t, alice.ID)

	_, err := f.svc.AddComment(ctx, photo.ID, bob.ID, "hi")
	require.NoError(t, err)
	_, err = f.svc.Like(ctx, photo.ID, bob.ID)
	require.NoError(t, err)

	views, err := f.svc.PhotosOfUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, photo.ID, views[0].ID)
	assert.Equal(t, []string{bob.ID}, views[0].Likes)
	require.Len(t, views[0].Comments, 1)
	require.NotNil(t, views[0].Comments[0].User)
	assert.Equal(t, "bob", views[0].Comments[0].User.FirstName)

	_, err = f.svc.PhotosOfUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = f.svc.PhotosOfUser(ctx, "bad")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestCommentsOfUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	p1 := f.upload(t, alice.ID)
	p2 := f.upload(t, bob.ID)

	_, err := f.svc.AddComment(ctx, p1.ID, bob.ID, "first")
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, p2.ID, bob.ID, "second")
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, p2.ID, alice.ID, "not bob")
	require.NoError(t, err)

	views, err := f.svc.CommentsOfUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "first", views[0].Comment)
	assert.Equal(t, p1.ID, views[0].Photo.ID)
	assert.Equal(t, alice.ID, views[0].Photo.UserID)
	assert.Equal(t, p2.FileName, views[1].Photo.FileName)
}

func TestHighlights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")

	empty, err := f.svc.Highlights(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, empty.MostRecent)
	assert.Nil(t, empty.MostComments)

	base := time.Now().Add(-time.Hour)
	older := &models.Photo{UserID: alice.ID, FileName: "older.jpg", DateTime: base}
	newer := &models.Photo{UserID: alice.ID, FileName: "newer.jpg", DateTime: base.Add(time.Minute)}
	require.NoError(t, f.photos.CreatePhoto(ctx, older))
	require.NoError(t, f.photos.CreatePhoto(ctx, newer))

	// 评论数并列时保留较早的照片
	h, err := f.svc.Highlights(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, h.MostRecent.ID)
	assert.Equal(t, older.ID, h.MostComments.ID)
	assert.Equal(t, 0, h.MostComments.CommentCount)

	_, err = f.svc.AddComment(ctx, newer.ID, alice.ID, "one")
	require.NoError(t, err)
	h, err = f.svc.Highlights(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, h.MostComments.ID)
	assert.Equal(t, 1, h.MostComments.CommentCount)
}

func TestOpenBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	photo := f.upload(t, alice.ID)

	reader, err := f.svc.OpenBlob(ctx, photo.FileName)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	_, err = f.svc.OpenBlob(ctx, "missing.jpg")
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = f.svc.OpenBlob(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, services.ErrValidation)
}
