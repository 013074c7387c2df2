package consistency

import (
	"context"
	"strings"
	"testing"

	"github.com/anoixa/photo-share/database/dbtest"
	"github.com/anoixa/photo-share/database/models"
	"github.com/anoixa/photo-share/database/repo/accounts"
	"github.com/anoixa/photo-share/database/repo/favorites"
	"github.com/anoixa/photo-share/database/repo/photos"
	"github.com/anoixa/photo-share/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRemover struct {
	store storage.Provider
	names []string
}

func (r *recordingRemover) RemoveBlobs(owned []models.Photo) {
	for _, photo := range owned {
		r.names = append(r.names, photo.FileName)
		_ = r.store.DeleteWithContext(context.Background(), photo.FileName)
	}
}

func TestSweeper_RepairsInterruptedAccountDeletion(t *testing.T) {
	db := dbtest.NewProvider(t)
	ctx := context.Background()
	users := accounts.NewRepository(db)
	photoRepo := photos.NewRepository(db)
	favoriteRepo := favorites.NewRepository(db)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	remover := &recordingRemover{store: store}

	alice := &models.User{LoginName: "alice", Password: "x", FirstName: "A", LastName: "A"}
	bob := &models.User{LoginName: "bob", Password: "x", FirstName: "B", LastName: "B"}
	require.NoError(t, users.CreateUser(ctx, alice))
	require.NoError(t, users.CreateUser(ctx, bob))

	alicePhoto := &models.Photo{UserID: alice.ID, FileName: "alice.jpg"}
	bobPhoto := &models.Photo{UserID: bob.ID, FileName: "bob.jpg"}
	require.NoError(t, photoRepo.CreatePhoto(ctx, alicePhoto))
	require.NoError(t, photoRepo.CreatePhoto(ctx, bobPhoto))
	require.NoError(t, store.SaveWithContext(ctx, "alice.jpg", strings.NewReader("a")))

	require.NoError(t, photoRepo.AddComment(ctx, &models.Comment{PhotoID: bobPhoto.ID, UserID: alice.ID, Comment: "hi"}))
	require.NoError(t, photoRepo.AddComment(ctx, &models.Comment{PhotoID: alicePhoto.ID, UserID: bob.ID, Comment: "hey"}))
	require.NoError(t, photoRepo.AddComment(ctx, &models.Comment{PhotoID: bobPhoto.ID, UserID: bob.ID, Comment: "mine"}))
	_, _, err = photoRepo.Like(ctx, bobPhoto.ID, alice.ID)
	require.NoError(t, err)
	require.NoError(t, favoriteRepo.Add(ctx, bob.ID, alicePhoto.ID))
	require.NoError(t, favoriteRepo.Add(ctx, alice.ID, bobPhoto.ID))

	// 级联在删除用户记录后中断，其余引用全部残留
	_, err = users.DeleteUser(ctx, alice.ID)
	require.NoError(t, err)

	sweeper := NewSweeper(photoRepo, favoriteRepo, remover)
	report, err := sweeper.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.OrphanPhotos)
	assert.Equal(t, int64(1), report.OrphanComments)
	assert.Equal(t, int64(1), report.OrphanLikes)
	assert.Equal(t, int64(2), report.OrphanFavorites)
	assert.Equal(t, []string{"alice.jpg"}, remover.names)

	photo := dbtest.Photo(t, db, bobPhoto.ID)
	require.Len(t, photo.Comments, 1)
	assert.Equal(t, "mine", photo.Comments[0].Comment)
	assert.Empty(t, photo.LikeUserIDs())

	assert.Empty(t, dbtest.FavoritePhotoIDs(t, db, bob.ID))

	again, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Total(), "sweeping is idempotent")
}

func TestSweeper_StartStop(t *testing.T) {
	db := dbtest.NewProvider(t)
	sweeper := NewSweeper(photos.NewRepository(db), favorites.NewRepository(db), &recordingRemover{})

	sweeper.Start(0)
	sweeper.Stop()
	sweeper.Stop()
}
