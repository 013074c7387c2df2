package photos

import (
	"context"
	"testing"
	"time"

	"github.com/anoixa/photo-share/database"
	"github.com/anoixa/photo-share/database/dbtest"
	"github.com/anoixa/photo-share/database/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Repository, database.Provider) {
	t.Helper()
	db := dbtest.NewProvider(t)
	return NewRepository(db), db
}

func createUser(t *testing.T, db database.Provider, login string) *models.User {
	t.Helper()
	user := &models.User{LoginName: login, Password: "x", FirstName: login, LastName: "L"}
	require.NoError(t, db.DB().Create(user).Error)
	return user
}

func createPhoto(t *testing.T, repo *Repository, ownerID string) *models.Photo {
	t.Helper()
	photo := &models.Photo{UserID: ownerID, FileName: "U1-" + uuid.NewString() + ".jpg"}
	require.NoError(t, repo.CreatePhoto(context.Background(), photo))
	return photo
}

func TestCreateAndGetPhoto(t *testing.T) {
	repo, db := setup(t)
	owner := createUser(t, db, "owner")

	photo := createPhoto(t, repo, owner.ID)
	assert.Len(t, photo.ID, 36)
	assert.False(t, photo.DateTime.IsZero())

	got := dbtest.Photo(t, db, photo.ID)
	require.NotNil(t, got)
	assert.Equal(t, owner.ID, got.UserID)
	assert.Empty(t, got.Comments)
	assert.Empty(t, got.LikeUserIDs())
	assert.NotNil(t, got.LikeUserIDs())

	assert.Nil(t, dbtest.Photo(t, db, uuid.NewString()))
}

func TestAddComment_OrderedAndScoped(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	author := createUser(t, db, "author")
	photo := createPhoto(t, repo, owner.ID)

	base := time.Now()
	require.NoError(t, repo.AddComment(ctx, &models.Comment{PhotoID: photo.ID, UserID: author.ID, Comment: "second", DateTime: base.Add(time.Second)}))
	require.NoError(t, repo.AddComment(ctx, &models.Comment{PhotoID: photo.ID, UserID: owner.ID, Comment: "first", DateTime: base}))

	got := dbtest.Photo(t, db, photo.ID)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "first", got.Comments[0].Comment)
	assert.Equal(t, "second", got.Comments[1].Comment)

	err := repo.AddComment(ctx, &models.Comment{PhotoID: uuid.NewString(), UserID: author.ID, Comment: "x"})
	assert.ErrorIs(t, err, ErrPhotoNotFound)

	byAuthor, err := repo.ListCommentsByAuthor(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "second", byAuthor[0].Comment)
}

func TestDeleteComment(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	author := createUser(t, db, "author")
	photo := createPhoto(t, repo, owner.ID)

	comment := &models.Comment{PhotoID: photo.ID, UserID: author.ID, Comment: "hi"}
	require.NoError(t, repo.AddComment(ctx, comment))

	assert.ErrorIs(t, repo.DeleteComment(ctx, uuid.NewString(), comment.ID, author.ID), ErrPhotoNotFound)
	assert.ErrorIs(t, repo.DeleteComment(ctx, photo.ID, uuid.NewString(), author.ID), ErrCommentNotFound)
	// 照片所有者也不能删除他人的评论
	assert.ErrorIs(t, repo.DeleteComment(ctx, photo.ID, comment.ID, owner.ID), ErrNotAuthor)

	require.NoError(t, repo.DeleteComment(ctx, photo.ID, comment.ID, author.ID))

	got := dbtest.Photo(t, db, photo.ID)
	assert.Empty(t, got.Comments)
}

func TestLikeUnlike_Idempotent(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	fan := createUser(t, db, "fan")
	photo := createPhoto(t, repo, owner.ID)

	changed, likes, err := repo.Like(ctx, photo.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{fan.ID}, likes)

	changed, likes, err = repo.Like(ctx, photo.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{fan.ID}, likes)

	changed, likes, err = repo.Unlike(ctx, photo.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, likes)
	assert.NotNil(t, likes)

	changed, _, err = repo.Unlike(ctx, photo.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	_, _, err = repo.Like(ctx, uuid.NewString(), fan.ID)
	assert.ErrorIs(t, err, ErrPhotoNotFound)
	_, _, err = repo.Unlike(ctx, uuid.NewString(), fan.ID)
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestDeletePhoto_CascadesAndChecksOwner(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	other := createUser(t, db, "other")
	photo := createPhoto(t, repo, owner.ID)

	require.NoError(t, repo.AddComment(ctx, &models.Comment{PhotoID: photo.ID, UserID: other.ID, Comment: "c"}))
	_, _, err := repo.Like(ctx, photo.ID, other.ID)
	require.NoError(t, err)
	require.NoError(t, db.DB().Create(&models.Favorite{UserID: other.ID, PhotoID: photo.ID}).Error)

	_, err = repo.DeletePhoto(ctx, photo.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	deleted, err := repo.DeletePhoto(ctx, photo.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, photo.FileName, deleted.FileName)

	var count int64
	db.DB().Model(&models.Comment{}).Count(&count)
	assert.Zero(t, count)
	db.DB().Model(&models.PhotoLike{}).Count(&count)
	assert.Zero(t, count)
	db.DB().Model(&models.Favorite{}).Count(&count)
	assert.Zero(t, count)

	_, err = repo.DeletePhoto(ctx, photo.ID, owner.ID)
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestUserScopedBulkOperations(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	pa1 := createPhoto(t, repo, a.ID)
	pa2 := createPhoto(t, repo, a.ID)
	pb := createPhoto(t, repo, b.ID)

	require.NoError(t, repo.AddComment(ctx, &models.Comment{PhotoID: pb.ID, UserID: a.ID, Comment: "1"}))
	require.NoError(t, repo.AddComment(ctx, &models.Comment{PhotoID: pb.ID, UserID: a.ID, Comment: "2"}))
	require.NoError(t, repo.AddComment(ctx, &models.Comment{PhotoID: pa1.ID, UserID: b.ID, Comment: "3"}))
	_, _, err := repo.Like(ctx, pb.ID, a.ID)
	require.NoError(t, err)

	photoCounts, err := repo.CountPhotosByUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), photoCounts[a.ID])
	assert.Equal(t, int64(1), photoCounts[b.ID])

	commentCounts, err := repo.CountCommentedPhotosByUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), commentCounts[a.ID], "two comments on one photo count once")
	assert.Equal(t, int64(1), commentCounts[b.ID])

	owned, err := repo.ListPhotosOwnedBy(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	n, err := repo.DeletePhotosByIDs(ctx, []string{pa1.ID, pa2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	pulled, err := repo.PullCommentsByAuthor(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pulled)

	affected, err := repo.PullLikesByUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{pb.ID}, affected)

	got := dbtest.Photo(t, db, pb.ID)
	assert.Empty(t, got.Comments)
	assert.Empty(t, got.Likes)

	// b 在 pa1 上的评论随照片一起删除
	var count int64
	db.DB().Model(&models.Comment{}).Count(&count)
	assert.Zero(t, count)
}

func TestOrphanSweeps(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	pa := createPhoto(t, repo, a.ID)
	pb := createPhoto(t, repo, b.ID)

	require.NoError(t, repo.AddComment(ctx, &models.Comment{PhotoID: pa.ID, UserID: b.ID, Comment: "x"}))
	_, _, err := repo.Like(ctx, pa.ID, b.ID)
	require.NoError(t, err)
	_, _, err = repo.Like(ctx, pb.ID, a.ID)
	require.NoError(t, err)

	// 模拟级联中途失败：用户 b 已删除，其数据仍残留
	require.NoError(t, db.DB().Where("id = ?", b.ID).Delete(&models.User{}).Error)

	orphans, err := repo.ListOrphanPhotos(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, pb.ID, orphans[0].ID)

	_, err = repo.DeletePhotosByIDs(ctx, []string{pb.ID})
	require.NoError(t, err)

	n, err := repo.DeleteOrphanComments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteOrphanLikes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 再次执行没有可清理的数据
	n, err = repo.DeleteOrphanLikes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
