package bookreviews_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pollex.nl/bookreviews"
)

func setupStore(t testing.TB) *bookreviews.Store {
	store, err := bookreviews.Open("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	require.NoError(t, store.Migrate(context.Background()))

	return store
}

func TestStoreCreateAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	t.Run("create assigns ids", func(t *testing.T) {
		user := &bookreviews.User{Name: "Ada Hopper", Email: "ada@example.test"}
		require.NoError(t, store.CreateUser(ctx, user))
		assert.NotZero(t, user.ID)

		book := &bookreviews.Book{Title: "The Hidden Archive", Publisher: "Northlight Books"}
		require.NoError(t, store.CreateBook(ctx, book))
		assert.NotZero(t, book.ID)

		genre := &bookreviews.Genre{Name: "Mystery"}
		require.NoError(t, store.CreateGenre(ctx, genre))
		assert.NotZero(t, genre.ID)

		review := &bookreviews.Review{UserID: user.ID, BookID: book.ID, Score: 4}
		require.NoError(t, store.CreateReview(ctx, review))
		assert.NotZero(t, review.ID)
	})

	t.Run("get roundtrip", func(t *testing.T) {
		book := &bookreviews.Book{Title: "The Distant Harbor", Publisher: "Calloway House"}
		require.NoError(t, store.CreateBook(ctx, book))

		got, err := store.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, book.Title, got.Title)
		assert.Equal(t, book.Publisher, got.Publisher)
	})

	t.Run("get missing id", func(t *testing.T) {
		_, err := store.GetUser(ctx, 99999)
		assert.ErrorIs(t, err, bookreviews.ErrNotFound)

		_, err = store.GetReview(ctx, 99999)
		assert.ErrorIs(t, err, bookreviews.ErrNotFound)
	})
}

func TestStoreConstraints(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	user := &bookreviews.User{Name: "Grace Foster", Email: "grace@example.test"}
	require.NoError(t, store.CreateUser(ctx, user))
	book := &bookreviews.Book{Title: "The Last Letter", Publisher: "Hargreave Press"}
	require.NoError(t, store.CreateBook(ctx, book))

	t.Run("duplicate user email", func(t *testing.T) {
		err := store.CreateUser(ctx, &bookreviews.User{Name: "Other", Email: "grace@example.test"})
		assert.ErrorIs(t, err, bookreviews.ErrConstraint)
	})

	t.Run("duplicate genre name", func(t *testing.T) {
		require.NoError(t, store.CreateGenre(ctx, &bookreviews.Genre{Name: "Horror"}))
		err := store.CreateGenre(ctx, &bookreviews.Genre{Name: "Horror"})
		assert.ErrorIs(t, err, bookreviews.ErrConstraint)
	})

	t.Run("review must reference existing rows", func(t *testing.T) {
		err := store.CreateReview(ctx, &bookreviews.Review{UserID: 99999, BookID: book.ID, Score: 3})
		assert.ErrorIs(t, err, bookreviews.ErrConstraint)

		err = store.CreateReview(ctx, &bookreviews.Review{UserID: user.ID, BookID: 99999, Score: 3})
		assert.ErrorIs(t, err, bookreviews.ErrConstraint)
	})

	t.Run("score is bounded", func(t *testing.T) {
		err := store.CreateReview(ctx, &bookreviews.Review{UserID: user.ID, BookID: book.ID, Score: 9})
		assert.ErrorIs(t, err, bookreviews.ErrConstraint)

		err = store.CreateReview(ctx, &bookreviews.Review{UserID: user.ID, BookID: book.ID, Score: 0})
		assert.ErrorIs(t, err, bookreviews.ErrConstraint)
	})

	t.Run("attach requires existing pair members", func(t *testing.T) {
		_, err := store.AttachGenre(ctx, book.ID, 99999)
		assert.ErrorIs(t, err, bookreviews.ErrConstraint)
	})
}

func TestStoreDeleteRestricts(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	user := &bookreviews.User{Name: "Ken Liskov", Email: "ken@example.test"}
	require.NoError(t, store.CreateUser(ctx, user))
	book := &bookreviews.Book{Title: "The Burning Garden", Publisher: "Ticknor & Sons"}
	require.NoError(t, store.CreateBook(ctx, book))
	genre := &bookreviews.Genre{Name: "Fantasy"}
	require.NoError(t, store.CreateGenre(ctx, genre))

	review := &bookreviews.Review{UserID: user.ID, BookID: book.ID, Score: 2}
	require.NoError(t, store.CreateReview(ctx, review))
	_, err := store.AttachGenre(ctx, book.ID, genre.ID)
	require.NoError(t, err)

	t.Run("user with reviews", func(t *testing.T) {
		assert.ErrorIs(t, store.DeleteUser(ctx, user.ID), bookreviews.ErrConstraint)
	})

	t.Run("book with reviews and join rows", func(t *testing.T) {
		assert.ErrorIs(t, store.DeleteBook(ctx, book.ID), bookreviews.ErrConstraint)
	})

	t.Run("genre with join rows", func(t *testing.T) {
		assert.ErrorIs(t, store.DeleteGenre(ctx, genre.ID), bookreviews.ErrConstraint)
	})

	t.Run("delete after dependents are gone", func(t *testing.T) {
		require.NoError(t, store.DeleteReview(ctx, review.ID))
		require.NoError(t, store.DetachGenre(ctx, book.ID, genre.ID))

		require.NoError(t, store.DeleteUser(ctx, user.ID))
		require.NoError(t, store.DeleteBook(ctx, book.ID))
		require.NoError(t, store.DeleteGenre(ctx, genre.ID))
	})

	t.Run("delete missing id", func(t *testing.T) {
		assert.ErrorIs(t, store.DeleteUser(ctx, user.ID), bookreviews.ErrNotFound)
	})
}
