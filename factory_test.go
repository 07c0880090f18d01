package bookreviews_test

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pollex.nl/bookreviews"
)

func TestFactoryGenreNames(t *testing.T) {
	store := setupStore(t)
	factory := bookreviews.NewFactory(store)
	ctx := context.Background()

	var names []string
	for range len(bookreviews.GenreNames) {
		genre, err := factory.Genre(ctx)
		require.NoError(t, err)
		assert.Contains(t, bookreviews.GenreNames, genre.Name)
		names = append(names, genre.Name)
	}

	assert.Len(t, lo.Uniq(names), len(bookreviews.GenreNames))

	t.Run("pool exhausted", func(t *testing.T) {
		_, err := factory.Genre(ctx)
		assert.Error(t, err)
	})

	t.Run("pinned name skips the pool", func(t *testing.T) {
		genre, err := factory.Genre(ctx, func(g *bookreviews.Genre) { g.Name = "Cookbooks" })
		require.NoError(t, err)
		assert.Equal(t, "Cookbooks", genre.Name)
	})
}

func TestFactoryOverrides(t *testing.T) {
	store := setupStore(t)
	factory := bookreviews.NewFactory(store)
	ctx := context.Background()

	t.Run("pinned fields survive, the rest is filled in", func(t *testing.T) {
		user, err := factory.User(ctx, func(u *bookreviews.User) { u.Name = "Pinned Name" })
		require.NoError(t, err)
		assert.Equal(t, "Pinned Name", user.Name)
		assert.NotEmpty(t, user.Email)

		book, err := factory.Book(ctx, func(b *bookreviews.Book) { b.Publisher = "Pinned Press" })
		require.NoError(t, err)
		assert.Equal(t, "Pinned Press", book.Publisher)
		assert.NotEmpty(t, book.Title)
	})

	t.Run("produced users are distinct rows", func(t *testing.T) {
		first, err := factory.User(ctx)
		require.NoError(t, err)
		second, err := factory.User(ctx)
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
		assert.NotEqual(t, first.Email, second.Email)
	})
}

func TestFactoryReview(t *testing.T) {
	store := setupStore(t)
	factory := bookreviews.NewFactory(store)
	ctx := context.Background()

	t.Run("fabricates its own user and book", func(t *testing.T) {
		review, err := factory.Review(ctx)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, review.Score, 1)
		assert.LessOrEqual(t, review.Score, 5)

		owner, err := store.UserOfReview(ctx, *review)
		require.NoError(t, err)
		assert.NotZero(t, owner.ID)

		reviewed, err := store.BookOfReview(ctx, *review)
		require.NoError(t, err)
		assert.NotZero(t, reviewed.ID)
	})

	t.Run("pinned user and score", func(t *testing.T) {
		user, err := factory.User(ctx)
		require.NoError(t, err)

		review, err := factory.Review(ctx, func(r *bookreviews.Review) {
			r.UserID = user.ID
			r.Score = 5
		})
		require.NoError(t, err)
		assert.Equal(t, user.ID, review.UserID)
		assert.Equal(t, 5, review.Score)

		reviews, err := store.ReviewsOfUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		assert.Equal(t, 5, reviews[0].Score)
	})
}
