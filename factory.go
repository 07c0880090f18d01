package bookreviews

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"
)

// GenreNames is the fixed candidate pool Factory.Genre draws names from.
var GenreNames = []string{
	"Science Fiction",
	"Fantasy",
	"Mystery",
	"Thriller",
	"Romance",
	"Horror",
	"Historical Fiction",
	"Biography",
	"Self-Help",
	"Business",
}

var (
	firstNames = []string{"Ada", "Grace", "Linus", "Margaret", "Dennis", "Barbara", "Ken", "Frances"}
	lastNames  = []string{"Moore", "Hopper", "Foster", "Hamilton", "Ritchie", "Liskov", "Thompson", "Allen"}
	publishers = []string{"Ticknor & Sons", "Hargreave Press", "Northlight Books", "Calloway House"}
	titleAdjs  = []string{"Silent", "Burning", "Forgotten", "Last", "Hidden", "Distant"}
	titleNouns = []string{"River", "Archive", "Harbor", "Garden", "Letter", "Winter"}
)

// Factory persists randomized valid entities for tests. Overrides pin
// fields before the remaining zero fields are filled in, so a pinned field
// is never clobbered by randomization.
type Factory struct {
	store     *Store
	genrePool []string
	seq       int64
}

func NewFactory(store *Store) *Factory {
	return &Factory{
		store:     store,
		genrePool: lo.Shuffle(slices.Clone(GenreNames)),
	}
}

func (factory *Factory) User(ctx context.Context, overrides ...func(*User)) (*User, error) {
	var user User
	for _, override := range overrides {
		override(&user)
	}

	if user.Name == "" {
		user.Name = lo.Sample(firstNames) + " " + lo.Sample(lastNames)
	}
	if user.Email == "" {
		// email is unique, so randomness alone is not enough
		user.Email = fmt.Sprintf("user%d@example.test", factory.next())
	}

	if err := factory.store.CreateUser(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (factory *Factory) Book(ctx context.Context, overrides ...func(*Book)) (*Book, error) {
	var book Book
	for _, override := range overrides {
		override(&book)
	}

	if book.Title == "" {
		book.Title = fmt.Sprintf("The %s %s", lo.Sample(titleAdjs), lo.Sample(titleNouns))
	}
	if book.Publisher == "" {
		book.Publisher = lo.Sample(publishers)
	}

	if err := factory.store.CreateBook(ctx, &book); err != nil {
		return nil, err
	}

	return &book, nil
}

// Genre draws its name from GenreNames without replacement, so every genre
// a factory produces has a distinct name. The draw fails once the pool is
// exhausted rather than repeating a name.
func (factory *Factory) Genre(ctx context.Context, overrides ...func(*Genre)) (*Genre, error) {
	var genre Genre
	for _, override := range overrides {
		override(&genre)
	}

	if genre.Name == "" {
		if len(factory.genrePool) == 0 {
			return nil, fmt.Errorf("genre factory: name pool exhausted after %d draws", len(GenreNames))
		}

		genre.Name = factory.genrePool[0]
		factory.genrePool = factory.genrePool[1:]
	}

	if err := factory.store.CreateGenre(ctx, &genre); err != nil {
		return nil, err
	}

	return &genre, nil
}

// Review fabricates a User and a Book of its own when neither id is pinned,
// so a single call yields a fully valid review graph.
func (factory *Factory) Review(ctx context.Context, overrides ...func(*Review)) (*Review, error) {
	var review Review
	for _, override := range overrides {
		override(&review)
	}

	if review.UserID == 0 {
		user, err := factory.User(ctx)
		if err != nil {
			return nil, err
		}
		review.UserID = user.ID
	}
	if review.BookID == 0 {
		book, err := factory.Book(ctx)
		if err != nil {
			return nil, err
		}
		review.BookID = book.ID
	}
	if review.Score == 0 {
		review.Score = rand.IntN(5) + 1
	}

	if err := factory.store.CreateReview(ctx, &review); err != nil {
		return nil, err
	}

	return &review, nil
}

func (factory *Factory) next() int64 {
	factory.seq++
	return factory.seq
}
