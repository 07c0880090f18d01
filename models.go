package bookreviews

// User is an account that writes reviews.
type User struct {
	ID    int64  // users.id
	Name  string // users.name
	Email string // users.email

	Reviews []Review
}

// Book is a catalog entry. Genres is populated through the books_genres
// join table.
type Book struct {
	ID        int64  // books.id
	Title     string // books.title
	Publisher string // books.publisher

	Reviews []Review
	Genres  []Genre
}

type Genre struct {
	ID   int64  // genres.id
	Name string // genres.name

	Books []Book
}

// Review links exactly one User and one Book with a score between 1 and 5.
type Review struct {
	ID     int64 // reviews.id
	UserID int64 // reviews.user_id
	BookID int64 // reviews.book_id
	Score  int   // reviews.score

	User *User
	Book *Book
}

var UserSchema = NewSchema[User]("users").
	AddColumn("id", func(t *User) any { return &t.ID }).
	AddColumn("name", func(t *User) any { return &t.Name }).
	AddColumn("email", func(t *User) any { return &t.Email })

var BookSchema = NewSchema[Book]("books").
	AddColumn("id", func(t *Book) any { return &t.ID }).
	AddColumn("title", func(t *Book) any { return &t.Title }).
	AddColumn("publisher", func(t *Book) any { return &t.Publisher })

var GenreSchema = NewSchema[Genre]("genres").
	AddColumn("id", func(t *Genre) any { return &t.ID }).
	AddColumn("name", func(t *Genre) any { return &t.Name })

var ReviewSchema = NewSchema[Review]("reviews").
	AddColumn("id", func(t *Review) any { return &t.ID }).
	AddColumn("user_id", func(t *Review) any { return &t.UserID }).
	AddColumn("book_id", func(t *Review) any { return &t.BookID }).
	AddColumn("score", func(t *Review) any { return &t.Score })

// One physical pair table, read from either side.
var (
	booksGenres = JoinTable{Table: "books_genres", ParentCol: "book_id", ChildCol: "genre_id"}
	genresBooks = JoinTable{Table: "books_genres", ParentCol: "genre_id", ChildCol: "book_id"}
)

// Relations are wired in init because the schemas reference each other.
func init() {
	UserSchema.AddRelation("reviews",
		HasMany(ReviewSchema,
			func(user User, review Review) bool { return review.UserID == user.ID },
			func(user *User, reviews []Review) { user.Reviews = reviews },
			WhereIDs("user_id", func(user User) int64 { return user.ID }),
		))

	BookSchema.
		AddRelation("reviews",
			HasMany(ReviewSchema,
				func(book Book, review Review) bool { return review.BookID == book.ID },
				func(book *Book, reviews []Review) { book.Reviews = reviews },
				WhereIDs("book_id", func(book Book) int64 { return book.ID }),
			)).
		AddRelation("genres",
			ManyToMany(GenreSchema, booksGenres,
				func(book Book) int64 { return book.ID },
				func(genre Genre) int64 { return genre.ID },
				func(book *Book, genres []Genre) { book.Genres = genres },
			))

	GenreSchema.AddRelation("books",
		ManyToMany(BookSchema, genresBooks,
			func(genre Genre) int64 { return genre.ID },
			func(book Book) int64 { return book.ID },
			func(genre *Genre, books []Book) { genre.Books = books },
		))

	ReviewSchema.
		AddRelation("user",
			HasOne(UserSchema,
				func(review Review, user User) bool { return review.UserID == user.ID },
				func(review *Review, user User) { review.User = &user },
				WhereIDs("id", func(review Review) int64 { return review.UserID }),
			)).
		AddRelation("book",
			HasOne(BookSchema,
				func(review Review, book Book) bool { return review.BookID == book.ID },
				func(review *Review, book Book) { review.Book = &book },
				WhereIDs("id", func(review Review) int64 { return review.BookID }),
			))
}
