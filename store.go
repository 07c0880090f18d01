package bookreviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
)

const migrate = `
	create table if not exists users (
		id integer primary key,
		name text not null,
		email text not null unique
	);
	create table if not exists books (
		id integer primary key,
		title text not null,
		publisher text not null
	);
	create table if not exists genres (
		id integer primary key,
		name text not null unique
	);
	create table if not exists reviews (
		id integer primary key,
		user_id integer not null references users (id),
		book_id integer not null references books (id),
		score integer not null check (score between 1 and 5)
	);
	create table if not exists books_genres (
		book_id integer not null references books (id),
		genre_id integer not null references genres (id),
		primary key (book_id, genre_id)
	);
	`

// Store persists the review graph in SQLite and exposes the association
// accessors the rest of the application builds on.
type Store struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

// Open opens a SQLite database with foreign-key enforcement on. Call
// Migrate before first use.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", withForeignKeys(dsn))
	if err != nil {
		return nil, err
	}

	if strings.Contains(dsn, ":memory:") {
		// every sqlite connection gets its own private in-memory database
		db.SetMaxOpenConns(1)
	}

	return NewStore(db), nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
		sq: squirrel.StatementBuilder.RunWith(db),
	}
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + "_foreign_keys=on"
}

func (store *Store) DB() *sql.DB { return store.db }

func (store *Store) Close() error { return store.db.Close() }

func (store *Store) Migrate(ctx context.Context) error {
	if _, err := store.db.ExecContext(ctx, migrate); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}

// =================
// Writes
// =================

func (store *Store) CreateUser(ctx context.Context, user *User) error {
	res, err := store.sq.Insert("users").
		Columns("name", "email").
		Values(user.Name, user.Email).
		ExecContext(ctx)
	if err != nil {
		return storeErr("create user", err)
	}

	user.ID, err = res.LastInsertId()

	return err
}

func (store *Store) CreateBook(ctx context.Context, book *Book) error {
	res, err := store.sq.Insert("books").
		Columns("title", "publisher").
		Values(book.Title, book.Publisher).
		ExecContext(ctx)
	if err != nil {
		return storeErr("create book", err)
	}

	book.ID, err = res.LastInsertId()

	return err
}

func (store *Store) CreateGenre(ctx context.Context, genre *Genre) error {
	res, err := store.sq.Insert("genres").
		Columns("name").
		Values(genre.Name).
		ExecContext(ctx)
	if err != nil {
		return storeErr("create genre", err)
	}

	genre.ID, err = res.LastInsertId()

	return err
}

func (store *Store) CreateReview(ctx context.Context, review *Review) error {
	res, err := store.sq.Insert("reviews").
		Columns("user_id", "book_id", "score").
		Values(review.UserID, review.BookID, review.Score).
		ExecContext(ctx)
	if err != nil {
		return storeErr("create review", err)
	}

	review.ID, err = res.LastInsertId()

	return err
}

// AttachGenre links a genre to a book. Attaching an already-linked pair is a
// no-op; the returned bool reports whether a join row was inserted.
func (store *Store) AttachGenre(ctx context.Context, bookID, genreID int64) (bool, error) {
	res, err := store.sq.Insert("books_genres").
		Columns("book_id", "genre_id").
		Values(bookID, genreID).
		Suffix("on conflict (book_id, genre_id) do nothing").
		ExecContext(ctx)
	if err != nil {
		return false, storeErr("attach genre", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return inserted > 0, nil
}

// AttachGenreStrict is AttachGenre with ErrDuplicateAssociation instead of
// the no-op on an already-linked pair.
func (store *Store) AttachGenreStrict(ctx context.Context, bookID, genreID int64) error {
	inserted, err := store.AttachGenre(ctx, bookID, genreID)
	if err != nil {
		return err
	}

	if !inserted {
		return fmt.Errorf("attach genre %d to book %d: %w", genreID, bookID, ErrDuplicateAssociation)
	}

	return nil
}

// DetachGenre removes the join row for the pair. Either side of the
// association may call it; a missing pair is ErrNotFound.
func (store *Store) DetachGenre(ctx context.Context, bookID, genreID int64) error {
	res, err := store.sq.Delete("books_genres").
		Where(squirrel.Eq{"book_id": bookID, "genre_id": genreID}).
		ExecContext(ctx)
	if err != nil {
		return storeErr("detach genre", err)
	}

	return errIfNoRows(res, fmt.Sprintf("detach genre %d from book %d", genreID, bookID))
}

// Deletes are restricted: a User or Book with Reviews, or a Book or Genre
// with join rows, fails with ErrConstraint. Detach and delete dependents
// first.

func (store *Store) DeleteUser(ctx context.Context, id int64) error {
	return store.deleteByID(ctx, "users", id)
}

func (store *Store) DeleteBook(ctx context.Context, id int64) error {
	return store.deleteByID(ctx, "books", id)
}

func (store *Store) DeleteGenre(ctx context.Context, id int64) error {
	return store.deleteByID(ctx, "genres", id)
}

func (store *Store) DeleteReview(ctx context.Context, id int64) error {
	return store.deleteByID(ctx, "reviews", id)
}

func (store *Store) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := store.sq.Delete(table).
		Where(squirrel.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return storeErr("delete from "+table, err)
	}

	return errIfNoRows(res, fmt.Sprintf("delete from %s id %d", table, id))
}

// =================
// Lookups
// =================

func (store *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	return collectOneByID(ctx, store.db, UserSchema, id)
}

func (store *Store) GetBook(ctx context.Context, id int64) (*Book, error) {
	return collectOneByID(ctx, store.db, BookSchema, id)
}

func (store *Store) GetGenre(ctx context.Context, id int64) (*Genre, error) {
	return collectOneByID(ctx, store.db, GenreSchema, id)
}

func (store *Store) GetReview(ctx context.Context, id int64) (*Review, error) {
	return collectOneByID(ctx, store.db, ReviewSchema, id)
}

// =================
// Association accessors
// =================

func (store *Store) ReviewsOfUser(ctx context.Context, userID int64) ([]Review, error) {
	return ReviewSchema.Query().
		ModifyQuery(whereCol("user_id", userID)).
		Collect(ctx, store.db)
}

func (store *Store) ReviewsOfBook(ctx context.Context, bookID int64) ([]Review, error) {
	return ReviewSchema.Query().
		ModifyQuery(whereCol("book_id", bookID)).
		Collect(ctx, store.db)
}

func (store *Store) GenresOfBook(ctx context.Context, bookID int64) ([]Genre, error) {
	return GenreSchema.Query().
		ModifyQuery(whereJoined(booksGenres, bookID)).
		Collect(ctx, store.db)
}

func (store *Store) BooksOfGenre(ctx context.Context, genreID int64) ([]Book, error) {
	return BookSchema.Query().
		ModifyQuery(whereJoined(genresBooks, genreID)).
		Collect(ctx, store.db)
}

func (store *Store) UserOfReview(ctx context.Context, review Review) (*User, error) {
	user, err := collectOneByID(ctx, store.db, UserSchema, review.UserID)
	if err != nil {
		return nil, fmt.Errorf("user of review %d: %w", review.ID, err)
	}

	return user, nil
}

func (store *Store) BookOfReview(ctx context.Context, review Review) (*Book, error) {
	book, err := collectOneByID(ctx, store.db, BookSchema, review.BookID)
	if err != nil {
		return nil, fmt.Errorf("book of review %d: %w", review.ID, err)
	}

	return book, nil
}

// =================
// Utilities
// =================

func collectOneByID[T any](ctx context.Context, db *sql.DB, schema *Schema[T], id int64) (*T, error) {
	return schema.Query().
		ModifyQuery(whereCol("id", id)).
		CollectOne(ctx, db)
}

func whereCol(col string, value any) QueryMod {
	return func(q Q, table string) Q {
		return q.Where(squirrel.Eq{TableCol(table, col): value})
	}
}

// whereJoined restricts a query to rows referenced from the join table by
// the given parent id.
func whereJoined(join JoinTable, parentID int64) QueryMod {
	return func(q Q, table string) Q {
		return q.
			Join(fmt.Sprintf("%s on %s = %s",
				join.Table,
				TableCol(join.Table, join.ChildCol),
				TableCol(table, "id"),
			)).
			Where(squirrel.Eq{TableCol(join.Table, join.ParentCol): parentID})
	}
}

func errIfNoRows(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

func storeErr(op string, err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%s: %w: %s", op, ErrConstraint, serr.Error())
	}

	return fmt.Errorf("%s: %w", op, err)
}
