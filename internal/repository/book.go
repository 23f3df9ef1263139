package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/findbooks/api/internal/domain/book"
)

const bookColumns = `id, name, image_url, author, edition, publication_date, publisher,
	description, price, isbn, condition, subcategory_id, user_id, is_used, created_at`

const (
	createBookSQL = `INSERT INTO books (id, name, image_url, author, edition, publication_date,
		publisher, description, price, isbn, condition, subcategory_id, user_id, is_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	getBookByIDSQL = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	getBookByISBNSQL = `SELECT ` + bookColumns + ` FROM books WHERE isbn = $1 LIMIT 1`

	listBooksSQL = `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC`

	listBooksBySubcategorySQL = `SELECT ` + bookColumns + ` FROM books WHERE subcategory_id = $1 ORDER BY created_at DESC`

	listBooksByIDsSQL = `SELECT ` + bookColumns + ` FROM books WHERE id = ANY($1)`

	updateBookSQL = `UPDATE books SET name = $2, image_url = $3, author = $4, edition = $5,
		publication_date = $6, publisher = $7, description = $8, price = $9, isbn = $10,
		condition = $11, subcategory_id = $12 WHERE id = $1`

	deleteBookSQL = `DELETE FROM books WHERE id = $1`

	getSubcategoryByIDSQL   = `SELECT id, name FROM subcategories WHERE id = $1`
	getSubcategoryByNameSQL = `SELECT id, name FROM subcategories WHERE name = $1`
)

var _ book.Repository = (*BookRepository)(nil)

// BookRepository implements book.Repository backed by PostgreSQL.
type BookRepository struct {
	pool *pgxpool.Pool
}

// NewBookRepository returns a BookRepository that uses the given pool.
func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

// Create persists a new book.
func (r *BookRepository) Create(ctx context.Context, b *book.Book) error {
	_, err := r.pool.Exec(ctx, createBookSQL,
		b.ID, b.Name, b.ImageURL, b.Author, b.Edition, b.PublicationDate,
		b.Publisher, b.Description, b.Price, b.ISBN, b.Condition,
		b.SubcategoryID, b.UserID, b.IsUsed,
	)
	if err != nil {
		return fmt.Errorf("creating book %q: %w", b.ID, err)
	}
	return nil
}

// GetByID returns a book by identifier.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*book.Book, error) {
	return r.getOne(ctx, getBookByIDSQL, id)
}

// GetByISBN returns the first book with the given ISBN.
func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	return r.getOne(ctx, getBookByISBNSQL, isbn)
}

func (r *BookRepository) getOne(ctx context.Context, sql, arg string) (*book.Book, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("querying book: %w", err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBook)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, book.ErrNotFound
		}
		return nil, fmt.Errorf("querying book: %w", err)
	}
	return &b, nil
}

// List returns every book, newest first.
func (r *BookRepository) List(ctx context.Context) ([]book.Book, error) {
	rows, err := r.pool.Query(ctx, listBooksSQL)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return pgx.CollectRows(rows, scanBook)
}

// ListBySubcategoryID returns the books in one subcategory.
func (r *BookRepository) ListBySubcategoryID(ctx context.Context, subcategoryID string) ([]book.Book, error) {
	rows, err := r.pool.Query(ctx, listBooksBySubcategorySQL, subcategoryID)
	if err != nil {
		return nil, fmt.Errorf("listing books by subcategory: %w", err)
	}
	return pgx.CollectRows(rows, scanBook)
}

// ListByIDs returns books matching any of the given IDs.
func (r *BookRepository) ListByIDs(ctx context.Context, ids []string) ([]book.Book, error) {
	rows, err := r.pool.Query(ctx, listBooksByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing books by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanBook)
}

// Update overwrites the mutable columns of a book row.
func (r *BookRepository) Update(ctx context.Context, b *book.Book) error {
	tag, err := r.pool.Exec(ctx, updateBookSQL,
		b.ID, b.Name, b.ImageURL, b.Author, b.Edition, b.PublicationDate,
		b.Publisher, b.Description, b.Price, b.ISBN, b.Condition, b.SubcategoryID,
	)
	if err != nil {
		return fmt.Errorf("updating book %q: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

// Delete removes a book.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteBookSQL, id)
	if err != nil {
		return fmt.Errorf("deleting book %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

var _ book.SubcategoryRepository = (*SubcategoryRepository)(nil)

// SubcategoryRepository implements book.SubcategoryRepository backed by PostgreSQL.
type SubcategoryRepository struct {
	pool *pgxpool.Pool
}

// NewSubcategoryRepository returns a SubcategoryRepository that uses the given pool.
func NewSubcategoryRepository(pool *pgxpool.Pool) *SubcategoryRepository {
	return &SubcategoryRepository{pool: pool}
}

// GetByID returns a subcategory by identifier.
func (r *SubcategoryRepository) GetByID(ctx context.Context, id string) (*book.Subcategory, error) {
	return r.getSubcategory(ctx, getSubcategoryByIDSQL, id)
}

// GetByName returns a subcategory by exact name.
func (r *SubcategoryRepository) GetByName(ctx context.Context, name string) (*book.Subcategory, error) {
	return r.getSubcategory(ctx, getSubcategoryByNameSQL, name)
}

func (r *SubcategoryRepository) getSubcategory(ctx context.Context, sql, arg string) (*book.Subcategory, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("querying subcategory: %w", err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (book.Subcategory, error) {
		var s book.Subcategory
		err := row.Scan(&s.ID, &s.Name)
		return s, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, book.ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("querying subcategory: %w", err)
	}
	return &s, nil
}

func scanBook(row pgx.CollectableRow) (book.Book, error) {
	var b book.Book
	err := row.Scan(
		&b.ID, &b.Name, &b.ImageURL, &b.Author, &b.Edition, &b.PublicationDate,
		&b.Publisher, &b.Description, &b.Price, &b.ISBN, &b.Condition,
		&b.SubcategoryID, &b.UserID, &b.IsUsed, &b.CreatedAt,
	)
	return b, err
}
