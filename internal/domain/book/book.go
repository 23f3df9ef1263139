package book

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a book does not exist.
	ErrNotFound = errors.New("book not found")

	// ErrDuplicateISBN is returned when an admin creates a book whose ISBN
	// is already catalogued.
	ErrDuplicateISBN = errors.New("book with this ISBN already exists")

	// ErrSubcategoryNotFound is returned when a referenced subcategory is missing.
	ErrSubcategoryNotFound = errors.New("invalid subcategory")
)

// Book is a catalogue entry, either a store book or a used book listed by a user.
type Book struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	ImageURL        string          `json:"image_url"`
	Author          string          `json:"author"`
	Edition         string          `json:"edition,omitempty"`
	PublicationDate string          `json:"publication_date"`
	Publisher       string          `json:"publisher"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	ISBN            string          `json:"isbn"`
	Condition       string          `json:"condition,omitempty"`
	SubcategoryID   string          `json:"subcategory_id"`
	UserID          string          `json:"user_id"`
	IsUsed          bool            `json:"is_used"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Subcategory groups books; lookup only, no CRUD surface.
type Subcategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Repository defines persistence operations for books.
type Repository interface {
	Create(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id string) (*Book, error)
	GetByISBN(ctx context.Context, isbn string) (*Book, error)
	List(ctx context.Context) ([]Book, error)
	ListBySubcategoryID(ctx context.Context, subcategoryID string) ([]Book, error)
	ListByIDs(ctx context.Context, ids []string) ([]Book, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id string) error
}

// SubcategoryRepository provides subcategory lookup.
type SubcategoryRepository interface {
	GetByID(ctx context.Context, id string) (*Subcategory, error)
	GetByName(ctx context.Context, name string) (*Subcategory, error)
}
