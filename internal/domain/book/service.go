package book

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoleAdmin creates store (new) books; any other role lists a used book.
const RoleAdmin = "Admin"

// CreateRequest holds the input for adding a book to the catalogue.
type CreateRequest struct {
	UserID        string
	UserRole      string
	Name          string
	ImageURL      string
	Author        string
	Edition       string
	PubDate       string
	Publisher     string
	Description   string
	Price         string
	ISBN          string
	Condition     string
	SubcategoryID string
}

// UpdateRequest holds optional field updates for an existing book.
type UpdateRequest struct {
	BookID        string
	Name          string
	ImageURL      string
	Author        string
	Edition       string
	PubDate       string
	Publisher     string
	Description   string
	Price         string
	ISBN          string
	Condition     string
	SubcategoryID string
}

// Service implements catalogue operations over the book and subcategory
// repositories.
type Service struct {
	books         Repository
	subcategories SubcategoryRepository
}

// NewService creates a catalogue Service.
func NewService(books Repository, subcategories SubcategoryRepository) *Service {
	return &Service{
		books:         books,
		subcategories: subcategories,
	}
}

// Create adds a book. Admin-created books are deduplicated by ISBN and sold
// as new; books from any other role are flagged as used.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Book, error) {
	if req.UserRole == RoleAdmin {
		if _, err := s.books.GetByISBN(ctx, req.ISBN); err == nil {
			return nil, ErrDuplicateISBN
		} else if !errors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(err, "check isbn")
		}
	}

	sub, err := s.subcategories.GetByID(ctx, req.SubcategoryID)
	if err != nil {
		return nil, err
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	imageURL := req.ImageURL
	if imageURL == "" {
		imageURL = "default.jpg"
	}

	b := &Book{
		ID:              uuid.NewString(),
		Name:            req.Name,
		ImageURL:        imageURL,
		Author:          req.Author,
		Edition:         req.Edition,
		PublicationDate: req.PubDate,
		Publisher:       req.Publisher,
		Description:     req.Description,
		Price:           price,
		ISBN:            req.ISBN,
		Condition:       req.Condition,
		SubcategoryID:   sub.ID,
		UserID:          req.UserID,
		IsUsed:          req.UserRole != RoleAdmin,
	}
	if err := s.books.Create(ctx, b); err != nil {
		return nil, errors.Wrap(err, "create book")
	}
	return b, nil
}

// Update applies the non-empty fields of req to an existing book. A supplied
// subcategory is revalidated before use.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Book, error) {
	b, err := s.books.GetByID(ctx, req.BookID)
	if err != nil {
		return nil, err
	}

	if req.SubcategoryID != "" {
		sub, err := s.subcategories.GetByID(ctx, req.SubcategoryID)
		if err != nil {
			return nil, err
		}
		b.SubcategoryID = sub.ID
	}

	setIf(&b.Name, req.Name)
	setIf(&b.ImageURL, req.ImageURL)
	setIf(&b.Author, req.Author)
	setIf(&b.Edition, req.Edition)
	setIf(&b.PublicationDate, req.PubDate)
	setIf(&b.Publisher, req.Publisher)
	setIf(&b.Description, req.Description)
	setIf(&b.ISBN, req.ISBN)
	setIf(&b.Condition, req.Condition)
	if req.Price != "" {
		price, err := parsePrice(req.Price)
		if err != nil {
			return nil, err
		}
		b.Price = price
	}

	if err := s.books.Update(ctx, b); err != nil {
		return nil, errors.Wrap(err, "update book")
	}
	return b, nil
}

// Delete removes a book from the catalogue.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.books.GetByID(ctx, id); err != nil {
		return err
	}
	return s.books.Delete(ctx, id)
}

// List returns every catalogued book.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	return s.books.List(ctx)
}

// ListByIDs returns the books matching any of the given IDs.
func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]Book, error) {
	return s.books.ListByIDs(ctx, ids)
}

// ListBySubcategoryName resolves a subcategory by name and returns its books.
func (s *Service) ListBySubcategoryName(ctx context.Context, name string) ([]Book, error) {
	sub, err := s.subcategories.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.books.ListBySubcategoryID(ctx, sub.ID)
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	return price, nil
}
