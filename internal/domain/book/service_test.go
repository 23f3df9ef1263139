package book

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockBookRepo struct {
	byID    map[string]*Book
	created []*Book
	updated []*Book
	deleted []string
}

func newBookRepo(books ...*Book) *mockBookRepo {
	m := &mockBookRepo{byID: make(map[string]*Book)}
	for _, b := range books {
		m.byID[b.ID] = b
	}
	return m
}

func (m *mockBookRepo) Create(_ context.Context, b *Book) error {
	m.byID[b.ID] = b
	m.created = append(m.created, b)
	return nil
}

func (m *mockBookRepo) GetByID(_ context.Context, id string) (*Book, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockBookRepo) GetByISBN(_ context.Context, isbn string) (*Book, error) {
	for _, b := range m.byID {
		if b.ISBN == isbn {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockBookRepo) List(_ context.Context) ([]Book, error) {
	out := make([]Book, 0, len(m.byID))
	for _, b := range m.byID {
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockBookRepo) ListBySubcategoryID(_ context.Context, subID string) ([]Book, error) {
	var out []Book
	for _, b := range m.byID {
		if b.SubcategoryID == subID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookRepo) ListByIDs(_ context.Context, ids []string) ([]Book, error) {
	var out []Book
	for _, id := range ids {
		if b, ok := m.byID[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookRepo) Update(_ context.Context, b *Book) error {
	if _, ok := m.byID[b.ID]; !ok {
		return ErrNotFound
	}
	cp := *b
	m.byID[b.ID] = &cp
	m.updated = append(m.updated, &cp)
	return nil
}

func (m *mockBookRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSubcategoryRepo struct {
	byID   map[string]*Subcategory
	byName map[string]*Subcategory
}

func newSubcategoryRepo(subs ...Subcategory) *mockSubcategoryRepo {
	m := &mockSubcategoryRepo{
		byID:   make(map[string]*Subcategory),
		byName: make(map[string]*Subcategory),
	}
	for i := range subs {
		m.byID[subs[i].ID] = &subs[i]
		m.byName[subs[i].Name] = &subs[i]
	}
	return m
}

func (m *mockSubcategoryRepo) GetByID(_ context.Context, id string) (*Subcategory, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrSubcategoryNotFound
	}
	return s, nil
}

func (m *mockSubcategoryRepo) GetByName(_ context.Context, name string) (*Subcategory, error) {
	s, ok := m.byName[name]
	if !ok {
		return nil, ErrSubcategoryNotFound
	}
	return s, nil
}

// --- Helpers ---

func validCreate() CreateRequest {
	return CreateRequest{
		UserID:        "u1",
		UserRole:      "User",
		Name:          "The Go Programming Language",
		Author:        "Donovan & Kernighan",
		Price:         "450.00",
		ISBN:          "9780134190440",
		SubcategoryID: "s1",
	}
}

var fiction = Subcategory{ID: "s1", Name: "Fiction"}

// --- Tests ---

func TestCreate_UserBookIsUsed(t *testing.T) {
	books := newBookRepo()
	svc := NewService(books, newSubcategoryRepo(fiction))

	b, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	assert.True(t, b.IsUsed, "non-admin books are used books")
	assert.Equal(t, "u1", b.UserID)
	assert.Equal(t, "default.jpg", b.ImageURL, "missing image falls back to the default")
	assert.True(t, decimal.RequireFromString("450.00").Equal(b.Price))
	require.Len(t, books.created, 1)
}

func TestCreate_AdminBookIsNew(t *testing.T) {
	svc := NewService(newBookRepo(), newSubcategoryRepo(fiction))

	req := validCreate()
	req.UserRole = RoleAdmin
	b, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, b.IsUsed)
}

func TestCreate_AdminDuplicateISBN(t *testing.T) {
	existing := &Book{ID: "b1", ISBN: "9780134190440", SubcategoryID: "s1"}
	svc := NewService(newBookRepo(existing), newSubcategoryRepo(fiction))

	req := validCreate()
	req.UserRole = RoleAdmin
	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrDuplicateISBN)
}

func TestCreate_UserMayRelistSameISBN(t *testing.T) {
	// Used-book listings are not deduplicated: many people own the same title.
	existing := &Book{ID: "b1", ISBN: "9780134190440", SubcategoryID: "s1"}
	svc := NewService(newBookRepo(existing), newSubcategoryRepo(fiction))

	_, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
}

func TestCreate_UnknownSubcategory(t *testing.T) {
	svc := NewService(newBookRepo(), newSubcategoryRepo())

	_, err := svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, ErrSubcategoryNotFound)
}

func TestCreate_InvalidPrice(t *testing.T) {
	svc := NewService(newBookRepo(), newSubcategoryRepo(fiction))

	req := validCreate()
	req.Price = "cheap"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestUpdate_PartialFields(t *testing.T) {
	existing := &Book{
		ID:            "b1",
		Name:          "Old Name",
		Author:        "Old Author",
		Price:         decimal.NewFromInt(100),
		SubcategoryID: "s1",
	}
	books := newBookRepo(existing)
	svc := NewService(books, newSubcategoryRepo(fiction))

	b, err := svc.Update(context.Background(), UpdateRequest{
		BookID: "b1",
		Name:   "New Name",
		Price:  "250.00",
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", b.Name)
	assert.Equal(t, "Old Author", b.Author, "empty fields are left alone")
	assert.True(t, decimal.RequireFromString("250.00").Equal(b.Price))
}

func TestUpdate_RevalidatesSubcategory(t *testing.T) {
	existing := &Book{ID: "b1", SubcategoryID: "s1", Price: decimal.NewFromInt(10)}
	svc := NewService(newBookRepo(existing), newSubcategoryRepo(fiction))

	_, err := svc.Update(context.Background(), UpdateRequest{
		BookID:        "b1",
		SubcategoryID: "missing",
	})
	require.ErrorIs(t, err, ErrSubcategoryNotFound)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewService(newBookRepo(), newSubcategoryRepo(fiction))

	_, err := svc.Update(context.Background(), UpdateRequest{BookID: "missing"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	books := newBookRepo(&Book{ID: "b1"})
	svc := NewService(books, newSubcategoryRepo())

	require.NoError(t, svc.Delete(context.Background(), "b1"))
	assert.Equal(t, []string{"b1"}, books.deleted)

	err := svc.Delete(context.Background(), "b1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListBySubcategoryName(t *testing.T) {
	books := newBookRepo(
		&Book{ID: "b1", SubcategoryID: "s1"},
		&Book{ID: "b2", SubcategoryID: "s2"},
	)
	svc := NewService(books, newSubcategoryRepo(fiction))

	got, err := svc.ListBySubcategoryName(context.Background(), "Fiction")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].ID)

	_, err = svc.ListBySubcategoryName(context.Background(), "Unknown")
	require.ErrorIs(t, err, ErrSubcategoryNotFound)
}
