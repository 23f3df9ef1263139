package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/findbooks/api/internal/auth"
	"github.com/findbooks/api/internal/domain/book"
)

type bookRequest struct {
	BookID        string `json:"book_id"`
	Name          string `json:"name"`
	ImageURL      string `json:"image_url"`
	Author        string `json:"author"`
	Edition       string `json:"edition"`
	PubDate       string `json:"publication_date"`
	Publisher     string `json:"publisher"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	ISBN          string `json:"isbn"`
	Condition     string `json:"condition"`
	SubcategoryID string `json:"subcategory_id"`
}

// CreateBook handles POST /{role}/books. The path segment decides whether the
// book enters the catalogue as a store book or a used listing.
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decode(r, &req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := validateBook(req); len(fields) > 0 {
		respond(w, http.StatusBadRequest, map[string]errorBody{"error": {
			Code:    http.StatusBadRequest,
			Message: "validation failed",
			Fields:  fields,
		}})
		return
	}

	role := chi.URLParam(r, "role")
	if strings.EqualFold(role, book.RoleAdmin) {
		role = book.RoleAdmin
	}

	b, err := h.books.Create(r.Context(), book.CreateRequest{
		UserID:        auth.UserIDFromContext(r.Context()),
		UserRole:      role,
		Name:          req.Name,
		ImageURL:      req.ImageURL,
		Author:        req.Author,
		Edition:       req.Edition,
		PubDate:       req.PubDate,
		Publisher:     req.Publisher,
		Description:   req.Description,
		Price:         req.Price,
		ISBN:          req.ISBN,
		Condition:     req.Condition,
		SubcategoryID: req.SubcategoryID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, b)
}

func validateBook(req bookRequest) map[string]string {
	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "Book name is required"
	}
	if req.Author == "" {
		fields["author"] = "Author is required"
	}
	if req.Price == "" {
		fields["price"] = "Price is required"
	}
	if req.ISBN == "" {
		fields["isbn"] = "ISBN is required"
	}
	if req.SubcategoryID == "" {
		fields["subcategory_id"] = "Subcategory is required"
	}
	return fields
}

// ListBooks handles GET /books.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, books)
}

// UpdateBook handles PUT /books. The body names the book; empty fields are
// left alone.
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decode(r, &req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookID == "" {
		respondErrorMsg(w, http.StatusBadRequest, "book_id is required")
		return
	}

	b, err := h.books.Update(r.Context(), book.UpdateRequest{
		BookID:        req.BookID,
		Name:          req.Name,
		ImageURL:      req.ImageURL,
		Author:        req.Author,
		Edition:       req.Edition,
		PubDate:       req.PubDate,
		Publisher:     req.Publisher,
		Description:   req.Description,
		Price:         req.Price,
		ISBN:          req.ISBN,
		Condition:     req.Condition,
		SubcategoryID: req.SubcategoryID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, b)
}

// DeleteBook handles DELETE /books.
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID string `json:"book_id"`
	}
	if err := decode(r, &req); err != nil || req.BookID == "" {
		respondErrorMsg(w, http.StatusBadRequest, "book_id is required")
		return
	}

	if err := h.books.Delete(r.Context(), req.BookID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

// BooksBySubcategory handles GET /subcategories/{name}/books.
func (h *Handler) BooksBySubcategory(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.ListBySubcategoryName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, books)
}
