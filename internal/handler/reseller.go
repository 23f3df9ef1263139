package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/findbooks/api/internal/auth"
	"github.com/findbooks/api/internal/domain/book"
	"github.com/findbooks/api/internal/domain/reseller"
)

// TransitionResellListing handles PUT /{status}/sellorders: one atomic update
// sets the listing status and stamps the caller as the delivery handler.
func (h *Handler) TransitionResellListing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResellerID string `json:"reseller_id"`
		BookID     string `json:"book_id"`
	}
	if err := decode(r, &req); err != nil || req.ResellerID == "" {
		respondErrorMsg(w, http.StatusBadRequest, "reseller_id is required")
		return
	}

	status := chi.URLParam(r, "status")
	callerID := auth.UserIDFromContext(r.Context())
	if err := h.resellers.Transition(r.Context(), req.ResellerID, status, callerID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "listing updated"})
}

// listingWithBook pairs a resell listing with its catalogue entry.
type listingWithBook struct {
	reseller.Listing
	Book *book.Book `json:"book,omitempty"`
}

// MyResellListings handles GET /sellorders: the caller's listings with their
// books resolved. Empty is a 404, matching the rest of the lookup surface.
func (h *Handler) MyResellListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.resellers.ListByUser(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if len(listings) == 0 {
		respondErrorMsg(w, http.StatusNotFound, "no resell orders found")
		return
	}

	booksByID, err := h.resellBooks(r, listings)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	out := make([]listingWithBook, len(listings))
	for i, l := range listings {
		out[i] = listingWithBook{Listing: l, Book: booksByID[l.BookID]}
	}
	respond(w, http.StatusOK, out)
}

func (h *Handler) resellBooks(r *http.Request, listings []reseller.Listing) (map[string]*book.Book, error) {
	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.BookID
	}
	books, err := h.books.ListByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*book.Book, len(books))
	for i := range books {
		byID[books[i].ID] = &books[i]
	}
	return byID, nil
}

// AllResellListings handles GET /sellorder: every listing with seller names
// resolved, plus the caller's ID as the delivery candidate.
func (h *Handler) AllResellListings(w http.ResponseWriter, r *http.Request) {
	records, err := h.resellers.ListAll(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"listings":           records,
		"delivery_candidate": auth.UserIDFromContext(r.Context()),
	})
}

// resellBookEntry is a public catalogue view of a resell listing.
type resellBookEntry struct {
	book.Book
	ResellerID      string `json:"reseller_id"`
	SellerFirstName string `json:"seller_first_name"`
	SellerLastName  string `json:"seller_last_name"`
}

// PublicResellBooks handles GET /resellerbooks: resell books with the selling
// user's name, no auth required.
func (h *Handler) PublicResellBooks(w http.ResponseWriter, r *http.Request) {
	records, err := h.resellers.ListAll(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.BookID
	}
	books, err := h.books.ListByIDs(r.Context(), ids)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	byID := make(map[string]book.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	out := make([]resellBookEntry, 0, len(records))
	for _, rec := range records {
		b, ok := byID[rec.BookID]
		if !ok {
			continue
		}
		out = append(out, resellBookEntry{
			Book:            b,
			ResellerID:      rec.ID,
			SellerFirstName: rec.SellerFirstName,
			SellerLastName:  rec.SellerLastName,
		})
	}
	respond(w, http.StatusOK, out)
}

// DeleteResellListing handles DELETE /resellerbooks/{id}. The response names
// the book the deletion freed.
func (h *Handler) DeleteResellListing(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.resellers.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{
		"message": "listing deleted",
		"book_id": bookID,
	})
}
