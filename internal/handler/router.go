package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes builds the /api route tree. requireAuth guards the routes that need
// an authenticated caller; everything else is public.
func (h *Handler) Routes(requireAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		// Public surface.
		r.Post("/users", h.Register)
		r.Post("/login", h.Login)
		r.Get("/users", h.ListUsers)
		r.Post("/otp/register", h.IssueRegistrationOTP)
		r.Post("/otp/register/verify", h.VerifyRegistrationOTP)
		r.Post("/{purpose}/forgot-password", h.IssueOTP)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/reset-password", h.ResetPassword)
		r.Get("/books", h.ListBooks)
		r.Get("/subcategories/{name}/books", h.BooksBySubcategory)
		r.Post("/orders", h.InitiatePaymentOrder)
		r.Get("/resellerbooks", h.PublicResellBooks)
		r.Delete("/resellerbooks/{id}", h.DeleteResellListing)

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/users/me", h.CurrentUser)
			r.Put("/users", h.UpdateUser)
			r.Delete("/users", h.DeleteUser)

			r.Post("/{role}/books", h.CreateBook)
			r.Put("/books", h.UpdateBook)
			r.Delete("/books", h.DeleteBook)

			r.Post("/verify", h.VerifyPayment)
			r.Get("/verify", h.ListPayments)
			r.Put("/addorder", h.FinalizeOrder)
			r.Put("/orders/{orderID}/status", h.TransitionOrderStatus)
			r.Post("/{transactionType}/codpayment", h.CreateCODPayment)
			r.Put("/codpayment", h.CompleteCODPayment)

			r.Put("/{status}/sellorders", h.TransitionResellListing)
			r.Get("/sellorders", h.MyResellListings)
			r.Get("/sellorder", h.AllResellListings)
		})
	})
	return r
}
