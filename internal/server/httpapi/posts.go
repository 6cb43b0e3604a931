package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/go-chi/chi/v5"
)

func (h *handlers) listPosts(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.posts.List(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, "Posts fetched successfully", res)
}

func (h *handlers) featuredPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.Featured(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Featured posts fetched successfully", posts)
}

func (h *handlers) getPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Post fetched successfully", p)
}

func (h *handlers) submitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decode(w, r, &req); err != nil {
		var ve *common.ValidationError
		if errors.As(err, &ve) && !errors.Is(err, ErrInvalidJSON) {
			err = &common.ValidationError{Message: "Invalid form data", Errors: ve.Errors}
		}
		h.fail(w, r, err)
		return
	}
	msg, err := h.contacts.Submit(r.Context(), &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Contact form submitted successfully", msg)
}

func (h *handlers) listContacts(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.contacts.List(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, "Contact messages retrieved successfully", res)
}
