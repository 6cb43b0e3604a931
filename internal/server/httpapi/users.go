package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type envelopeUser struct {
	User any `json:"user"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.users.Register(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "User registered successfully", res)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Login successful", res)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Token refreshed successfully", pair)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.Logout(r.Context(), ActorFrom(r.Context()).ID, req.RefreshToken); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Logout successful", nil)
}

func (h *handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	// Authenticate already loaded the fresh record
	writeSuccess(w, http.StatusOK, "Profile retrieved successfully", envelopeUser{User: UserFrom(r.Context()).Sanitize()})
}

func (h *handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	h.updateUser(w, r, ActorFrom(r.Context()).ID)
}

func (h *handlers) updateUserByID(w http.ResponseWriter, r *http.Request) {
	h.updateUser(w, r, chi.URLParam(r, "id"))
}

func (h *handlers) updateUser(w http.ResponseWriter, r *http.Request, id string) {
	var req profileRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), id, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Profile updated successfully", envelopeUser{User: u})
}

func (h *handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), ActorFrom(r.Context()).ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Password changed successfully", nil)
}

func (h *handlers) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	var req avatarRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	up, err := h.avatars.PresignUpload(r.Context(), ActorFrom(r.Context()).ID, req.ContentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Avatar upload URL created successfully", up)
}

func (h *handlers) deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Deactivate(r.Context(), ActorFrom(r.Context()).ID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Account deactivated successfully", nil)
}

func (h *handlers) reactivate(w http.ResponseWriter, r *http.Request) {
	if _, err := h.users.Reactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Account reactivated successfully", nil)
}

func (h *handlers) changeRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.users.ChangeRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User role updated successfully", envelopeUser{User: u})
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	p, err := h.users.GetUser(r.Context(), ActorFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User retrieved successfully", envelopeUser{User: p})
}

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.users.List(r.Context(), filter, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, "Users retrieved successfully", res)
}

func (h *handlers) searchUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.users.Search(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, "Search results retrieved successfully", res)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.users.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User statistics retrieved successfully", s)
}

func (h *handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User deleted successfully", nil)
}

// follows

func (h *handlers) followers(w http.ResponseWriter, r *http.Request) {
	h.listFollows(w, r, h.follows.Followers, "Followers retrieved successfully")
}

func (h *handlers) following(w http.ResponseWriter, r *http.Request) {
	h.listFollows(w, r, h.follows.Following, "Following retrieved successfully")
}

func (h *handlers) listFollows(w http.ResponseWriter, r *http.Request, list followList, message string) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := list(r.Context(), chi.URLParam(r, "id"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, message, res)
}

func (h *handlers) follow(w http.ResponseWriter, r *http.Request) {
	if err := h.follows.Follow(r.Context(), ActorFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User followed successfully", nil)
}

func (h *handlers) unfollow(w http.ResponseWriter, r *http.Request) {
	if err := h.follows.Unfollow(r.Context(), ActorFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User unfollowed successfully", nil)
}
