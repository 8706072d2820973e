package httpadapter

import (
	"net/http"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

type authResponse struct {
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	IsNewUser bool   `json:"is_new_user"`
}

type categoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

type feedbackRequest struct {
	Content string  `json:"content"`
	Email   *string `json:"email"`
}

type feedbackListResponse struct {
	Feedback []domain.Feedback `json:"feedback"`
}

func (rt *Router) authenticate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := rt.svc.Auth.Authenticate(r.Context(), req.Code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	token, err := rt.svc.Sessions.Issue(result.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		UserID:    result.UserID,
		Token:     token,
		IsNewUser: result.IsNewUser,
	})
}

func (rt *Router) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := rt.svc.Categories.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: categories})
}

func (rt *Router) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	feedback, err := rt.svc.Feedback.Submit(r.Context(), userIDFromContext(r.Context()), req.Content, req.Email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedback)
}

func (rt *Router) listFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := rt.svc.Feedback.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Feedback{}
	}
	writeJSON(w, http.StatusOK, feedbackListResponse{Feedback: items})
}
