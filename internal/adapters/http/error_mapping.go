package httpadapter

import (
	"net/http"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrEncoding):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrDuplicatePlace):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrCategoryNotFound):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrExtraction):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// saveOutcomeLabel names a save failure for the save_total metric.
func saveOutcomeLabel(err error) string {
	switch {
	case err == nil:
		return string(domain.SaveOutcomeSaved)
	case domain.IsKind(err, domain.ErrDuplicatePlace):
		return string(domain.SaveOutcomeDuplicate)
	case domain.IsKind(err, domain.ErrCategoryNotFound):
		return "category_not_found"
	default:
		return "failed"
	}
}
