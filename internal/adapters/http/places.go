package httpadapter

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

type savePlaceRequest struct {
	Name              string                 `json:"name"`
	Category          string                 `json:"category"`
	Location          string                 `json:"location"`
	SuggestedCategory string                 `json:"suggested_category"`
	SuggestedLocation string                 `json:"suggested_location"`
	Confidence        float64                `json:"confidence"`
	RawText           string                 `json:"raw_text"`
	Selected          *domain.PlaceCandidate `json:"selected"`
}

type searchPlacesResponse struct {
	Query      string                  `json:"query"`
	Candidates []domain.PlaceCandidate `json:"candidates"`
}

func (rt *Router) searchPlaces(w http.ResponseWriter, r *http.Request) {
	var query string
	if err := runtime.BindQueryParameter("form", true, true, "query", r.URL.Query(), &query); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query = strings.TrimSpace(query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	candidates := rt.svc.Finder.Resolve(r.Context(), query)
	if candidates == nil {
		candidates = []domain.PlaceCandidate{}
	}
	writeJSON(w, http.StatusOK, searchPlacesResponse{Query: query, Candidates: candidates})
}

func (rt *Router) savePlace(w http.ResponseWriter, r *http.Request) {
	var req savePlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}

	result, err := rt.svc.Saver.Save(r.Context(), domain.SaveRequest{
		UserID: userIDFromContext(r.Context()),
		Place: domain.ExtractedPlace{
			Name:              req.Name,
			SuggestedCategory: req.SuggestedCategory,
			SuggestedLocation: req.SuggestedLocation,
			Confidence:        req.Confidence,
			RawText:           req.RawText,
		},
		CategoryName: req.Category,
		Location:     req.Location,
		Selected:     req.Selected,
	})
	if rt.svc.Metrics != nil {
		rt.svc.Metrics.RecordSaveOutcome(saveOutcomeLabel(err))
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (rt *Router) listPlaces(w http.ResponseWriter, r *http.Request) {
	var category, location, sort *string
	query := r.URL.Query()
	for name, dest := range map[string]**string{"category": &category, "location": &location, "sort": &sort} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	filter := domain.LibraryFilter{}
	if category != nil {
		filter.Category = strings.TrimSpace(*category)
	}
	if location != nil {
		filter.Location = strings.TrimSpace(*location)
	}
	if sort != nil {
		filter.Sort = domain.LibrarySort(strings.TrimSpace(*sort))
	}

	library, err := rt.svc.Library.List(r.Context(), userIDFromContext(r.Context()), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, library)
}

func (rt *Router) deletePlace(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", r.PathValue("id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := rt.svc.Library.Delete(r.Context(), userIDFromContext(r.Context()), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) exportPlaces(w http.ResponseWriter, r *http.Request) {
	// Headers are written only after the whole workbook rendered.
	var buf bytes.Buffer
	if err := rt.svc.Library.Export(r.Context(), userIDFromContext(r.Context()), &buf); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", rt.svc.Library.ExportContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="places.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
