package ports

import (
	"context"
	"io"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

// ImageEncoder normalizes an uploaded screenshot for the vision service.
type ImageEncoder interface {
	Encode(ctx context.Context, img domain.SourceImage) (domain.EncodedImage, error)
}

// VisionExtractor asks a vision model which places appear in one screenshot.
type VisionExtractor interface {
	ExtractPlaces(ctx context.Context, img domain.EncodedImage) ([]domain.ExtractedPlace, error)
}

// PlaceSearcher queries a map provider by free-text name.
type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, query string) ([]domain.PlaceCandidate, error)
}

// SearchCache memoizes map search results by normalized query.
type SearchCache interface {
	Get(ctx context.Context, key string) ([]domain.PlaceCandidate, bool)
	Set(ctx context.Context, key string, candidates []domain.PlaceCandidate)
}

// CategoryStore reads the category table.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	FindCategoryByName(ctx context.Context, name string) (*domain.Category, error)
}

// CategoryCatalog provides the default category set.
type CategoryCatalog interface {
	DefaultCategories() []domain.Category
}

// UserStore persists code-based accounts.
type UserStore interface {
	FindUserByPasswordHash(ctx context.Context, hash string) (*domain.User, error)
	// CreateUser reports false when another request registered the same hash first.
	CreateUser(ctx context.Context, user *domain.User) (bool, error)
}

// PlaceStore persists canonical places and per-user links.
type PlaceStore interface {
	ListSavedPlaces(ctx context.Context, userID string) ([]domain.SavedPlace, error)
	DeleteUserPlace(ctx context.Context, userID, userPlaceID string) error
	UpdateUserPlaceLocation(ctx context.Context, userPlaceID, location string) error
	InTx(ctx context.Context, fn func(tx PlaceTx) error) error
}

// PlaceTx is the transactional view used while resolving and linking a place.
type PlaceTx interface {
	LockPlaceName(ctx context.Context, name string) error
	// FindPlaceByName returns nil without error when no place has that name.
	FindPlaceByName(ctx context.Context, name string) (*domain.Place, error)
	CreatePlace(ctx context.Context, place *domain.Place) error
	// BackfillPlace fills only the address and coordinates the stored row lacks.
	BackfillPlace(ctx context.Context, placeID string, candidate domain.PlaceCandidate) error
	// LinkUserPlace returns the link id; an existing (user, place) link is reused.
	LinkUserPlace(ctx context.Context, link *domain.UserPlace) (string, error)
}

// FeedbackStore persists user feedback.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, feedback *domain.Feedback) error
	ListFeedback(ctx context.Context, userID string) ([]domain.Feedback, error)
}

// FeedbackNotifier delivers a feedback notification (queue publish or direct email).
type FeedbackNotifier interface {
	NotifyFeedback(ctx context.Context, event domain.FeedbackSubmitted) error
}

// FeedbackEventSource consumes feedback notifications published by the API.
type FeedbackEventSource interface {
	SubscribeFeedbackSubmitted(ctx context.Context, handler func(context.Context, domain.FeedbackSubmitted) error) error
}

// LibraryExporter renders saved places into a downloadable document.
type LibraryExporter interface {
	ContentType() string
	WriteLibrary(w io.Writer, places []domain.SavedPlace) error
}
