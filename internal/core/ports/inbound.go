package ports

import (
	"context"
	"io"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

// PlaceExtractor is the inbound contract for batch screenshot analysis.
type PlaceExtractor interface {
	Extract(ctx context.Context, images []domain.SourceImage, onProgress domain.ProgressFunc) (domain.ExtractionResult, error)
}

// PlaceFinder resolves a free-text place name into map candidates.
type PlaceFinder interface {
	Resolve(ctx context.Context, name string) []domain.PlaceCandidate
}

// PlaceSaver is the inbound contract for saving a confirmed place.
type PlaceSaver interface {
	Save(ctx context.Context, req domain.SaveRequest) (*domain.SaveResult, error)
}

// PlaceLibrary is the read/delete/export model over a user's saved places.
type PlaceLibrary interface {
	List(ctx context.Context, userID string, filter domain.LibraryFilter) (*domain.Library, error)
	Delete(ctx context.Context, userID, userPlaceID string) error
	Export(ctx context.Context, userID string, w io.Writer) error
	ExportContentType() string
}

// Authenticator exchanges an access code for a user identity.
type Authenticator interface {
	Authenticate(ctx context.Context, code string) (*domain.AuthResult, error)
}

// CategoryService lists categories and audits them against the default catalog.
type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Check(ctx context.Context) (*domain.CategoryCheck, error)
}

// FeedbackService records user feedback and triggers the notification.
type FeedbackService interface {
	Submit(ctx context.Context, userID, content string, email *string) (*domain.Feedback, error)
	List(ctx context.Context, userID string) ([]domain.Feedback, error)
}
