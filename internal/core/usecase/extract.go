package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

type ExtractPlacesUseCase struct {
	encoder   ports.ImageEncoder
	extractor ports.VisionExtractor
	batchSize int
}

func NewExtractPlacesUseCase(encoder ports.ImageEncoder, extractor ports.VisionExtractor) *ExtractPlacesUseCase {
	return &ExtractPlacesUseCase{
		encoder:   encoder,
		extractor: extractor,
		batchSize: domain.ExtractionBatchSize,
	}
}

type imageOutcome struct {
	places []domain.ExtractedPlace
	err    error
}

// Extract analyzes screenshots in groups of batchSize. A failing image is
// logged and skipped; onProgress fires once per finished group.
func (uc *ExtractPlacesUseCase) Extract(
	ctx context.Context,
	images []domain.SourceImage,
	onProgress domain.ProgressFunc,
) (domain.ExtractionResult, error) {
	total := len(images)
	if total == 0 {
		return domain.ExtractionResult{}, domain.WrapError(domain.ErrInvalidInput, "extract places", errors.New("at least one image is required"))
	}

	collected := make([]domain.ExtractedPlace, 0, total)
	failures := make([]domain.ImageFailure, 0)

	for start := 0; start < total; start += uc.batchSize {
		if err := ctx.Err(); err != nil {
			return domain.ExtractionResult{}, fmt.Errorf("extract places: %w", err)
		}
		end := min(start+uc.batchSize, total)

		outcomes := make([]imageOutcome, end-start)
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				places, err := uc.extractOne(ctx, images[i])
				outcomes[i-start] = imageOutcome{places: places, err: err}
			}()
		}
		wg.Wait()

		for offset, outcome := range outcomes {
			idx := start + offset
			if outcome.err != nil {
				slog.Warn("extraction_image_failed",
					"index", idx,
					"filename", images[idx].Filename,
					"error", outcome.err,
				)
				failures = append(failures, domain.ImageFailure{
					Index:    idx,
					Filename: images[idx].Filename,
					Error:    outcome.err.Error(),
				})
				continue
			}
			collected = append(collected, outcome.places...)
		}

		if onProgress != nil {
			snapshot := make([]domain.ExtractedPlace, len(collected))
			copy(snapshot, collected)
			onProgress(domain.ExtractionProgress{
				Completed: end,
				Total:     total,
				Places:    snapshot,
			})
		}
	}

	return domain.ExtractionResult{
		Places:   DedupeByName(collected),
		Failures: failures,
		Total:    total,
	}, nil
}

func (uc *ExtractPlacesUseCase) extractOne(ctx context.Context, img domain.SourceImage) ([]domain.ExtractedPlace, error) {
	encoded, err := uc.encoder.Encode(ctx, img)
	if err != nil {
		return nil, err
	}
	places, err := uc.extractor.ExtractPlaces(ctx, encoded)
	if err != nil {
		return nil, err
	}
	return places, nil
}

// DedupeByName collapses places with an identical name. A later entry replaces
// the kept one only when its confidence is strictly higher; the kept entry stays
// at the position of the first occurrence.
func DedupeByName(places []domain.ExtractedPlace) []domain.ExtractedPlace {
	out := make([]domain.ExtractedPlace, 0, len(places))
	index := make(map[string]int, len(places))
	for _, place := range places {
		pos, seen := index[place.Name]
		if !seen {
			index[place.Name] = len(out)
			out = append(out, place)
			continue
		}
		if place.Confidence > out[pos].Confidence {
			out[pos] = place
		}
	}
	return out
}
