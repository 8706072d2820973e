package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

const (
	imagesField       = "images"
	multipartMemory   = 32 << 20
	multipartOverhead = 1 << 20
	eventStreamMIME   = "text/event-stream"
)

func (rt *Router) extractPlaces(w http.ResponseWriter, r *http.Request) {
	images, err := rt.readImages(w, r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if wantsEventStream(r) {
		rt.streamExtraction(w, r, images)
		return
	}

	result, err := rt.runExtraction(r, images, nil)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) runExtraction(r *http.Request, images []domain.SourceImage, onProgress domain.ProgressFunc) (domain.ExtractionResult, error) {
	start := time.Now()
	result, err := rt.svc.Extractor.Extract(r.Context(), images, onProgress)
	if err == nil && rt.svc.Metrics != nil {
		failed := len(result.Failures)
		rt.svc.Metrics.RecordExtraction(len(images)-failed, failed, len(result.Places), time.Since(start))
	}
	return result, err
}

// streamExtraction reports each completed group as a progress event followed by
// one result event. The progress callback runs on this goroutine.
func (rt *Router) streamExtraction(w http.ResponseWriter, r *http.Request, images []domain.SourceImage) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	w.Header().Set("Content-Type", eventStreamMIME)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(event string, payload any) {
		if err := writeSSEEvent(w, event, payload); err != nil {
			slog.Warn("extraction_stream_write_failed",
				"request_id", requestIDFromContext(r.Context()),
				"event", event,
				"error", err,
			)
			return
		}
		flusher.Flush()
	}

	result, err := rt.runExtraction(r, images, func(progress domain.ExtractionProgress) {
		send("progress", progress)
	})
	if err != nil {
		send("error", map[string]any{
			"status": mapErrorToHTTPStatus(err),
			"error":  err.Error(),
		})
	} else {
		send("result", result)
	}

	_, _ = io.WriteString(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeSSEEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func (rt *Router) readImages(w http.ResponseWriter, r *http.Request) ([]domain.SourceImage, error) {
	maxImages := rt.cfg.UploadMaxImages
	maxImageBytes := rt.cfg.UploadMaxImageBytes

	if maxImages > 0 && maxImageBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(maxImages)*maxImageBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read images", fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
		}
		return nil, domain.WrapError(domain.ErrInvalidInput, "read images", fmt.Errorf("parse multipart upload: %w", err))
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File[imagesField]
	switch {
	case len(headers) == 0:
		return nil, domain.WrapError(domain.ErrInvalidInput, "read images", fmt.Errorf("multipart field %q is required", imagesField))
	case maxImages > 0 && len(headers) > maxImages:
		return nil, domain.WrapError(domain.ErrInvalidInput, "read images", fmt.Errorf("at most %d images per request, got %d", maxImages, len(headers)))
	}

	images := make([]domain.SourceImage, 0, len(headers))
	for _, header := range headers {
		if maxImageBytes > 0 && header.Size > maxImageBytes {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read images", fmt.Errorf("%s exceeds %d bytes", header.Filename, maxImageBytes))
		}

		file, err := header.Open()
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read images", fmt.Errorf("open %s: %w", header.Filename, err))
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read images", fmt.Errorf("read %s: %w", header.Filename, err))
		}

		images = append(images, domain.SourceImage{Filename: header.Filename, Data: data})
	}
	return images, nil
}

func wantsEventStream(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == eventStreamMIME {
			return true
		}
	}
	return false
}
