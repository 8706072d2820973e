package domain

// ExtractionBatchSize is the number of screenshots analyzed concurrently.
const ExtractionBatchSize = 3

// SourceImage is an uploaded screenshot before normalization.
type SourceImage struct {
	Filename string
	Data     []byte
}

// EncodedImage is a normalized JPEG ready for the vision service.
type EncodedImage struct {
	Filename string
	MimeType string
	Data     []byte
	Width    int
	Height   int
}

// ExtractionProgress is reported once per completed group of screenshots.
type ExtractionProgress struct {
	Completed int              `json:"completed"`
	Total     int              `json:"total"`
	Places    []ExtractedPlace `json:"places"`
}

type ProgressFunc func(ExtractionProgress)

type ImageFailure struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type ExtractionResult struct {
	Places   []ExtractedPlace `json:"places"`
	Failures []ImageFailure   `json:"failures,omitempty"`
	Total    int              `json:"total"`
}
