package model

import "time"

// User identifies the authenticated owner of a media item.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// MediaItem represents a single generation job and its persisted result.
// A record is created with status "pending" before any generation work
// starts and receives exactly one terminal update (completed or failed).
type MediaItem struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	UserEmail      string          `json:"userEmail"`
	MimeType       MimeType        `json:"mimeType"`
	Model          GenerationModel `json:"model"`
	Status         JobStatus       `json:"status"`
	OriginalPrompt string          `json:"originalPrompt"`
	Prompt         string          `json:"prompt"` // prompt after enhancement
	NegativePrompt string          `json:"negativePrompt,omitempty"`
	AspectRatio    AspectRatio     `json:"aspectRatio"`
	DurationSecs   int             `json:"durationSeconds"`
	SampleCount    int             `json:"sampleCount"`
	GenerateAudio  bool            `json:"generateAudio"`
	ResultURIs     []string        `json:"resultUris"`
	GenerationTime float64         `json:"generationTime,omitempty"` // seconds
	Error          *string         `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

// MediaItemResponse is the polling response: the record plus short-lived
// signed URLs for any stored results.
type MediaItemResponse struct {
	MediaItem
	SignedURLs []string `json:"signedUrls"`
}
