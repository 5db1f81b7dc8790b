package model

// Job status for long-running generation jobs
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether a job can no longer change state.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Video generation models
type GenerationModel string

const (
	ModelVeo3Fast    GenerationModel = "veo-3.0-fast-generate-preview"
	ModelVeo3Quality GenerationModel = "veo-3.0-generate-preview"
	ModelVeo2Fast    GenerationModel = "veo-2.0-fast-generate-001"
	ModelVeo2Quality GenerationModel = "veo-2.0-generate-001"
)

var ValidVideoModels = []GenerationModel{
	ModelVeo3Fast, ModelVeo3Quality, ModelVeo2Fast, ModelVeo2Quality,
}

// Aspect ratios
type AspectRatio string

const (
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
)

// Media mime types
type MimeType string

const (
	MimeTypeVideoMP4 MimeType = "video/mp4"
	MimeTypeImagePNG MimeType = "image/png"
)
