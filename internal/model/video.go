package model

// GenerateVideoRequest represents a video generation request. It is immutable
// once accepted: the same struct crosses the queue boundary unchanged inside
// a JobEnvelope.
type GenerateVideoRequest struct {
	Prompt         string          `json:"prompt" validate:"required,max=1500"`
	Model          GenerationModel `json:"model" validate:"required,oneof=veo-3.0-fast-generate-preview veo-3.0-generate-preview veo-2.0-fast-generate-001 veo-2.0-generate-001"`
	AspectRatio    AspectRatio     `json:"aspectRatio" validate:"required,oneof=16:9 9:16"`
	SampleCount    int             `json:"sampleCount" validate:"min=1,max=4"`
	NegativePrompt string          `json:"negativePrompt,omitempty" validate:"max=1500"`
	DurationSecs   int             `json:"durationSeconds" validate:"min=1,max=8"`
	GenerateAudio  bool            `json:"generateAudio"`
}

// GenerateVideoBatchRequest wraps the batch endpoint body.
type GenerateVideoBatchRequest struct {
	Requests []GenerateVideoRequest `json:"requests" validate:"required,min=1,max=10,dive"`
}

// BatchFailure attributes a submission failure to the request that caused it.
type BatchFailure struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
	Error  string `json:"error"`
}

// GenerateVideoBatchResponse reports every accepted item and every failure.
// Accepted items stay accepted even when other items in the batch fail.
type GenerateVideoBatchResponse struct {
	Items    []MediaItem    `json:"items"`
	Failures []BatchFailure `json:"failures"`
}
