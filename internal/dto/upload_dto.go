package dto

// UploadCreateRequest validates a direct-upload request. Size is the exact
// byte count the browser intends to PUT; 2 GiB is accepted, one byte more
// is not.
type UploadCreateRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=255"`
	SubjectID uint   `json:"subject_id" validate:"required,gt=0"`
	Size      int64  `json:"size" validate:"required,gt=0"`
	Type      string `json:"type" validate:"required,max=128"`
}

// UploadCreateResponse hands the browser its direct-upload target.
type UploadCreateResponse struct {
	UploadID  string `json:"upload_id"`
	UploadURL string `json:"upload_url"`
}

// UploadConfirmRequest finalises an upload after the browser PUT completes.
type UploadConfirmRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=255"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	SubjectID   uint     `json:"subject_id" validate:"required,gt=0"`
	Size        int64    `json:"size" validate:"omitempty,gte=0"`
	MimeType    string   `json:"mime_type" validate:"omitempty,max=128"`
	Tags        []string `json:"tags" validate:"omitempty,dive,required"`
}

// WebhookEvent is the provider's notification payload. Only the fields the
// dispatcher reads are modelled.
type WebhookEvent struct {
	Type string           `json:"type"`
	Data WebhookEventData `json:"data"`
}

// WebhookEventData carries the object the event refers to.
type WebhookEventData struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	UploadID    string              `json:"upload_id"`
	AssetID     string              `json:"asset_id"`
	Duration    float64             `json:"duration"`
	AspectRatio string              `json:"aspect_ratio"`
	PlaybackIDs []WebhookPlaybackID `json:"playback_ids"`
	Errors      *WebhookAssetErrors `json:"errors,omitempty"`
}

// WebhookPlaybackID is one playback identifier attached to an asset.
type WebhookPlaybackID struct {
	ID     string `json:"id"`
	Policy string `json:"policy"`
}

// WebhookAssetErrors carries the provider's failure messages.
type WebhookAssetErrors struct {
	Type     string   `json:"type"`
	Messages []string `json:"messages"`
}
