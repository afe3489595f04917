package dto

// WebhookEventRequest is the completion event body posted by the learning
// platform. Field names are the external contract and must not change: the
// signature covers the raw bytes, but these names are what the source emits.
type WebhookEventRequest struct {
	EventID   string         `json:"event_id" validate:"required,max=255"`
	CreatedAt string         `json:"created_at" validate:"required"`
	Contact   WebhookContact `json:"contact" validate:"required"`
	Tag       WebhookTag     `json:"tag" validate:"required"`
}

// WebhookContact identifies the learner on the external platform
type WebhookContact struct {
	ID    string `json:"id" validate:"required,max=255"`
	Email string `json:"email" validate:"omitempty,email,max=255"`
}

// WebhookTag carries the raw tag name attached to the completion event
type WebhookTag struct {
	Name string `json:"name" validate:"required,max=255"`
}

// WebhookAckResponse is the webhook's success/queued response shape.
// 200: {success, duplicate, ...award summary}; 202: {success, queued, reason}.
type WebhookAckResponse struct {
	Success         bool   `json:"success"`
	Duplicate       *bool  `json:"duplicate,omitempty"`
	Queued          *bool  `json:"queued,omitempty"`
	Reason          string `json:"reason,omitempty"`
	AlreadyCredited *bool  `json:"already_credited,omitempty"`
	UserUUID        string `json:"user_uuid,omitempty"`
	ActivityCode    string `json:"activity_code,omitempty"`
	PointsAwarded   *int   `json:"points_awarded,omitempty"`
	TotalPoints     *int64 `json:"total_points,omitempty"`
}

// WebhookErrorResponse is the webhook's rejection response shape.
// 401: {success:false, error:"invalid_signature"};
// 403: {success:false, error:{code:"INELIGIBLE_USER_TYPE"}}.
type WebhookErrorResponse struct {
	Success bool `json:"success"`
	Error   any  `json:"error"`
}
