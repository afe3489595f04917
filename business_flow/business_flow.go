// Package businessflow contains the business logic for the ingestion pipeline.
package businessflow

import (
	"time"

	"github.com/elevatehq/gamify/app/dto"
	"github.com/elevatehq/gamify/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToUserBadgeDTO converts an awarded badge to its response shape
func ToUserBadgeDTO(ub models.UserBadge) dto.UserBadgeDTO {
	return dto.UserBadgeDTO{
		Code:      ub.Badge.Code,
		Name:      ub.Badge.Name,
		AwardedAt: ub.AwardedAt.Format(time.RFC3339),
	}
}
