package service

import (
	"context"
)

// LeadAssignedEvent is emitted after a lead is filed and committed.
type LeadAssignedEvent struct {
	RequestID     string `json:"request_id,omitempty"` // For distributed tracing
	LeadID        string `json:"lead_id"`
	State         string `json:"state"`
	AttorneyID    string `json:"attorney_id"`
	AttorneyName  string `json:"attorney_name"`
	AttorneyEmail string `json:"attorney_email"`
	ProspectID    string `json:"prospect_id"`
	ProspectName  string `json:"prospect_name"`
	ProspectEmail string `json:"prospect_email"`
}

// EventPublisher hands events to the asynchronous notification pipeline.
type EventPublisher interface {
	PublishLeadAssigned(ctx context.Context, event *LeadAssignedEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
