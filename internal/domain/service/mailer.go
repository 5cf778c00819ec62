package service

import "context"

// LeadMailer delivers the "new lead pair" message to both parties of a lead.
type LeadMailer interface {
	SendLeadAssigned(ctx context.Context, event *LeadAssignedEvent) error
}
