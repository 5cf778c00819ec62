package repository

import "context"

// TransactionManager runs use-case work inside one database transaction.
type TransactionManager interface {
	// Execute commits when fn returns nil and rolls back otherwise (including panics).
	// The transaction is detached from caller cancellation, so a disconnecting client
	// never leaves it half-applied.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory hands out repositories bound to the current transaction.
type RepositoryFactory interface {
	NewAttorneyRepository() AttorneyRepository
	NewRefreshTokenRepository() RefreshTokenRepository
	NewProspectRepository() ProspectRepository
	NewLeadRepository() LeadRepository
}
