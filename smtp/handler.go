package smtp

import "context"

// Handler is the external collaborator consulted for the two policy
// decisions the core does not make itself: whether a recipient is accepted
// for local delivery, and whether a completed message should be persisted.
// A single Handler is shared across every concurrently running Session, so
// implementations must be safe for concurrent use.
type Handler interface {
	// RecipientLocal is queried once per RCPT TO. Returning false rejects
	// the recipient with RecipientNotLocal.
	RecipientLocal(ctx context.Context, mailbox Mailbox) bool

	// Save is queried exactly once per completed DATA transaction, after
	// the end-of-data marker is seen. Returning false rejects with
	// TransactionFailed. Either way the body is discarded afterwards, while
	// From and Recipients stay set until RSET. state is read-only from the
	// Handler's point of view.
	Save(ctx context.Context, state *SessionState) bool
}
