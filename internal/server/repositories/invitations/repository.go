// Package invitations stores invitation envelopes keyed by
// (sender, receiver) through their request and response states.
package invitations

import (
	"context"

	"github.com/dmitrijs2005/gophagenda/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, inv *models.Invitation) error
	// Requests lists pending requests addressed to the receiver.
	Requests(ctx context.Context, receiverUsernameHashed string) ([]*models.Invitation, error)
	// Responses lists answered invitations the sender is waiting on.
	Responses(ctx context.Context, senderUsernameHashed string) ([]*models.Invitation, error)
	// Respond turns a pending request into a response. A row can be
	// answered once.
	Respond(ctx context.Context, senderUsernameHashed, receiverUsernameHashed, invitationEncryptedSigned string) error
	// Delete removes the invitation between the two users, whichever sent it.
	Delete(ctx context.Context, usernameHashed, otherUsernameHashed string) error
	DeleteByUser(ctx context.Context, usernameHashed string) error
}
