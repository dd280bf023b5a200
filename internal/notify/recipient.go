package notify

import (
	"context"
	"errors"

	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/repository"
)

// ErrNoRecipient means the staff member has no linked account to mail.
var ErrNoRecipient = errors.New("staff member has no linked account")

type Recipient struct {
	Email string
	Name  string
}

// ResolveRecipient finds the address a notification is delivered to. Staff rows that were
// deleted since the notification was published yield ErrNoRecipient as well.
func ResolveRecipient(ctx context.Context, q repository.Querier, n domain.Notification) (*Recipient, error) {
	staff, err := q.GetStaff(ctx, n.TenantID, n.StaffID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoRecipient
		}
		return nil, err
	}
	if staff.LinkedUserID == nil {
		return nil, ErrNoRecipient
	}

	account, err := q.GetAccountByID(ctx, *staff.LinkedUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoRecipient
		}
		return nil, err
	}

	return &Recipient{Email: account.Email, Name: staff.Name}, nil
}
