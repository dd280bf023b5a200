package domain

import "time"

type NotificationType string

const (
	NotificationHolidayApproved NotificationType = "holiday_request.approved"
	NotificationHolidayRejected NotificationType = "holiday_request.rejected"
	NotificationSwapApproved    NotificationType = "swap_request.approved"
	NotificationSwapRejected    NotificationType = "swap_request.rejected"
)

// Notification is published after a workflow decision has been committed.
type Notification struct {
	ID         string           `json:"id"`
	Type       NotificationType `json:"type"`
	TenantID   int64            `json:"tenantID"`
	StaffID    int64            `json:"staffID"`
	OccurredAt time.Time        `json:"occurredAt"`
	Data       map[string]any   `json:"data"`
}
