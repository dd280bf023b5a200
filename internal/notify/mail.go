package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/rotadesk/backend/internal/domain"
)

type mailTemplate struct {
	subject string
	body    *template.Template
}

var mailTemplates = map[domain.NotificationType]mailTemplate{
	domain.NotificationHolidayApproved: {
		subject: "Your holiday request was approved",
		body: template.Must(template.New("holiday_approved").Parse(
			`Hi {{.Name}},

Your holiday from {{.Data.startDate}} to {{.Data.endDate}} has been approved.
{{- if .Data.removedShifts}}
{{.Data.removedShifts}} shift(s) in that period were removed from the rota.
{{- end}}
`)),
	},
	domain.NotificationHolidayRejected: {
		subject: "Your holiday request was declined",
		body: template.Must(template.New("holiday_rejected").Parse(
			`Hi {{.Name}},

Your holiday request from {{.Data.startDate}} to {{.Data.endDate}} was declined.
`)),
	},
	domain.NotificationSwapApproved: {
		subject: "Your shift swap was approved",
		body: template.Must(template.New("swap_approved").Parse(
			`Hi {{.Name}},

Your swap request for the shift on {{.Data.shift}} has been approved.
{{- if .Data.newOwner}} The shift now belongs to {{.Data.newOwner}}.{{else}} The shift is now open.{{end}}
`)),
	},
	domain.NotificationSwapRejected: {
		subject: "Your shift swap was declined",
		body: template.Must(template.New("swap_rejected").Parse(
			`Hi {{.Name}},

Your swap request for the shift on {{.Data.shift}} was declined. You still hold the shift.
`)),
	},
}

// RenderMail builds the subject and plain-text body sent to the staff member a notification concerns.
func RenderMail(n domain.Notification, name string) (string, string, error) {
	tmpl, ok := mailTemplates[n.Type]
	if !ok {
		return "", "", fmt.Errorf("unsupported notification type %q", n.Type)
	}

	var buf bytes.Buffer
	data := struct {
		Name string
		Data map[string]any
	}{
		Name: name,
		Data: n.Data,
	}
	if err := tmpl.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", n.Type, err)
	}

	return tmpl.subject, buf.String(), nil
}
