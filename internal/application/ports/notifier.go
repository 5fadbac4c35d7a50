package ports

import "context"

// NotificationTemplate plantilla del mensaje saliente.
type NotificationTemplate string

const (
	TemplateInvite         NotificationTemplate = "invite_message"
	TemplateUpdatePassword NotificationTemplate = "update_password"
	TemplateResetPassword  NotificationTemplate = "reset_password"
)

// Notification carga útil construida por los flujos de tokens.
// Link para invitación y reseteo; Code para el OTP.
type Notification struct {
	Template  NotificationTemplate
	UserID    string
	Recipient string // email
	FullName  string
	Link      string
	Code      string
}

// Notifier puerto de salida para la entrega (email, webhook, log).
// Se invoca después del commit: su fallo no deshace la operación.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
