package notification

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/domain/booking"
	"github.com/rentnest/rentnest-api/internal/domain/user"
	"github.com/rentnest/rentnest-api/internal/pkg/email"
	"github.com/rentnest/rentnest-api/internal/pkg/logger"
)

// Mailer queues booking emails.
type Mailer interface {
	SendBookingCreated(to string, data email.BookingEmail) bool
	SendBookingStatus(to string, data email.BookingEmail) bool
}

// EventPublisher publishes domain events to the message broker.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// UserLookup resolves the tenant's address.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// BookingNotifier fans booking events out to the tenant's email, the in-app
// inbox of the affected users and the message broker. Channels are
// independent: a failing one is logged and the rest still run.
type BookingNotifier struct {
	users      UserLookup
	inbox      *Service
	mailer     Mailer
	events     EventPublisher
	bookingURL string
}

// NewBookingNotifier creates the fan-out notifier. inbox may be nil.
func NewBookingNotifier(users UserLookup, inbox *Service) *BookingNotifier {
	return &BookingNotifier{users: users, inbox: inbox}
}

// WithMailer enables email delivery.
func (n *BookingNotifier) WithMailer(m Mailer) *BookingNotifier {
	n.mailer = m
	return n
}

// WithEvents enables broker publishing.
func (n *BookingNotifier) WithEvents(p EventPublisher) *BookingNotifier {
	n.events = p
	return n
}

// WithBookingURL sets the frontend base used for links in emails, e.g.
// https://rentnest.example/bookings.
func (n *BookingNotifier) WithBookingURL(base string) *BookingNotifier {
	n.bookingURL = strings.TrimRight(base, "/")
	return n
}

// Notify implements booking.Notifier.
func (n *BookingNotifier) Notify(ctx context.Context, evt booking.Event) {
	l := logger.FromContext(ctx).With().
		Str("booking_id", evt.BookingID.String()).
		Str("event", string(evt.Type)).
		Logger()

	if n.events != nil {
		if err := n.events.PublishJSON(ctx, RoutingKey(evt.Type), evt); err != nil {
			l.Warn().Err(err).Msg("publish booking event")
		}
	}

	if n.inbox != nil {
		title, body := inboxText(evt)
		data := &Data{BookingID: &evt.BookingID, ApartmentID: &evt.ApartmentID}
		for _, userID := range Recipients(evt) {
			if _, err := n.inbox.Create(ctx, userID, inboxType(evt.Type), title, body, data); err != nil {
				l.Warn().Err(err).Str("user_id", userID.String()).Msg("store notification")
			}
		}
	}

	if n.mailer != nil {
		n.sendEmail(ctx, evt)
	}
}

func (n *BookingNotifier) sendEmail(ctx context.Context, evt booking.Event) {
	l := logger.FromContext(ctx)

	tenant, err := n.users.GetByID(ctx, evt.TenantID)
	if err != nil {
		l.Warn().Err(err).Str("tenant_id", evt.TenantID.String()).Msg("load tenant for email")
		return
	}
	if tenant == nil {
		return
	}

	data := email.BookingEmail{
		Name:           tenant.FullName(),
		ApartmentTitle: evt.ApartmentTitle,
		Status:         StatusLabel(evt.Type),
	}
	if b := evt.Booking; b != nil {
		data.StartDate, data.EndDate = b.Range().Format()
		data.TotalPrice = b.TotalPrice.String()
	}
	if n.bookingURL != "" {
		data.BookingURL = n.bookingURL + "/" + evt.BookingID.String()
	}

	var queued bool
	if evt.Type == booking.EventCreated {
		queued = n.mailer.SendBookingCreated(tenant.Email, data)
	} else {
		queued = n.mailer.SendBookingStatus(tenant.Email, data)
	}
	if !queued {
		l.Warn().Str("booking_id", evt.BookingID.String()).Msg("booking email dropped")
	}
}

// RoutingKey is the broker routing key of an event, e.g. booking.approved.
func RoutingKey(t booking.EventType) string {
	return "booking." + string(t)
}

// StatusLabel renders an event for humans, e.g. "refund requested".
func StatusLabel(t booking.EventType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// Recipients returns who gets an in-app notification for evt. Requests and
// refund claims go to the owner, decisions to the tenant, cancellations to
// both.
func Recipients(evt booking.Event) []uuid.UUID {
	switch evt.Type {
	case booking.EventCreated, booking.EventRefundRequested:
		return []uuid.UUID{evt.OwnerID}
	case booking.EventCancelled:
		return []uuid.UUID{evt.TenantID, evt.OwnerID}
	default:
		return []uuid.UUID{evt.TenantID}
	}
}

func inboxType(t booking.EventType) Type {
	return Type("booking_" + string(t))
}

func inboxText(evt booking.Event) (string, string) {
	switch evt.Type {
	case booking.EventCreated:
		return "New booking request", "New request for " + evt.ApartmentTitle
	case booking.EventRefundRequested:
		return "Refund requested", "The tenant asked for a refund for " + evt.ApartmentTitle
	default:
		return "Booking " + StatusLabel(evt.Type), "Booking for " + evt.ApartmentTitle + ": " + StatusLabel(evt.Type)
	}
}
