package broker

import "github.com/servora/realtime/internal/protocol"

// Notifier gives REST mutation handlers typed helpers over the router, so
// every feature publishes with the room conventions and event types its
// clients expect. Handlers call these synchronously after their own commit
// succeeds; an emitted event is a notification that state changed, never the
// state itself.
type Notifier struct {
	router *Router
}

// NewNotifier wraps a router.
func NewNotifier(router *Router) *Notifier {
	return &Notifier{router: router}
}

// NewBooking tells a provider a booking was created for them.
func (n *Notifier) NewBooking(providerID string, booking interface{}) {
	n.router.Publish(ProviderRoom(providerID), protocol.EventNewBooking, booking)
}

// BookingStatusUpdated tells both parties a booking changed state.
func (n *Notifier) BookingStatusUpdated(providerID, customerID string, booking interface{}) {
	n.router.PublishAll(
		[]string{ProviderRoom(providerID), UserRoom(customerID)},
		protocol.EventBookingStatusUpdated,
		booking,
	)
}

// ProviderVerified announces a verification decision to the admins and the
// provider concerned.
func (n *Notifier) ProviderVerified(providerID string, provider interface{}) {
	n.router.PublishAll(
		[]string{AdminRoom, ProviderRoom(providerID)},
		protocol.EventProviderVerified,
		provider,
	)
}

// ProviderRejected announces a rejection to the admins and the provider.
func (n *Notifier) ProviderRejected(providerID string, provider interface{}) {
	n.router.PublishAll(
		[]string{AdminRoom, ProviderRoom(providerID)},
		protocol.EventProviderRejected,
		provider,
	)
}

// ProviderUpdated tells the admins a provider record changed.
func (n *Notifier) ProviderUpdated(provider interface{}) {
	n.router.Publish(AdminRoom, protocol.EventProviderUpdated, provider)
}

// ProviderDeleted tells the admins a provider was removed. Only id and name
// survive the deletion.
func (n *Notifier) ProviderDeleted(id, name string) {
	n.router.Publish(AdminRoom, protocol.EventProviderDeleted, protocol.ProviderDeletedPayload{
		ID:   id,
		Name: name,
	})
}
