package domain

// Типы агрегатов outbox-сообщений.
const (
	AggregateOrder    = "order"
	AggregateTicket   = "ticket"
	AggregateCustomer = "customer"
	AggregateAddress  = "address"
	AggregateCatalog  = "catalog"
)

// Типы доменных событий outbox.
const (
	EventOrderCreated                = "order.created"
	EventOrderCanceled               = "order.canceled"
	EventOrderDeliveryAddressUpdated = "order.delivery_address_updated"
	EventTicketOpened                = "ticket.opened"
	EventTicketResolved              = "ticket.resolved"
	EventCustomerCreated             = "customer.created"
	EventCustomerReactivated         = "customer.reactivated"
	EventCustomerDeleted             = "customer.deleted"
	EventAddressCreated              = "address.created"
	EventAddressDeleted              = "address.deleted"
	EventCatalogEntryWithdrawn       = "catalog.entry_withdrawn"
)

// Причины отмены заказа (метка метрик и timeline).
const (
	CancelReasonAutoResolved = "ticket_auto_resolved"
	CancelReasonResolved     = "ticket_resolved"
	CancelReasonTicketDelete = "ticket_deleted"
	CancelReasonExplicit     = "explicit_delete"
)
