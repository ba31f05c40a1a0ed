package order

// Provider payment statuses as sent in webhook notifications.
const (
	ProviderPaymentCreated      = "payment_created"
	ProviderPaymentPending      = "payment_pending"
	ProviderSCARequired         = "sca_required"
	ProviderProviderRequired    = "provider_required"
	ProviderPaymentUnsuccessful = "payment_unsuccessful"
	ProviderPaymentError        = "payment_error"
	ProviderPaymentExpired      = "payment_expired"
)

// StatusMapping is the internal classification of a provider payment status.
type StatusMapping struct {
	Status       Status `json:"status"`
	ProviderCode string `json:"provider_code"`
}

var providerStatuses = map[string]Status{
	ProviderPaymentCreated:      StatusProcessing,
	ProviderPaymentPending:      StatusPendingPayment,
	ProviderSCARequired:         StatusPendingPayment,
	ProviderProviderRequired:    StatusPendingPayment,
	ProviderPaymentUnsuccessful: StatusCanceled,
	ProviderPaymentError:        StatusCanceled,
	ProviderPaymentExpired:      StatusCanceled,
}

// MapProviderStatus classifies a provider payment status into an order status.
// Unknown provider statuses map to the failed bucket: an unrecognized payment
// outcome must never be treated as success.
func MapProviderStatus(providerStatus string) StatusMapping {
	status, ok := providerStatuses[providerStatus]
	if !ok {
		status = StatusCanceled
	}
	return StatusMapping{
		Status:       status,
		ProviderCode: providerStatus,
	}
}
