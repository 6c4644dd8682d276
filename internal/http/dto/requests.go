package dto

type ShippingAddressRequest struct {
	Recipient  string  `json:"recipient"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

type CreateOrderRequest struct {
	ListingID       string                 `json:"listing_id"`
	PaymentMethod   string                 `json:"payment_method"` // stripe / crypto
	ShippingAddress ShippingAddressRequest `json:"shipping_address"`
	// OfferCents is set when the order originates from an accepted offer.
	OfferCents int64 `json:"offer_cents,omitempty"`
}

type ShipOrderRequest struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

type ResolveDisputeRequest struct {
	Outcome string `json:"outcome"` // refunded / delivered
}

type RequestPayoutRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Destination string `json:"destination"`
}

type UpdatePayoutStatusRequest struct {
	Status string `json:"status"` // processing / paid / rejected
}
