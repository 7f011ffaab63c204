package transaction

// MessageInput is a plain chat message body.
type MessageInput struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// OfferInput is a price offer body.
type OfferInput struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

// ResolveInput carries the seller's decision on a pending offer message.
type ResolveInput struct {
	Decision string `json:"decision" validate:"required,oneof=accept reject"`
}
