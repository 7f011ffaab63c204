package domain

import "fmt"

// MessageStatus is the lifecycle state of a message in a negotiation thread.
//
// The ordinals are persisted, so they keep the gaps of the original schema
// (plain messages are 0, offers start at 10).
type MessageStatus int

const (
	// StatusMessage marks a plain chat message carrying no price.
	StatusMessage MessageStatus = 0
	// StatusPendingOffer marks a price offer awaiting a decision.
	StatusPendingOffer MessageStatus = 10
	// StatusAcceptedOffer marks a price offer the seller accepted.
	StatusAcceptedOffer MessageStatus = 20
	// StatusRejectedOffer marks a price offer the seller rejected.
	StatusRejectedOffer MessageStatus = 90
)

// String implements fmt.Stringer.
func (s MessageStatus) String() string {
	switch s {
	case StatusMessage:
		return "message"
	case StatusPendingOffer:
		return "pending_offer"
	case StatusAcceptedOffer:
		return "accepted_offer"
	case StatusRejectedOffer:
		return "rejected_offer"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// IsOffer reports whether the status belongs to the offer lifecycle.
func (s MessageStatus) IsOffer() bool {
	return s == StatusPendingOffer || s == StatusAcceptedOffer || s == StatusRejectedOffer
}

// Terminal reports whether the status is a terminal offer state. A pending
// offer transitions exactly once, to accepted or rejected.
func (s MessageStatus) Terminal() bool {
	return s == StatusAcceptedOffer || s == StatusRejectedOffer
}

// OfferDecision is the outcome requested for a pending offer message.
type OfferDecision string

const (
	DecisionAccept OfferDecision = "accept"
	DecisionReject OfferDecision = "reject"
)

// Status returns the message status the decision transitions to.
func (d OfferDecision) Status() (MessageStatus, error) {
	switch d {
	case DecisionAccept:
		return StatusAcceptedOffer, nil
	case DecisionReject:
		return StatusRejectedOffer, nil
	default:
		return 0, fmt.Errorf("%w: unknown offer decision %q", ErrValidation, string(d))
	}
}
