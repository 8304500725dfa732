package services

import (
	"context"

	"github.com/EugenePawit/expiration-tracker/models"
)

// Outcome classifies one delivery attempt.
type Outcome int

const (
	// Delivered: the push service accepted the message.
	Delivered Outcome = iota
	// PermanentFailure: the endpoint will never accept another message
	// (gone / unregistered). The caller should forget it.
	PermanentFailure
	// TransientFailure: anything else. The endpoint is kept.
	TransientFailure
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case PermanentFailure:
		return "permanent-failure"
	default:
		return "transient-failure"
	}
}

// PushTransport delivers a composed message to one endpoint. Deliver never
// returns an error: every underlying failure is mapped to an Outcome at this
// boundary so the dispatch run only ever branches on the three cases.
type PushTransport interface {
	Name() string
	Deliver(ctx context.Context, sub *models.Subscription, msg Message) Outcome
}

// EndpointRegistrar is implemented by transports whose registration needs a
// server-side exchange (SNS turns a device token into a platform endpoint
// ARN). The subscribe surface type-asserts for it.
type EndpointRegistrar interface {
	RegisterToken(ctx context.Context, token string) (string, error)
}
