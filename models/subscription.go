package models

import (
	"encoding/base64"
	"time"
)

// SubscriptionKeys is the Web Push encryption material from the browser.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh,omitempty"`
	Auth   string `json:"auth,omitempty"`
}

// Subscription is the flat per-endpoint record: transport credentials and the
// user's food items live side by side so dispatch needs no join. Exactly one
// identity field is set, depending on the transport:
//
//	Endpoint    - Web Push service URL (with Keys)
//	LineUserID  - LINE user id
//	EndpointARN - SNS platform endpoint ARN
type Subscription struct {
	Endpoint    string           `json:"endpoint,omitempty"`
	Keys        SubscriptionKeys `json:"keys,omitempty"`
	LineUserID  string           `json:"lineUserId,omitempty"`
	EndpointARN string           `json:"endpointArn,omitempty"`

	Items          []FoodItem `json:"items"`
	CreatedAt      string     `json:"createdAt,omitempty"`
	UpdatedAt      string     `json:"updatedAt,omitempty"`
	LastNotifiedAt string     `json:"lastNotifiedAt,omitempty"`
}

// Identity returns the transport-specific opaque identity string.
func (s *Subscription) Identity() string {
	switch {
	case s.Endpoint != "":
		return s.Endpoint
	case s.LineUserID != "":
		return "line:" + s.LineUserID
	default:
		return s.EndpointARN
	}
}

// Key returns the store key for this record.
func (s *Subscription) Key() string {
	return SubscriptionKey(s.Identity())
}

// SubscriptionKey derives the stable store key from an endpoint identity:
// "push:" plus the first 50 characters of the base64 encoding.
func SubscriptionKey(identity string) string {
	enc := base64.StdEncoding.EncodeToString([]byte(identity))
	if len(enc) > 50 {
		enc = enc[:50]
	}
	return "push:" + enc
}

// NotifiedWithin reports whether the record was successfully notified within
// the given duration before now. Zero or unparsable lastNotifiedAt means no.
func (s *Subscription) NotifiedWithin(d time.Duration, now time.Time) bool {
	if d <= 0 || s.LastNotifiedAt == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339, s.LastNotifiedAt)
	if err != nil {
		return false
	}
	return now.Sub(t) < d
}

// TruncatedIdentity shortens an identity for logs and debug output.
func (s *Subscription) TruncatedIdentity() string {
	id := s.Identity()
	if len(id) > 50 {
		return id[:50] + "..."
	}
	return id
}
