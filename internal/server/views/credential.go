// Package views shapes models for the transports.
package views

import (
	"time"

	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/dmitrijs2005/socialid/internal/walletx"
)

// Credential is the wire form of models.Credential. UserAddress is the
// generic SS58 address of UserID when UserID is a valid key.
type Credential struct {
	ID          string `json:"id"`
	PeopleID    string `json:"peopleId"`
	UserID      string `json:"userId"`
	UserAddress string `json:"userAddress,omitempty"`
	Platform    string `json:"platform"`
	IsVerified  bool   `json:"isVerified"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func NewCredential(c *models.Credential) Credential {
	v := Credential{
		ID:         c.ID,
		PeopleID:   c.PeopleID,
		UserID:     c.UserID,
		Platform:   c.Platform.String(),
		IsVerified: c.IsVerified,
		CreatedAt:  formatTime(c.CreatedAt),
		UpdatedAt:  formatTime(c.UpdatedAt),
	}
	if addr, err := walletx.SS58(c.UserID); err == nil {
		v.UserAddress = addr
	}
	return v
}

func NewCredentials(cs []*models.Credential) []Credential {
	out := make([]Credential, 0, len(cs))
	for _, c := range cs {
		out = append(out, NewCredential(c))
	}
	return out
}

// Map returns v as a generic map, the shape used by structpb messages.
func (v Credential) Map() map[string]any {
	m := map[string]any{
		"id":         v.ID,
		"peopleId":   v.PeopleID,
		"userId":     v.UserID,
		"platform":   v.Platform,
		"isVerified": v.IsVerified,
		"createdAt":  v.CreatedAt,
		"updatedAt":  v.UpdatedAt,
	}
	if v.UserAddress != "" {
		m["userAddress"] = v.UserAddress
	}
	return m
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
