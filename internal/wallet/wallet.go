// Package wallet builds Google Wallet "save to wallet" links for approved
// attendees. The link embeds an RS256-signed JWT describing the event
// ticket; scanning apps never talk to this package, it only emits the URL
// put into the approval email.
package wallet

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zenith-events/zenith/internal/domain"
)

const saveURLPrefix = "https://pay.google.com/gp/v/save/"

type Generator struct {
	issuerID       string
	serviceAccount string
	key            *rsa.PrivateKey
	origins        []string
}

// NewGenerator parses the service-account private key (PEM). issuerID is
// the Google Wallet issuer account, serviceAccount the signer identity.
func NewGenerator(issuerID, serviceAccount, privateKeyPEM string, origins []string) (*Generator, error) {
	if issuerID == "" || serviceAccount == "" {
		return nil, domain.ErrValidation("wallet issuer id and service account are required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, domain.ErrValidation("wallet private key is not a valid RSA PEM")
	}
	return &Generator{
		issuerID:       issuerID,
		serviceAccount: serviceAccount,
		key:            key,
		origins:        origins,
	}, nil
}

type ticketObject struct {
	ID           string `json:"id"`
	ClassID      string `json:"classId"`
	State        string `json:"state"`
	TicketHolder string `json:"ticketHolderName"`
	TicketNumber string `json:"ticketNumber"`
	EventName    string `json:"eventName"`
	Location     string `json:"location,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	HeroImage    string `json:"heroImage,omitempty"`
}

type walletClaims struct {
	Origins []string `json:"origins,omitempty"`
	Typ     string   `json:"typ"`
	Payload struct {
		EventTicketObjects []ticketObject `json:"eventTicketObjects"`
	} `json:"payload"`
	jwt.RegisteredClaims
}

// SaveURL signs a ticket object for the approved request and returns the
// save link. The ticket number is the request id, the same value the door
// scanner reads back.
func (g *Generator) SaveURL(n domain.ApprovalNotice, now time.Time) (string, error) {
	obj := ticketObject{
		ID:           fmt.Sprintf("%s.%s", g.issuerID, n.RequestID),
		ClassID:      fmt.Sprintf("%s.%s", g.issuerID, n.Event.EventID),
		State:        "ACTIVE",
		TicketHolder: n.AttendeeName,
		TicketNumber: n.RequestID,
		EventName:    n.Event.Title,
		Location:     n.Event.Location,
		HeroImage:    n.Event.ImageURL,
	}
	if !n.Event.Date.IsZero() {
		obj.StartDate = n.Event.Date.UTC().Format(time.RFC3339)
	}

	claims := walletClaims{
		Origins: g.origins,
		Typ:     "savetowallet",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   g.serviceAccount,
			Audience: jwt.ClaimStrings{"google"},
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	claims.Payload.EventTicketObjects = []ticketObject{obj}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := tok.SignedString(g.key)
	if err != nil {
		return "", domain.ErrExternal("sign wallet pass", err)
	}
	return saveURLPrefix + signed, nil
}
