package service

import (
	"net/url"
	"strings"
	"testing"

	"guesthouse/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactLinks(t *testing.T) {
	svc := NewContactService(config.ContactConfig{
		Phone:          "+254 712 345 678",
		WhatsAppNumber: "+254 712-345-678",
		DefaultMessage: "Hi, I'd like to book a room",
	})

	links := svc.Links("")
	assert.Equal(t, "tel:+254712345678", links.PhoneLink)
	assert.Equal(t, "254712345678", links.WhatsApp)
	assert.True(t, strings.HasPrefix(links.WhatsAppLink, "https://wa.me/254712345678?text="))

	u, err := url.Parse(links.WhatsAppLink)
	require.NoError(t, err)
	assert.Equal(t, "Hi, I'd like to book a room", u.Query().Get("text"))
}

func TestContactForBooking(t *testing.T) {
	svc := NewContactService(config.ContactConfig{Phone: "0712", WhatsAppNumber: "254712345678"})

	links := svc.ForBooking(validRequest(t, "2", "2025-06-10", "2025-06-12"), "Double Room")

	u, err := url.Parse(links.WhatsAppLink)
	require.NoError(t, err)
	text := u.Query().Get("text")
	assert.Contains(t, text, "Name: Kamau Njoroge")
	assert.Contains(t, text, "Check-in: 2025-06-10")
	assert.Contains(t, text, "Check-out: 2025-06-12")
	assert.Contains(t, text, "Guests: 2")
	assert.Contains(t, text, "Room: Double Room")
	assert.Equal(t, text, links.Message)
}
