package service

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"guesthouse/internal/config"
	"guesthouse/internal/models"
)

// ContactLinks are the phone and WhatsApp fallbacks shown when online booking
// is not an option.
type ContactLinks struct {
	Phone        string `json:"phone"`
	PhoneLink    string `json:"phone_link"`
	WhatsApp     string `json:"whatsapp"`
	WhatsAppLink string `json:"whatsapp_link"`
	Message      string `json:"message"`
}

type ContactService struct {
	cfg config.ContactConfig
}

func NewContactService(cfg config.ContactConfig) *ContactService {
	return &ContactService{cfg: cfg}
}

// Links builds the links with message prefilled, or the default greeting.
func (c *ContactService) Links(message string) ContactLinks {
	if strings.TrimSpace(message) == "" {
		message = c.cfg.DefaultMessage
	}
	number := digitsOnly(c.cfg.WhatsAppNumber)

	return ContactLinks{
		Phone:        c.cfg.Phone,
		PhoneLink:    "tel:" + strings.ReplaceAll(c.cfg.Phone, " ", ""),
		WhatsApp:     number,
		WhatsAppLink: fmt.Sprintf("https://wa.me/%s?text=%s", number, url.QueryEscape(message)),
		Message:      message,
	}
}

// ForBooking prefills the WhatsApp message with the stay details.
func (c *ContactService) ForBooking(req models.BookingRequest, roomName string) ContactLinks {
	var b strings.Builder
	b.WriteString("Hi, I'd like to make a booking:\n")
	if req.GuestName != "" {
		fmt.Fprintf(&b, "\nName: %s", req.GuestName)
	}
	if !req.CheckIn.IsZero() {
		fmt.Fprintf(&b, "\nCheck-in: %s", req.CheckIn.Format(models.DateLayout))
	}
	if !req.CheckOut.IsZero() {
		fmt.Fprintf(&b, "\nCheck-out: %s", req.CheckOut.Format(models.DateLayout))
	}
	if req.Guests > 0 {
		fmt.Fprintf(&b, "\nGuests: %d", req.Guests)
	}
	if roomName != "" {
		fmt.Fprintf(&b, "\nRoom: %s", roomName)
	}
	return c.Links(b.String())
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
