package proposalflow

import (
	"net/url"
	"strings"
)

// minPhoneDigits is the minimum plausible digit count for an
// international WhatsApp number; shorter numbers produce no redirect.
const minPhoneDigits = 10

// SanitizePhone strips everything but digits from a phone number.
func SanitizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildWhatsAppURL forms a wa.me deep link, or "" when the phone number
// has too few digits to be plausible.
func BuildWhatsAppURL(phone, message string) string {
	digits := SanitizePhone(phone)
	if len(digits) < minPhoneDigits {
		return ""
	}
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(message)
}

// renderTemplate substitutes the supported placeholders into a message
// template.
func renderTemplate(template, brokerName, propertyName, shortRef string) string {
	return strings.NewReplacer(
		"{corretor}", brokerName,
		"{imovel}", propertyName,
		"{ref}", shortRef,
	).Replace(template)
}
