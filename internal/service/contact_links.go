package service

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/tutormatch/tutormatch-api/internal/dto"
	"github.com/tutormatch/tutormatch-api/internal/models"
)

const (
	contactSubject     = "Consulta sobre tutoría"
	phoneNotAvailable  = "No disponible"
	defaultCountryCode = "51"
)

var (
	phoneGroups = regexp.MustCompile(`(\d{3})(\d{3})(\d{3})`)
	nonDigits   = regexp.MustCompile(`\D`)
)

// BuildContactLinks prepares the outbound contact options for tutor. WhatsApp is
// offered only when the tutor has a phone number.
func BuildContactLinks(tutor *models.User, countryCode string) *dto.ContactLinks {
	if tutor == nil {
		return nil
	}
	if countryCode == "" {
		countryCode = defaultCountryCode
	}

	links := &dto.ContactLinks{
		Email:        tutor.Email,
		MailtoURL:    mailtoURL(tutor),
		Phone:        phoneNotAvailable,
		DisplayTitle: "Contactar con el tutor",
	}

	phone := ""
	if tutor.Phone != nil {
		phone = strings.TrimSpace(*tutor.Phone)
	}
	digits := nonDigits.ReplaceAllString(phone, "")
	if digits == "" {
		return links
	}

	links.Phone = "+" + countryCode + " " + groupPhone(phone)
	links.HasWhatsApp = true
	message := fmt.Sprintf("Hola %s, me interesa tu tutoría que vi en TutorMatch.", tutor.FirstName)
	links.WhatsAppURL = "https://wa.me/" + countryCode + digits + "?text=" + escapeComponent(message)
	return links
}

func mailtoURL(tutor *models.User) string {
	body := fmt.Sprintf("Hola %s, me interesa tu tutoría...", tutor.FirstName)
	return "mailto:" + tutor.Email + "?subject=" + escapeComponent(contactSubject) + "&body=" + escapeComponent(body)
}

// groupPhone splits the first run of nine digits into groups of three.
func groupPhone(phone string) string {
	loc := phoneGroups.FindStringSubmatchIndex(phone)
	if loc == nil {
		return phone
	}
	grouped := phone[loc[2]:loc[3]] + " " + phone[loc[4]:loc[5]] + " " + phone[loc[6]:loc[7]]
	return phone[:loc[0]] + grouped + phone[loc[1]:]
}

// escapeComponent percent-encodes s for a URL query value with spaces as %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
