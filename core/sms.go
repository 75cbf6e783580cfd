package core

import "strings"

type (
	SMSMessage struct {
		To   string // E.164 phone number
		Body string
	}

	// SMSService is any service that can send text messages
	SMSService interface {
		// SendSMS sends messages concurrently
		SendSMS(messages ...SMSMessage)
	}
)

func (m SMSMessage) IsValid() bool {
	return strings.TrimSpace(m.To) != "" && strings.TrimSpace(m.Body) != ""
}
