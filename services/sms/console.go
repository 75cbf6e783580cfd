// Package smssvc sends text messages. Only a console sender exists: it logs the messages it would deliver.
package smssvc

import (
	"fmt"
	"sync"

	"github.com/studentpartner/backend/core"
)

var (
	SentMessages = make([]core.SMSMessage, 0)
	mu           sync.Mutex
)

// ResetSentMessages empties SentMessages.
func ResetSentMessages() {
	mu.Lock()
	SentMessages = make([]core.SMSMessage, 0)
	mu.Unlock()
}

// Sent returns a copy of SentMessages.
func Sent() []core.SMSMessage {
	mu.Lock()
	defer mu.Unlock()
	return append([]core.SMSMessage(nil), SentMessages...)
}

type consoleService struct {
	senderID      string
	logger        core.Logger
	disableOutput bool
}

var _ core.SMSService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config, logger core.Logger) core.SMSService {
	return &consoleService{senderID: conf.SMS.SenderID, logger: logger}
}

func (svc consoleService) SendSMS(messages ...core.SMSMessage) {
	for _, msg := range messages {
		go svc.send(msg)
	}
}

func (svc consoleService) send(msg core.SMSMessage) {
	if !msg.IsValid() {
		return
	}
	if !svc.disableOutput {
		svc.logger.Info(fmt.Sprintf("sms from %s to %s: %s", svc.senderID, msg.To, msg.Body))
	}
	mu.Lock()
	SentMessages = append(SentMessages, msg)
	mu.Unlock()
}

type consoleServiceMock struct {
	consoleService
}

// NewConsoleServiceMock returns a silent console service sending synchronously, for tests.
func NewConsoleServiceMock(conf *core.Config, logger core.Logger) core.SMSService {
	return &consoleServiceMock{consoleService{senderID: conf.SMS.SenderID, logger: logger, disableOutput: true}}
}

func (svc *consoleServiceMock) SendSMS(messages ...core.SMSMessage) {
	for _, msg := range messages {
		svc.send(msg)
	}
}
