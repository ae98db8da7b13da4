package mailer

import "sync"

// MockMailer records sent mail for assertions in tests.
type MockMailer struct {
	mu   sync.Mutex
	Sent []SentMail
}

type SentMail struct {
	Recipient    string
	TemplateFile string
	Data         any
}

func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sent = append(m.Sent, SentMail{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
	})

	return nil
}
