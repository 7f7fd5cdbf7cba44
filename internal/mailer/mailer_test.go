package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// MockMailer stands in for the SMTP dialer in workflow tests.
type MockMailer struct {
	WasCalled bool
	Filename  string
	ItemCount int
}

func (m *MockMailer) SendExportSummary(filename string, itemCount int) error {
	m.WasCalled = true
	m.Filename = filename
	m.ItemCount = itemCount
	return nil
}

func TestSendExportSummary_Mock(t *testing.T) {
	mock := &MockMailer{}
	err := mock.SendExportSummary("sixbit-export-2026-08-31.csv", 3)

	assert.NoError(t, err)
	assert.True(t, mock.WasCalled)
	assert.Equal(t, "sixbit-export-2026-08-31.csv", mock.Filename)
	assert.Equal(t, 3, mock.ItemCount)
}

func TestNewKeepsDialerSettings(t *testing.T) {
	m := New("smtp.example.com", 2525, "ops@example.com", "secret", "owner@example.com")
	assert.Equal(t, "smtp.example.com", m.host)
	assert.Equal(t, 2525, m.port)
	assert.Equal(t, "owner@example.com", m.to)
}
