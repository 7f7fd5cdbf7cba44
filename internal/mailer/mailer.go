// Package mailer sends the export summary email over SMTP.
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	host     string
	port     int
	from     string
	password string
	to       string
}

func New(host string, port int, from, password, to string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		from:     from,
		password: password,
		to:       to,
	}
}

// SendExportSummary notifies the configured recipient that an export file
// was generated.
func (m *Mailer) SendExportSummary(filename string, itemCount int) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", fmt.Sprintf("SixBit export ready: %s", filename))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Export %s has been generated with %d listing(s). The listings are now marked as exported.",
		filename, itemCount))

	d := gomail.NewDialer(m.host, m.port, m.from, m.password)
	return d.DialAndSend(msg)
}
