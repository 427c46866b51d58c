package notify

import (
	"fmt"
	"strings"
	"time"
)

// Envelope addresses every notification of a run.
type Envelope struct {
	From    string
	To      string
	Subject string
	// Location stamps the Date header.
	Location *time.Location
}

// Recipient falls back to the sender when no To address is set.
func (e Envelope) Recipient() string {
	if e.To == "" {
		return e.From
	}
	return e.To
}

// Compose renders an RFC 822 message carrying an HTML body.
func Compose(env Envelope, body string, now time.Time) []byte {
	loc := env.Location
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: <%s>\r\n", env.From)
	fmt.Fprintf(&b, "To: <%s>\r\n", env.Recipient())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	fmt.Fprintf(&b, "Subject: %s\r\n", env.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", now.In(loc).Format(time.RFC1123Z))
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
