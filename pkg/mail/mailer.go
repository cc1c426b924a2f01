package mail

import (
	"fmt"
	"log"

	gomail "gopkg.in/gomail.v2"
)

// Mailer sends newsletter confirmation emails over SMTP. Delivery is best
// effort: missing credentials and relay failures are logged and swallowed so
// a subscribe never fails on mail.
type Mailer struct {
	host     string
	port     int
	email    string
	password string
}

func New(host string, port int, email, password string) *Mailer {
	return &Mailer{host: host, port: port, email: email, password: password}
}

func (m *Mailer) configured() bool {
	return m.email != "" && m.password != ""
}

const confirmationBody = `<p>Hi there,</p>
<p>Thanks for signing up for <strong>TrustBlocks updates</strong>.</p>
<p>We'll notify you when new features or simulations are released.</p>
<br />
<p>Team TrustBlocks</p>`

// SendSubscriptionConfirmation sends the fixed welcome template to a newly
// subscribed address.
func (m *Mailer) SendSubscriptionConfirmation(to string) {
	if !m.configured() {
		log.Printf("[mail] SMTP credentials missing, skipping confirmation to %s", to)
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("TrustBlocks <%s>", m.email))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "You're on the TrustBlocks updates list")
	msg.SetBody("text/html", confirmationBody)

	d := gomail.NewDialer(m.host, m.port, m.email, m.password)
	if err := d.DialAndSend(msg); err != nil {
		log.Printf("[mail] failed to send confirmation to %s: %v", to, err)
		return
	}
	log.Printf("[mail] confirmation sent to %s", to)
}
