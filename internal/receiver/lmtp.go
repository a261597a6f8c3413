package receiver

import (
	"fmt"
	"net"

	"github.com/emersion/go-smtp"
)

// LMTPDeliverer hands every Delivery to a local LMTP server, one RCPT per
// local username, matching original_source's mail_send::SmtpClientBuilder
// ...lmtp(true) usage in main_receiver.rs's lmtp_sender_task. Grounded on
// other_examples/5f14e05f_emersion-go-smtp__client.go.go's Client.
type LMTPDeliverer struct {
	Addr      string
	LocalName string
}

// Deliver dials addr fresh for every message: the receive loop is already
// single-threaded and bundles arrive far slower than an LMTP round trip
// costs, so there is no connection pool to manage.
func (d *LMTPDeliverer) Deliver(delivery Delivery) error {
	conn, err := net.Dial("tcp", d.Addr)
	if err != nil {
		return fmt.Errorf("lmtp: dial %s: %w", d.Addr, err)
	}
	client := smtp.NewClientLMTP(conn)
	defer client.Close()

	localName := d.LocalName
	if localName == "" {
		localName = "localhost"
	}
	if err := client.Hello(localName); err != nil {
		return fmt.Errorf("lmtp: LHLO: %w", err)
	}

	if err := client.Mail(delivery.From, nil); err != nil {
		return fmt.Errorf("lmtp: MAIL FROM: %w", err)
	}

	for _, user := range delivery.LocalUsernames {
		if err := client.Rcpt(user, nil); err != nil {
			return fmt.Errorf("lmtp: RCPT TO %s: %w", user, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("lmtp: DATA: %w", err)
	}
	if _, err := wc.Write(delivery.Raw); err != nil {
		wc.Close()
		return fmt.Errorf("lmtp: writing message body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("lmtp: closing DATA: %w", err)
	}

	return client.Quit()
}
