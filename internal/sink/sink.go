// Package sink implements the bounded hand-off from an accepted SMTP
// transaction to whatever durably takes it from there: a DTN bundle
// submission in production, or an in-memory record in tests.
package sink

import (
	"fmt"
	"sync"

	"github.com/archipel-network/ddelivery-go/internal/dtn"
	"github.com/archipel-network/ddelivery-go/internal/gplog"
	"github.com/archipel-network/ddelivery-go/smtp"
)

// DTNSink submits every recipient of an accepted Mail as a separate DTN
// bundle, addressed "dtn://<recipient-domain>/<inbox-agent-id>".
type DTNSink struct {
	Agent        *dtn.Agent
	InboxAgentID string
}

// Submit implements smtp.Accepter. A failure to submit to one recipient is
// logged and does not affect the others or return an error: the SMTP
// session has already replied 250 Mail Ok by the time this runs.
func (s *DTNSink) Submit(mail smtp.Mail) error {
	for _, rcpt := range mail.Recipients {
		destination := fmt.Sprintf("dtn://%s/%s", rcpt.Domain(), s.InboxAgentID)

		if err := s.Agent.SendBundle(destination, mail.Content); err != nil {
			gplog.WithFields(gplog.Fields{
				"from": mail.From.String(),
				"to":   rcpt.String(),
			}).Errorf("dtn submission failed: %v", err)
			continue
		}

		gplog.WithFields(gplog.Fields{
			"from":        mail.From.String(),
			"to":          rcpt.String(),
			"destination": destination,
		}).Debug("submitted mail to DTN")
	}
	return nil
}

// RecordingSink appends every accepted Mail to an in-memory slice, for
// tests and for an in-process smoke-test mode.
type RecordingSink struct {
	mu    sync.Mutex
	Mails []smtp.Mail
}

// Submit implements smtp.Accepter.
func (s *RecordingSink) Submit(mail smtp.Mail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Mails = append(s.Mails, mail)
	return nil
}

// Snapshot returns a copy of the mails recorded so far.
func (s *RecordingSink) Snapshot() []smtp.Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]smtp.Mail, len(s.Mails))
	copy(out, s.Mails)
	return out
}

// LoggingSink pretty-prints the envelope and content length of every
// accepted Mail via gplog, without otherwise retaining it.
type LoggingSink struct{}

// Submit implements smtp.Accepter.
func (LoggingSink) Submit(mail smtp.Mail) error {
	gplog.WithFields(gplog.Fields{
		"from":       mail.From.String(),
		"recipients": len(mail.Recipients),
		"bytes":      len(mail.Content),
	}).Infof("accepted mail")
	return nil
}
