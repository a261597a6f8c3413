package receiver

import (
	"fmt"
	"path"

	maildir "github.com/sloonz/go-maildir"
)

// MaildirDeliverer drops each Delivery into a per-user Maildir under Root.
// It is supplemental to the distilled system: a natural local-delivery
// fallback for development and testing when no LMTP server is nearby,
// grounded on the same maildir.Dir/NewDelivery shape shown in
// other_examples/eba248aa_bcl-letterbox__main.go.go (there against
// github.com/luksen/maildir; here against the teacher's own
// github.com/sloonz/go-maildir dependency, left otherwise unwired).
type MaildirDeliverer struct {
	Root string
}

// Deliver writes one copy of the raw message into <Root>/<username>/ for
// every local username, creating the Maildir if it doesn't exist yet.
func (d *MaildirDeliverer) Deliver(delivery Delivery) error {
	for _, user := range delivery.LocalUsernames {
		dir := maildir.Dir(path.Join(d.Root, user))
		if err := dir.Create(); err != nil {
			return fmt.Errorf("maildir: create %s: %w", dir, err)
		}

		del, err := dir.NewDelivery()
		if err != nil {
			return fmt.Errorf("maildir: new delivery for %s: %w", user, err)
		}

		if _, err := del.Write(delivery.Raw); err != nil {
			del.Close()
			return fmt.Errorf("maildir: write for %s: %w", user, err)
		}
		if err := del.Close(); err != nil {
			return fmt.Errorf("maildir: close for %s: %w", user, err)
		}
	}
	return nil
}
