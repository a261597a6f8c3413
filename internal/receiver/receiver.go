// Package receiver runs the DTN-side half of the gateway: it pulls
// bundles addressed to the local inbox agent off the DTN daemon, parses
// them as RFC 5322 messages, and hands them to a Deliverer for local
// drop-off. Grounded on original_source/src/main_receiver.rs's
// dtn_receiver_task/lmtp_sender_task split.
package receiver

import (
	"bytes"
	"context"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/archipel-network/ddelivery-go/internal/dtn"
	"github.com/archipel-network/ddelivery-go/internal/gplog"
)

// Delivery is one parsed bundle ready for local drop-off.
type Delivery struct {
	From           string
	LocalUsernames []string
	Raw            []byte
}

// Deliverer is the downstream LMTP interface: one message, already
// resolved to its local recipients, handed off for final delivery.
type Deliverer interface {
	Deliver(Delivery) error
}

// Receiver owns the inbox agent connection and the configured Deliverer.
type Receiver struct {
	Agent       *dtn.Agent
	Deliverer   Deliverer
	LocalDomain string
}

// New wraps an already-connected inbox Agent. localDomain is the domain
// part of the agent's own node EID ("dtn://<localDomain>/<agent-id>"),
// used to decide which To: addresses are local.
func New(agent *dtn.Agent, deliverer Deliverer, localDomain string) *Receiver {
	return &Receiver{Agent: agent, Deliverer: deliverer, LocalDomain: localDomain}
}

// Run blocks, receiving bundles and delivering them, until ctx is
// cancelled. A bundle that fails to parse, or a delivery failure, is
// logged and never stops the loop — mirroring original_source's
// "error!(...); continue" handling on both ends of its pipeline.
// Cancelling ctx closes the Agent, so a receive already blocked returns.
func (r *Receiver) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		r.Agent.Close()
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		source, bundle, err := r.Agent.RecvBundle()
		if err != nil {
			gplog.Errorf("receiver: failed to receive bundle: %v", err)
			continue
		}

		delivery, ok := r.parse(source, bundle)
		if !ok {
			continue
		}

		if len(delivery.LocalUsernames) == 0 {
			gplog.Warnf("receiver: bundle from %s has no local recipient", source)
			continue
		}

		if err := r.Deliverer.Deliver(delivery); err != nil {
			gplog.Errorf("receiver: delivery failed for mail from %s: %v", delivery.From, err)
			continue
		}

		gplog.WithFields(gplog.Fields{
			"from":       delivery.From,
			"recipients": len(delivery.LocalUsernames),
		}).Debug("delivered bundle")
	}
}

// parse turns a raw bundle into a Delivery, returning ok=false for an
// empty/unparseable message or one with no From header, matching
// main_receiver.rs's dtn_receiver_task.
func (r *Receiver) parse(source string, bundle []byte) (Delivery, bool) {
	reader, err := mail.CreateReader(bytes.NewReader(bundle))
	if err != nil {
		gplog.Errorf("receiver: invalid or empty message from %s: %v", source, err)
		return Delivery{}, false
	}

	fromAddrs, err := reader.Header.AddressList("From")
	if err != nil || len(fromAddrs) == 0 {
		gplog.Warnf("receiver: missing From field in mail from %s", source)
		return Delivery{}, false
	}

	toAddrs, _ := reader.Header.AddressList("To")
	var locals []string
	for _, to := range toAddrs {
		user, domain, ok := splitAddress(to.Address)
		if !ok {
			continue
		}
		if strings.EqualFold(domain, r.LocalDomain) {
			locals = append(locals, user)
		}
	}

	return Delivery{
		From:           fromAddrs[0].Address,
		LocalUsernames: locals,
		Raw:            bundle,
	}, true
}

func splitAddress(addr string) (user, domain string, ok bool) {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return "", "", false
	}
	return addr[:at], addr[at+1:], true
}
