// Package spf runs an advisory-only SPF check against the sender of a MAIL
// FROM command. It is informational: per SPEC_FULL.md §4.1 and spec.md's
// Non-goal "no relay policy beyond accepting all recipients", the result is
// logged and never changes whether a sender is accepted.
//
// Grounded on smtp/mailaddress.go's original (never-finished)
// ValidateDomainAddress/HasReverseDns TODOs, now actually performed with
// the teacher's own SPF dependency.
package spf

import (
	"net"

	"github.com/gopistolet/gospf"

	"github.com/archipel-network/ddelivery-go/internal/gplog"
)

// Advise runs an SPF check for sender "from@domain" against the TCP peer
// clientIP and logs the outcome at debug level. It never returns an error
// to the caller because a failed or inconclusive SPF lookup must not
// affect the SMTP dialog.
func Advise(clientIP net.IP, heloDomain, senderDomain, sender string) {
	if clientIP == nil || senderDomain == "" {
		return
	}

	result, explanation, err := gospf.CheckHost(clientIP, heloDomain, sender)
	if err != nil {
		gplog.WithFields(gplog.Fields{
			"client_ip": clientIP.String(),
			"sender":    sender,
		}).Debugf("advisory SPF check could not complete: %v", err)
		return
	}

	gplog.WithFields(gplog.Fields{
		"client_ip":   clientIP.String(),
		"sender":      sender,
		"spf_result":  result,
		"explanation": explanation,
	}).Debug("advisory SPF check complete")
}
