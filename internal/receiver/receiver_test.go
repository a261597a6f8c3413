package receiver

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeDeliverer struct {
	delivered []Delivery
}

func (f *fakeDeliverer) Deliver(d Delivery) error {
	f.delivered = append(f.delivered, d)
	return nil
}

func TestReceiverParse(t *testing.T) {

	Convey("Given a receiver for domain ddelivery", t, func() {
		r := &Receiver{LocalDomain: "ddelivery"}

		Convey("parse keeps only recipients on the local domain", func() {
			raw := "From: alice@example.com\r\n" +
				"To: bob@ddelivery, carol@elsewhere.example\r\n" +
				"Subject: hi\r\n" +
				"\r\n" +
				"body\r\n"

			delivery, ok := r.parse("dtn://example.com/mail/outbox", []byte(raw))
			So(ok, ShouldBeTrue)
			So(delivery.From, ShouldEqual, "alice@example.com")
			So(delivery.LocalUsernames, ShouldResemble, []string{"bob"})
		})

		Convey("parse rejects a message with no From header", func() {
			raw := "To: bob@ddelivery\r\n\r\nbody\r\n"
			_, ok := r.parse("dtn://example.com/mail/outbox", []byte(raw))
			So(ok, ShouldBeFalse)
		})
	})
}

func TestSplitAddress(t *testing.T) {
	Convey("splitAddress separates user and domain on the last @", t, func() {
		user, domain, ok := splitAddress("bob@ddelivery")
		So(ok, ShouldBeTrue)
		So(user, ShouldEqual, "bob")
		So(domain, ShouldEqual, "ddelivery")

		_, _, ok = splitAddress("not-an-address")
		So(ok, ShouldBeFalse)
	})
}
