package smtp

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseCommand(t *testing.T) {

	Convey("Testing ParseCommand()", t, func() {

		Convey("HELO/EHLO", func() {
			cmd, err := ParseCommand([]byte("EHLO example.com\r\n"))
			So(err, ShouldBeNil)
			So(cmd, ShouldResemble, HelloCommand{Domain: "example.com"})
		})

		Convey("MAIL FROM without a space after the colon", func() {
			cmd, err := ParseCommand([]byte("MAIL FROM:<example.email@example.com>\r\n"))
			So(err, ShouldBeNil)
			mc, ok := cmd.(MailCommand)
			So(ok, ShouldBeTrue)
			So(mc.From.String(), ShouldEqual, "<example.email@example.com>")
		})

		Convey("MAIL FROM with a space after the colon is rejected", func() {
			_, err := ParseCommand([]byte("MAIL FROM: <example.email@example.com>\r\n"))
			So(err, ShouldNotBeNil)
			So(err.Kind, ShouldEqual, InvalidFrom)
		})

		Convey("RCPT TO", func() {
			cmd, err := ParseCommand([]byte("RCPT TO:<bob@example.com>\r\n"))
			So(err, ShouldBeNil)
			rc, ok := cmd.(RecipientCommand)
			So(ok, ShouldBeTrue)
			So(rc.To.String(), ShouldEqual, "<bob@example.com>")
		})

		Convey("RCPT TO with a space after the colon is rejected", func() {
			_, err := ParseCommand([]byte("RCPT TO: <bob@example.com>\r\n"))
			So(err, ShouldNotBeNil)
			So(err.Kind, ShouldEqual, InvalidRecipient)
		})

		Convey("DATA takes no argument", func() {
			cmd, err := ParseCommand([]byte("DATA\r\n"))
			So(err, ShouldBeNil)
			So(cmd, ShouldResemble, DataCommand{})
		})

		Convey("QUIT", func() {
			cmd, err := ParseCommand([]byte("QUIT\r\n"))
			So(err, ShouldBeNil)
			So(cmd, ShouldResemble, QuitCommand{})
		})

		Convey("an unrecognized verb is rejected", func() {
			_, err := ParseCommand([]byte("BOGUS\r\n"))
			So(err, ShouldNotBeNil)
			So(err.Kind, ShouldEqual, InvalidCommand)
		})

		Convey("MAIL FROM with a malformed address is rejected", func() {
			_, err := ParseCommand([]byte("MAIL FROM:example.com\r\n"))
			So(err, ShouldNotBeNil)
			So(err.Kind, ShouldEqual, InvalidFrom)
		})

		Convey("a line missing its CRLF is rejected", func() {
			_, err := ParseCommand([]byte("QUIT\n"))
			So(err, ShouldNotBeNil)
			So(err.Kind, ShouldEqual, BadEol)
		})

	})
}
