package smtp

import (
	"bytes"
	"io"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFramerReadLine(t *testing.T) {

	Convey("Testing Framer.ReadLine()", t, func() {

		Convey("yields one line per CRLF", func() {
			f := NewFramer(strings.NewReader("EHLO example.com\r\nQUIT\r\n"))

			line, err := f.ReadLine()
			So(err, ShouldBeNil)
			So(string(line), ShouldEqual, "EHLO example.com\r\n")

			line, err = f.ReadLine()
			So(err, ShouldBeNil)
			So(string(line), ShouldEqual, "QUIT\r\n")
		})

		Convey("returns io.EOF on a clean stream end", func() {
			f := NewFramer(strings.NewReader("QUIT\r\n"))
			_, err := f.ReadLine()
			So(err, ShouldBeNil)

			_, err = f.ReadLine()
			So(err, ShouldEqual, io.EOF)
		})

		Convey("discards a trailing partial line at EOF", func() {
			f := NewFramer(strings.NewReader("QUIT\r\nHELO no-te"))
			_, err := f.ReadLine()
			So(err, ShouldBeNil)

			_, err = f.ReadLine()
			So(err, ShouldEqual, io.EOF)
		})

		Convey("reports a too-long line and resynchronizes on the next CRLF", func() {
			long := strings.Repeat("A", maxLineLength+50)
			f := NewFramer(strings.NewReader(long + "\r\nQUIT\r\n"))

			_, err := f.ReadLine()
			_, ok := err.(*LineTooLongError)
			So(ok, ShouldBeTrue)

			line, err := f.ReadLine()
			So(err, ShouldBeNil)
			So(string(line), ShouldEqual, "QUIT\r\n")
		})
	})
}

func TestFramerReadDataPayload(t *testing.T) {

	Convey("Testing Framer.ReadDataPayload()", t, func() {

		Convey("accumulates lines until the terminating dot", func() {
			f := NewFramer(strings.NewReader("Subject: hi\r\nbody\r\n.\r\n"))
			f.EnterDataMode()

			payload, err := f.ReadDataPayload()
			So(err, ShouldBeNil)
			So(string(payload), ShouldEqual, "Subject: hi\r\nbody\r\n")
			So(f.InDataMode(), ShouldBeFalse)
		})

		Convey("un-stuffs a leading dot on content lines", func() {
			f := NewFramer(strings.NewReader("..leading dot\r\n.\r\n"))
			f.EnterDataMode()

			payload, err := f.ReadDataPayload()
			So(err, ShouldBeNil)
			So(string(payload), ShouldEqual, ".leading dot\r\n")
		})

		Convey("imposes no line-length cap inside DATA", func() {
			long := strings.Repeat("B", maxLineLength+500)
			f := NewFramer(strings.NewReader(long + "\r\n.\r\n"))
			f.EnterDataMode()

			payload, err := f.ReadDataPayload()
			So(err, ShouldBeNil)
			So(bytes.Equal(payload, []byte(long+"\r\n")), ShouldBeTrue)
		})
	})
}
