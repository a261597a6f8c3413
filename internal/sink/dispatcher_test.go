package sink

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/archipel-network/ddelivery-go/smtp"
)

func TestDispatcher(t *testing.T) {

	Convey("Given a dispatcher over a recording sink", t, func() {
		recorder := &RecordingSink{}
		d := NewDispatcher(recorder, 4)

		Convey("Submit hands mail to the consumer in order", func() {
			from1, _ := smtp.ParseAddress([]byte("<a@example.com>"))
			from2, _ := smtp.ParseAddress([]byte("<b@example.com>"))

			So(d.Submit(smtp.Mail{From: from1}), ShouldBeNil)
			So(d.Submit(smtp.Mail{From: from2}), ShouldBeNil)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			d.Stop(ctx)

			got := recorder.Snapshot()
			So(len(got), ShouldEqual, 2)
			So(got[0].From.String(), ShouldEqual, "<a@example.com>")
			So(got[1].From.String(), ShouldEqual, "<b@example.com>")
		})
	})
}
