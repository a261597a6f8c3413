package sink

import (
	"context"

	"github.com/archipel-network/ddelivery-go/internal/gplog"
	"github.com/archipel-network/ddelivery-go/smtp"
)

// Message is one item on the Dispatcher's queue: either a Mail to submit,
// or the distinguished Shutdown value telling the consumer to drain and
// stop.
type Message struct {
	Mail     smtp.Mail
	Shutdown bool
}

// Dispatcher is the bounded hand-off between the SMTP accept loop (many
// producer goroutines, one per session) and a single Accepter (the
// consumer), per SPEC_FULL.md §5. The accept loop never blocks on the
// sink's own work beyond the channel send.
type Dispatcher struct {
	queue chan Message
	sink  smtp.Accepter
	done  chan struct{}
}

// NewDispatcher starts the consumer goroutine and returns a Dispatcher
// ready to accept Submit calls. capacity is the bounded queue depth
// (config.Config.SinkQueueSize).
func NewDispatcher(sink smtp.Accepter, capacity int) *Dispatcher {
	d := &Dispatcher{
		queue: make(chan Message, capacity),
		sink:  sink,
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Submit implements smtp.Accepter by enqueuing mail for the consumer
// goroutine; it only blocks if the queue is full.
func (d *Dispatcher) Submit(mail smtp.Mail) error {
	d.queue <- Message{Mail: mail}
	return nil
}

// Stop requests the consumer drain whatever is already queued and exit,
// then blocks until it has. Further Submit calls after Stop are not
// delivered.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.queue <- Message{Shutdown: true}
	select {
	case <-d.done:
	case <-ctx.Done():
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for msg := range d.queue {
		if msg.Shutdown {
			return
		}
		if err := d.sink.Submit(msg.Mail); err != nil {
			gplog.Errorf("sink: submit failed for mail from %s: %v", msg.Mail.From, err)
		}
	}
}
