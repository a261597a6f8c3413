package smtp

import (
	"context"
	"net"

	"github.com/archipel-network/ddelivery-go/internal/gplog"
)

// Server accepts SMTP connections and drives each one through a Session,
// handing every completed Mail to Sink. It carries no protocol state of
// its own beyond the advertised Domain.
type Server struct {
	Domain string
	Sink   Accepter
}

// NewServer returns a Server ready to Serve on any listener.
func NewServer(domain string, sink Accepter) *Server {
	return &Server{Domain: domain, Sink: sink}
}

// Serve accepts connections on ln until ctx is cancelled or Accept fails
// with a non-temporary error. Each connection is handled in its own
// goroutine, mirroring the teacher's Conn-per-goroutine accept loop.
func (srv *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				gplog.Warnf("smtp: accept error, continuing: %v", err)
				continue
			}
			return err
		}

		go srv.handle(conn)
	}
}

func (srv *Server) handle(conn net.Conn) {
	sess, err := NewSession(conn, srv.Domain)
	if err != nil {
		gplog.Errorf("smtp: could not greet %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}

	if err := sess.Serve(srv.Sink); err != nil {
		gplog.Debugf("smtp: session with %s ended: %v", conn.RemoteAddr(), err)
	}
}
