package smtp

import (
	"io"
	"net"

	"github.com/archipel-network/ddelivery-go/internal/gplog"
	"github.com/archipel-network/ddelivery-go/internal/spf"
)

// Accepter is the single-method interface the session hands completed
// Mail values to. DTN submitters, test collectors, and logging sinks all
// implement it.
type Accepter interface {
	Submit(Mail) error
}

// Session owns one accepted client connection and drives the SMTP dialog
// described in SPEC_FULL.md §4.5. It owns the connection and the
// in-progress Mail exclusively; its Framer holds its own carry buffer.
type Session struct {
	conn   net.Conn
	framer *Framer
	domain string

	state      SessionState
	current    *Mail
	heloDomain string
}

// NewSession writes the opening greeting and returns a Session ready to
// drive the dialog. domain is this server's advertised hostname.
func NewSession(conn net.Conn, domain string) (*Session, error) {
	if _, err := conn.Write(OpeningResponse{Domain: domain}.Bytes()); err != nil {
		return nil, &IOError{Err: err}
	}

	return &Session{
		conn:   conn,
		framer: NewFramer(conn),
		domain: domain,
		state:  AwaitingEhlo,
	}, nil
}

// Close shuts down both directions of the underlying connection. It is
// safe to call more than once.
func (s *Session) Close() {
	if err := s.conn.Close(); err != nil {
		gplog.Debugf("session close: %v", err)
	}
}

// Serve drives the dialog until QUIT, clean EOF, or a write failure.
// Every successfully completed Mail is handed to sink in submission order.
// A non-nil return value is always the I/O error that ended the session;
// it has already been logged to nobody — the caller (the accept loop)
// should log it.
func (s *Session) Serve(sink Accepter) error {
	defer s.Close()

	for {
		mail, done, err := s.step()
		if err != nil {
			return err
		}
		if mail != nil {
			if serr := sink.Submit(*mail); serr != nil {
				gplog.Errorf("sink rejected mail from %s: %v", mail.From, serr)
			}
		}
		if done {
			return nil
		}
	}
}

// step reads and handles exactly one unit of input: a command line outside
// DATA mode, or the accumulated DATA payload inside it.
func (s *Session) step() (mail *Mail, done bool, err error) {
	if s.framer.InDataMode() {
		payload, ferr := s.framer.ReadDataPayload()
		if ferr != nil {
			return s.handleFramerError(ferr)
		}
		return s.handleCommand(MailInputCommand{Content: payload})
	}

	line, ferr := s.framer.ReadLine()
	if ferr != nil {
		return s.handleFramerError(ferr)
	}

	cmd, perr := ParseCommand(line)
	if perr != nil {
		if werr := s.write(mapParseErrorToResponse(perr)); werr != nil {
			return nil, false, werr
		}
		return nil, false, nil
	}

	return s.handleCommand(cmd)
}

// handleFramerError implements SPEC_FULL.md §4.5/§7's framer-error policy:
// EOF ends the session cleanly, a too-long line gets a syntax error reply
// without ending anything, and any other read error is logged and the
// session keeps trying to read (the framer will next surface EOF or
// recover).
func (s *Session) handleFramerError(ferr error) (mail *Mail, done bool, err error) {
	if ferr == io.EOF {
		return nil, true, nil
	}
	if _, ok := ferr.(*LineTooLongError); ok {
		if werr := s.write(SyntaxErrorResponse{}); werr != nil {
			return nil, false, werr
		}
		return nil, false, nil
	}
	gplog.Warnf("smtp: transport read error, continuing: %v", ferr)
	return nil, false, nil
}

// handleCommand applies the state-transition table of SPEC_FULL.md §4.5.
func (s *Session) handleCommand(cmd Command) (mail *Mail, done bool, err error) {
	switch c := cmd.(type) {

	case HelloCommand:
		s.heloDomain = c.Domain
		s.state = AwaitingMail
		greet := "delayed greetings !"
		err = s.write(HelloOkResponse{
			Domain:     c.Domain,
			Greet:      &greet,
			Extensions: []string{"8BITMIME"},
		})

	case MailCommand:
		if s.current != nil {
			err = s.write(BadSequenceOfCommandResponse{Reason: "Mail sequence already started"})
			break
		}
		s.current = NewMail(c.From)
		s.state = BuildingTransaction
		err = s.write(SenderOkResponse{})
		if err == nil {
			s.adviseSPF(c.From)
		}

	case RecipientCommand:
		if s.current == nil {
			err = s.write(BadSequenceOfCommandResponse{Reason: "No mail sequence. Begin with a MAIL command"})
			break
		}
		s.current.Recipients = append(s.current.Recipients, c.To)
		err = s.write(RecipientOkResponse{})

	case DataCommand:
		s.state = ReceivingData
		s.framer.EnterDataMode()
		err = s.write(StartMailInputResponse{})

	case MailInputCommand:
		if s.current == nil {
			err = s.write(BadSequenceOfCommandResponse{Reason: "No mail sequence. Begin with a MAIL command"})
			break
		}
		s.current.Content = c.Content
		if err = s.write(MailOkResponse{}); err == nil {
			completed := *s.current
			mail = &completed
			s.current = nil
			s.state = AwaitingMail
		}

	case ResetCommand:
		s.current = nil
		s.state = AwaitingMail
		err = s.write(ResetOkResponse{})

	case NoopCommand:
		err = s.write(NoopOkResponse{})

	case VerifyCommand, ExpandCommand, HelpCommand:
		err = s.write(CommandNotImplementedResponse{})

	case QuitCommand:
		s.state = Closed
		done = true
		err = s.write(ClosingConnectionResponse{})

	default:
		gplog.Errorf("smtp: unhandled command type %T", cmd)
	}

	return mail, done, err
}

func (s *Session) adviseSPF(from Address) {
	host, _, splitErr := net.SplitHostPort(s.conn.RemoteAddr().String())
	if splitErr != nil {
		return
	}
	spf.Advise(net.ParseIP(host), s.heloDomain, from.Domain(), from.String())
}

func (s *Session) write(resp Response) error {
	if _, err := s.conn.Write(resp.Bytes()); err != nil {
		return &IOError{Err: err}
	}
	return nil
}
