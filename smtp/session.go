package smtp

import (
	"context"
	"io"
	"net"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

// maxRecipients is the hard cap on buffered RCPT TO recipients per
// transaction (RFC 5321 §4.5.3.1.8 requires at least 100).
const maxRecipients = 100

// readBufferSize is the per-read buffer size; RFC 5321 lines are at most
// 1000 octets, so one read comfortably spans at least one line.
const readBufferSize = 1024

// SessionState is the per-connection envelope and body accumulated across a
// transaction. It is owned exclusively by the Session that created it; a
// Handler only ever observes it, never mutates it.
type SessionState struct {
	// ServerName is the identity this session greets with.
	ServerName string
	// RemoteAddr is the accepted connection's remote address, fixed at
	// session construction.
	RemoteAddr net.Addr

	Domain     *Domain
	From       *Mailbox
	Recipients []Mailbox
	Data       string

	receivingData bool
	remaining     string
}

// Session drives a single accepted connection through the SMTP command
// dialogue, reading bytes, feeding the parser, enforcing command ordering,
// calling the Handler, and writing replies. A Session is created fresh for
// every accepted connection and is never shared between goroutines.
type Session struct {
	conn       net.Conn
	serverName string
	handler    Handler
	state      SessionState
	log        *log.Entry
}

func newSession(conn net.Conn, serverName string, handler Handler) *Session {
	return &Session{
		conn:       conn,
		serverName: serverName,
		handler:    handler,
		state: SessionState{
			ServerName: serverName,
			RemoteAddr: conn.RemoteAddr(),
		},
		log: log.WithField("remote", conn.RemoteAddr()),
	}
}

// Serve drives the session until the peer disconnects, QUIT is processed,
// a write fails, or ctx is cancelled. It always closes the underlying
// connection before returning, on every exit path.
func (s *Session) Serve(ctx context.Context) {
	defer s.conn.Close()

	// Closing the connection on cancellation unblocks a pending Read.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-stop:
		}
	}()

	s.log.Debug("accepted new connection")

	if err := s.send(GreetingReply{ServerName: s.serverName}); err != nil {
		return
	}

	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("session cancelled")
			return
		default:
		}

		n, err := s.conn.Read(buf)
		if ctx.Err() != nil {
			s.log.Debug("session cancelled")
			return
		}
		if err != nil {
			if err == io.EOF {
				s.log.Debug("connection closed by peer")
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			} else {
				s.log.WithError(err).Debug("read error, closing connection")
			}
			return
		}
		if n == 0 {
			continue
		}

		chunk := string(buf[:n])
		if !utf8.ValidString(chunk) {
			s.log.Debug("received non-utf8 bytes, closing connection silently")
			return
		}

		if s.handleInput(ctx, chunk) {
			return
		}
	}
}

// handleInput processes one read's worth of bytes and reports whether the
// session should terminate.
func (s *Session) handleInput(ctx context.Context, input string) bool {
	full := s.state.remaining + input
	s.state.remaining = ""

	if s.state.receivingData {
		ended, body, tail := DecodeDataBuffer(full)
		s.state.Data += body

		if ended {
			if s.terminate(ctx) {
				return true
			}
		}

		full = tail
	}

	lines, rem := ParseBuffer(full)
	s.state.remaining = rem

	for _, pl := range lines {
		if pl.Command == nil {
			if err := s.send(ReplySyntaxError); err != nil {
				return true
			}
			continue
		}

		reply := s.processCommand(ctx, pl.Command)
		err := s.send(reply)
		if reply == Reply(ReplyGoodbye) || err != nil {
			return true
		}
	}

	return false
}

// terminate finishes a DATA transaction: it calls the Handler, replies, and
// resets the data-receiving state. It returns true iff the reply failed to
// send and the session must close.
func (s *Session) terminate(ctx context.Context) bool {
	ok := s.handler.Save(ctx, &s.state)

	var reply Reply = ReplyTransactionFailed
	if ok {
		reply = ReplyOk
	}

	err := s.send(reply)

	s.state.receivingData = false
	s.state.Data = ""

	return err != nil
}

// processCommand applies one command's state transition and returns the
// reply to send. It never sends anything itself.
func (s *Session) processCommand(ctx context.Context, cmd Command) Reply {
	switch c := cmd.(type) {
	case HeloCommand:
		s.log.WithField("domain", c.Domain).Debug("processing HELO")
		d := c.Domain
		s.state.Domain = &d
		return HeloReply{ServerName: s.serverName}

	case EhloCommand:
		s.log.WithField("domain", c.Domain).Debug("processing EHLO")
		d := c.Domain
		s.state.Domain = &d
		return EhloReply{ServerName: s.serverName}

	case MailFromCommand:
		if s.state.Domain == nil {
			s.log.Debug("MAIL FROM out of sequence")
			return ReplyOutOfSequence
		}
		m := c.Mailbox
		s.state.From = &m
		return ReplyOk

	case RcptToCommand:
		if s.state.Domain == nil {
			s.log.Debug("RCPT TO out of sequence")
			return ReplyOutOfSequence
		}
		if len(s.state.Recipients) >= maxRecipients {
			s.log.Debug("too many recipients")
			return ReplyTooManyRecipients
		}
		if !s.handler.RecipientLocal(ctx, c.Mailbox) {
			s.log.WithField("mailbox", c.Mailbox).Debug("recipient not local")
			return ReplyRecipientNotLocal
		}
		s.state.Recipients = append(s.state.Recipients, c.Mailbox)
		return ReplyOk

	case DataCommand:
		if s.state.Domain == nil || s.state.From == nil || len(s.state.Recipients) == 0 {
			s.log.Debug("DATA out of sequence")
			return ReplyOutOfSequence
		}
		s.state.receivingData = true
		return ReplyStartData

	case RsetCommand:
		s.state.From = nil
		s.state.Recipients = nil
		s.state.Data = ""
		return ReplyOk

	case QuitCommand:
		return ReplyGoodbye

	default:
		return ReplySyntaxError
	}
}

func (s *Session) send(r Reply) error {
	_, err := s.conn.Write(WireBytes(r))
	if err != nil {
		s.log.WithError(err).Debug("write error, closing connection")
	}
	return err
}
