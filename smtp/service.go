package smtp

import (
	"context"
	"net"

	log "github.com/sirupsen/logrus"
)

// Service listens for inbound SMTP connections and spawns one Session per
// accepted connection. All spawned sessions share the same Handler.
type Service struct {
	address    string
	serverName string
	handler    Handler
}

// NewService constructs a Service bound to address once Listen is called.
// It does not open a socket itself.
func NewService(address, serverName string, handler Handler) *Service {
	return &Service{
		address:    address,
		serverName: serverName,
		handler:    handler,
	}
}

// Listen binds address and accepts connections until ctx is cancelled or an
// unrecoverable accept error occurs. Each accepted connection is served in
// its own goroutine; cancelling ctx closes the listener and propagates to
// every running Session, causing them to release their sockets without
// further Handler calls.
func (svc *Service) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", svc.address)
	if err != nil {
		return err
	}
	defer ln.Close()

	log.WithField("address", svc.address).Debug("listening for SMTP connections")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				log.WithError(err).Warn("temporary accept error")
				continue
			}

			return err
		}

		session := newSession(conn, svc.serverName, svc.handler)
		go session.Serve(ctx)
	}
}
