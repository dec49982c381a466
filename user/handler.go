package user

import (
	"context"
	"net"
	"path/filepath"
	"strings"

	"github.com/gopistolet/gospf"
	log "github.com/sirupsen/logrus"
	maildir "github.com/sloonz/go-maildir"

	"github.com/gopistolet/postbus/smtp"
)

// MaildirHandler implements smtp.Handler: recipients are accepted iff their
// domain matches LocalDomain and their lower-cased local-part names a known
// User, and
// accepted messages are delivered to a per-recipient Maildir.
type MaildirHandler struct {
	// LocalDomain is the only domain this server accepts mail for.
	LocalDomain string
	// Users is the directory of locally known mailboxes.
	Users *DB
	// MaildirRoot is the base directory under which each recipient gets
	// their own Maildir.
	MaildirRoot string
}

// localPartOf folds a mailbox's local-part to lower case for directory
// lookup purposes; the core SMTP layer never does this folding itself.
func localPartOf(m smtp.Mailbox) string {
	return strings.ToLower(m.Local)
}

// RecipientLocal accepts m iff its domain matches LocalDomain
// (case-insensitively) and its local-part, folded to lower case, is the
// name of a known user. User names in the DB are not folded.
func (h *MaildirHandler) RecipientLocal(ctx context.Context, m smtp.Mailbox) bool {
	if !strings.EqualFold(string(m.Domain), h.LocalDomain) {
		return false
	}
	return h.Users.UserExists(localPartOf(m))
}

// Save performs a best-effort SPF check of the envelope sender against the
// connecting IP, then delivers the message body to every accepted
// recipient's Maildir. It returns true iff at least one delivery
// succeeded. A lookup error is logged but does not reject the mail; only an
// explicit SPF failure does.
func (h *MaildirHandler) Save(ctx context.Context, state *smtp.SessionState) bool {
	if state.From != nil && !h.senderAuthorized(state) {
		return false
	}

	delivered := false
	for _, rcpt := range state.Recipients {
		if err := h.deliver(rcpt, state.Data); err != nil {
			log.WithError(err).WithField("recipient", rcpt.String()).Warn("could not deliver message")
			continue
		}
		delivered = true
	}

	return delivered
}

func (h *MaildirHandler) senderAuthorized(state *smtp.SessionState) bool {
	tcpAddr, ok := state.RemoteAddr.(*net.TCPAddr)
	if !ok {
		return true
	}

	result, err := gospf.CheckHost(tcpAddr.IP, string(state.From.Domain), state.From.String())
	if err != nil {
		log.WithError(err).WithField("sender", state.From.String()).Debug("SPF lookup failed")
		return true
	}

	if result == gospf.Fail {
		log.WithField("sender", state.From.String()).Warn("rejecting mail failing SPF")
		return false
	}

	return true
}

func (h *MaildirHandler) deliver(rcpt smtp.Mailbox, data string) error {
	dir := maildir.Dir(filepath.Join(h.MaildirRoot, localPartOf(rcpt)))
	if err := dir.Create(); err != nil {
		return err
	}

	delivery, err := dir.NewDelivery()
	if err != nil {
		return err
	}

	if _, err := delivery.Write([]byte(data)); err != nil {
		delivery.Close()
		return err
	}

	return delivery.Close()
}
