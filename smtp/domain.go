package smtp

// Domain is a fully qualified domain name exactly as it appeared on the
// wire. Equality is case-sensitive; a Handler that wants case-insensitive
// comparison must fold the case itself.
type Domain string

func (d Domain) String() string {
	return string(d)
}

// Mailbox is a local-part/domain pair, as carried by MAIL FROM and RCPT TO.
// Local is kept byte-for-byte as parsed: the surrounding quotes of a
// quoted-string local-part are stripped, but the inner bytes (including any
// quoted-pair escapes) are preserved verbatim.
type Mailbox struct {
	Local  string
	Domain Domain
}

func (m Mailbox) String() string {
	return m.Local + "@" + string(m.Domain)
}
