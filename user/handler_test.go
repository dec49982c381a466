package user

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/gopistolet/postbus/smtp"
)

func TestMaildirHandlerRecipientLocal(t *testing.T) {
	Convey("RecipientLocal", t, func() {
		db := &DB{}
		db.Add(User{Name: "bob"})

		h := &MaildirHandler{LocalDomain: "nexium.app", Users: db}

		Convey("A known user at the local domain is accepted", func() {
			ok := h.RecipientLocal(context.Background(), smtp.Mailbox{Local: "bob", Domain: "nexium.app"})
			So(ok, ShouldBeTrue)
		})

		Convey("The local domain match is case-insensitive", func() {
			ok := h.RecipientLocal(context.Background(), smtp.Mailbox{Local: "bob", Domain: "NEXIUM.APP"})
			So(ok, ShouldBeTrue)
		})

		Convey("An unknown user at the local domain is rejected", func() {
			ok := h.RecipientLocal(context.Background(), smtp.Mailbox{Local: "eve", Domain: "nexium.app"})
			So(ok, ShouldBeFalse)
		})

		Convey("A known local-part at a different domain is rejected", func() {
			ok := h.RecipientLocal(context.Background(), smtp.Mailbox{Local: "bob", Domain: "other.example"})
			So(ok, ShouldBeFalse)
		})
	})
}
