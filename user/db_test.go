package user

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDB(t *testing.T) {
	Convey("Testing DB.Add() and DB.Get()", t, func() {

		db := DB{}

		err := db.Add(User{Name: "Mathias"})
		So(err, ShouldEqual, nil)

		u, err := db.Get("Mathias")
		So(err, ShouldEqual, nil)
		So(u.Name, ShouldEqual, "Mathias")

		err = db.Add(User{Name: "Mathias"})
		So(err, ShouldNotEqual, nil)
	})

	Convey("Getting an unknown user fails", t, func() {
		db := DB{}

		_, err := db.Get("nobody")
		So(err, ShouldNotEqual, nil)
	})
}
