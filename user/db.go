package user

import (
	"encoding/json"
	"errors"
	"io/ioutil"

	"github.com/gopistolet/postbus/helpers"
)

// DB is a small JSON-backed directory of locally known mailboxes.
type DB struct {
	Users map[string]User
}

// UserExists checks if a user exists in the DB.
func (db *DB) UserExists(name string) bool {
	_, found := db.Users[name]
	return found
}

// Get returns the user with the given name.
func (db *DB) Get(name string) (*User, error) {
	if !db.UserExists(name) {
		return nil, errors.New("user not found")
	}
	u := db.Users[name]
	return &u, nil
}

// Add adds a user to the database.
func (db *DB) Add(u User) error {
	if db.Users == nil {
		db.Users = make(map[string]User)
	}
	if db.UserExists(u.Name) {
		return errors.New("user already exists")
	}
	db.Users[u.Name] = u
	return nil
}

// Save writes the database to file as indented JSON.
func (db *DB) Save(file string) error {
	output, err := json.MarshalIndent(db, "", "\t")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(file, output, 0644)
}

// LoadDB loads a user database from a JSON file.
func LoadDB(file string) (*DB, error) {
	db := &DB{}
	if err := helpers.DecodeFile(file, db); err != nil {
		return nil, err
	}
	return db, nil
}
