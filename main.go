package main

import (
	"context"
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/gopistolet/postbus/helpers"
	"github.com/gopistolet/postbus/smtp"
	"github.com/gopistolet/postbus/user"
)

// Config describes how to run the demo postbus server.
type Config struct {
	Address     string
	ServerName  string
	LocalDomain string
	UsersFile   string
	MaildirRoot string
}

func main() {
	configFile := flag.String("config", "postbus.json", "path to the server configuration file")
	flag.Parse()

	var cfg Config
	if err := helpers.DecodeFile(*configFile, &cfg); err != nil {
		log.WithError(err).Fatal("could not read configuration")
	}

	users, err := user.LoadDB(cfg.UsersFile)
	if err != nil {
		log.WithError(err).Fatal("could not load user database")
	}

	handler := &user.MaildirHandler{
		LocalDomain: cfg.LocalDomain,
		Users:       users,
		MaildirRoot: cfg.MaildirRoot,
	}

	svc := smtp.NewService(cfg.Address, cfg.ServerName, handler)

	log.WithField("address", cfg.Address).Info("starting postbus")
	if err := svc.Listen(context.Background()); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
