package mailer

import "eventpass/src/config"

func configWithMailer(name string) config.App {
	cfg := config.Load()
	cfg.Mailer = name
	return cfg
}
