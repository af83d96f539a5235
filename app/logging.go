package app

import (
	"github.com/sirupsen/logrus"
)

type LoggingConfig struct {
	Type       string `env:"LOG_TYPE"`
	ServerName string `env:"SERVER_NAME"`
}

// Setup configures the process-wide logrus logger.
func (conf *LoggingConfig) Setup() {
	if conf.Type == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if conf.ServerName != "" {
		logrus.AddHook(&serverNameHook{name: conf.ServerName})
	}
}

type serverNameHook struct {
	name string
}

func (h *serverNameHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *serverNameHook) Fire(entry *logrus.Entry) error {
	entry.Data["server"] = h.name
	return nil
}
