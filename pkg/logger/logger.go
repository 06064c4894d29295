package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log - глобальный логгер приложения. Инициализируется один раз в main.
var Log *logrus.Logger

// Init настраивает глобальный логгер по переменным окружения:
//
//	LOG_LEVEL  - trace|debug|info|warn|error (по умолчанию info)
//	LOG_FORMAT - json для продакшена, text для разработки
func Init() {
	Log = logrus.New()

	levelName, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		levelName = "info"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		Log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	default:
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	Log.SetOutput(os.Stdout)
}
