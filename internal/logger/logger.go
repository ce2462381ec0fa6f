package logger

import (
	"go.uber.org/zap"
)

// NewNamed builds a zap logger for the given environment with the service
// name attached to every entry. Development gets console output, everything
// else structured JSON.
func NewNamed(env, service string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Named(service), nil
}
