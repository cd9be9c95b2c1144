package bootstrap

import (
	"github.com/kbukum/lecturly/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig satisfies it through promoted methods, as
// long as its own ApplyDefaults and Validate cover the embedded config.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
