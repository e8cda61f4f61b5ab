// Package autoload initializes the global logger from the LOGGER_* environment
// on blank import, so binaries get structured logs before any wiring runs.
package autoload

import (
	configx "github.com/supperclub/concierge/pkg/config"
	logx "github.com/supperclub/concierge/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOGGER")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*conf)
}
