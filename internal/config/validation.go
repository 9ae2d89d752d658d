package config

import (
	"fmt"
	"strings"

	berrors "git.home.luguber.info/inful/blogbuilder/internal/errors"
)

const maxPort = 65535

// Validate checks ports, durations and the live-reload status path.
func (c *Config) Validate() error {
	if err := validatePort("server.port", c.Server.Port, false); err != nil {
		return err
	}
	if err := validatePort("server.metrics_port", c.Server.MetricsPort, true); err != nil {
		return err
	}
	if c.Server.MetricsPort != 0 && c.Server.MetricsPort == c.Server.Port {
		return berrors.ValidationFailed("server.metrics_port", "must differ from server.port")
	}
	if c.LiveReload.PollInterval <= 0 {
		return berrors.ValidationFailed("live_reload.poll_interval", "must be positive")
	}
	if c.LiveReload.Cooldown <= 0 {
		return berrors.ValidationFailed("live_reload.cooldown", "must be positive")
	}
	if c.LiveReload.QueueSize <= 0 {
		return berrors.ValidationFailed("live_reload.queue_size", "must be positive")
	}
	if p := c.LiveReload.StatusPath; !strings.HasPrefix(p, "/") || p == "/" || strings.ContainsAny(p, " {}") {
		return berrors.ValidationFailed("live_reload.status_path", fmt.Sprintf("invalid path %q", p))
	}
	return nil
}

func validatePort(field string, port int, allowZero bool) error {
	if allowZero && port == 0 {
		return nil
	}
	if port < 1 || port > maxPort {
		return berrors.ValidationFailed(field, fmt.Sprintf("port %d out of range", port))
	}
	return nil
}
