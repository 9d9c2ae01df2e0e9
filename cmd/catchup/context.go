package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"catchup/internal/api"
	"catchup/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// apiBaseURL resolves the daemon endpoint from the --api flag or the
// configured bind address.
func (c *commandContext) apiBaseURL() string {
	if c.apiFlag != nil {
		if base := strings.TrimSpace(*c.apiFlag); base != "" {
			return normalizeBaseURL(base)
		}
	}
	if cfg := c.configValue(); cfg != nil {
		if bind := strings.TrimSpace(cfg.Paths.APIBind); bind != "" {
			return normalizeBaseURL(bind)
		}
	}
	return normalizeBaseURL(config.Default().Paths.APIBind)
}

func normalizeBaseURL(base string) string {
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/")
}

func (c *commandContext) withClient(fn func(*api.Client) error) error {
	base := c.apiBaseURL()
	if err := fn(api.NewClient(base)); err != nil {
		return wrapAPIError(err, base)
	}
	return nil
}

func wrapAPIError(err error, base string) error {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon at %s: connection refused; start it with `catchup serve`", base)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("daemon at %s did not respond in time: %w", base, err)
	default:
		return err
	}
}

// isConnectionError reports whether err looks like the daemon being
// unreachable rather than an API-level failure.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
