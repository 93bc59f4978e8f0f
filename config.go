package session

import (
	"github.com/viant/afs/url"
	"strings"
)

const (
	DefaultLoginPath    = "/api/login"
	DefaultRefreshPath  = "/api/refresh-token"
	DefaultResourcePath = "/api/protected-resource"
)

// Config defines the session API endpoints. Paths are relative to BaseURL unless they are absolute URLs.
type Config struct {
	BaseURL      string `yaml:"baseURL" json:"baseURL,omitempty" short:"u" long:"url" env:"SESSION_URL" description:"api base url"`
	LoginPath    string `yaml:"loginPath,omitempty" json:"loginPath,omitempty" long:"login-path" env:"SESSION_LOGIN_PATH" description:"login endpoint path"`
	RefreshPath  string `yaml:"refreshPath,omitempty" json:"refreshPath,omitempty" long:"refresh-path" env:"SESSION_REFRESH_PATH" description:"refresh token endpoint path"`
	ResourcePath string `yaml:"resourcePath,omitempty" json:"resourcePath,omitempty" long:"resource-path" env:"SESSION_RESOURCE_PATH" description:"protected resource path"`
}

// Init sets default paths
func (c *Config) Init() {
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
	if c.RefreshPath == "" {
		c.RefreshPath = DefaultRefreshPath
	}
	if c.ResourcePath == "" {
		c.ResourcePath = DefaultResourcePath
	}
}

func (c *Config) LoginURL() string {
	return c.URL(c.LoginPath)
}

func (c *Config) RefreshURL() string {
	return c.URL(c.RefreshPath)
}

func (c *Config) ResourceURL() string {
	return c.URL(c.ResourcePath)
}

// URL resolves path against BaseURL
func (c *Config) URL(path string) string {
	if strings.Contains(path, "://") || c.BaseURL == "" {
		return path
	}
	return url.Join(strings.TrimRight(c.BaseURL, "/"), strings.TrimLeft(path, "/"))
}
