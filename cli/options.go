package cli

import (
	"github.com/viant/session"
	"time"
)

type Options struct {
	session.Config

	Username      string        `short:"n" long:"username" env:"SESSION_USERNAME" description:"login username"`
	Password      string        `short:"p" long:"password" env:"SESSION_PASSWORD" description:"login password"`
	SecretsURL    string        `short:"s" long:"secrets" description:"scy secret URL holding basic credentials"`
	EncryptionKey string        `short:"k" long:"key" description:"secret encryption key"`
	StoreURL      string        `short:"f" long:"store" env:"SESSION_STORE" description:"token store file URL, in memory when empty"`
	Path          string        `long:"path" description:"fetch path, protected resource path by default"`
	Timeout       time.Duration `short:"t" long:"timeout" default:"30s" description:"http timeout"`
	Verbose       bool          `short:"v" long:"verbose" description:"debug logging"`

	Args struct {
		Actions []string `positional-arg-name:"action" description:"login | fetch | refresh | state | logout"`
	} `positional-args:"yes"`
}

const (
	ActionLogin   = "login"
	ActionFetch   = "fetch"
	ActionRefresh = "refresh"
	ActionState   = "state"
	ActionLogout  = "logout"
)

// Actions returns requested actions, fetch when none were given
func (o *Options) Actions() []string {
	if len(o.Args.Actions) == 0 {
		return []string{ActionFetch}
	}
	return o.Args.Actions
}
