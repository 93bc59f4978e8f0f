package cli

import (
	"context"
	"fmt"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	"github.com/viant/session"
	"github.com/viant/session/auth"
	"github.com/viant/session/store"
	"io"
	"net/http"
	"os"
)

// Service executes command line actions against a session
type Service struct {
	options *Options
	session *session.Session
	out     io.Writer
}

// Run parses args and executes requested actions, writing results to stdout
func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	ctx := context.Background()
	srv, err := New(ctx, options, os.Stdout)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// Run executes actions in order, stopping at the first failure
func (s *Service) Run(ctx context.Context) error {
	for _, action := range s.options.Actions() {
		if err := s.run(ctx, action); err != nil {
			return fmt.Errorf("%s: %w", action, err)
		}
	}
	return nil
}

func (s *Service) run(ctx context.Context, action string) error {
	switch action {
	case ActionLogin:
		credentials, err := s.credentials(ctx)
		if err != nil {
			return err
		}
		if _, err = s.session.Login(ctx, credentials); err != nil {
			return err
		}
		_, err = fmt.Fprintln(s.out, "logged in")
		return err
	case ActionFetch:
		path := s.options.Path
		if path == "" {
			path = s.session.Config().ResourcePath
		}
		resp, err := s.session.Get(ctx, path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(s.out, string(resp.Body))
		return err
	case ActionRefresh:
		if _, err := s.session.Refresh(ctx); err != nil {
			return err
		}
		_, err := fmt.Fprintln(s.out, "refreshed")
		return err
	case ActionState:
		_, err := fmt.Fprintln(s.out, s.session.State().String())
		return err
	case ActionLogout:
		if err := s.session.Logout(ctx); err != nil {
			return err
		}
		_, err := fmt.Fprintln(s.out, "logged out")
		return err
	}
	return fmt.Errorf("unsupported action, expected one of: %s, %s, %s, %s, %s",
		ActionLogin, ActionFetch, ActionRefresh, ActionState, ActionLogout)
}

// credentials returns flag credentials, or loads them from scy secret
func (s *Service) credentials(ctx context.Context) (*auth.Credentials, error) {
	if s.options.SecretsURL == "" {
		if s.options.Username == "" {
			return nil, fmt.Errorf("username was empty")
		}
		return &auth.Credentials{Username: s.options.Username, Password: s.options.Password}, nil
	}
	resource := scy.NewResource(&cred.Basic{}, s.options.SecretsURL, s.options.EncryptionKey)
	secret, err := scy.New().Load(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to load secret %v: %w", s.options.SecretsURL, err)
	}
	basic, ok := secret.Target.(*cred.Basic)
	if !ok {
		return nil, fmt.Errorf("unexpected secret type: %T", secret.Target)
	}
	return auth.CredentialsFromBasic(basic), nil
}

func logger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// New creates a command service
func New(ctx context.Context, options *Options, out io.Writer) (*Service, error) {
	if options.BaseURL == "" {
		return nil, fmt.Errorf("url was empty")
	}
	sessionOptions := []session.Option{
		session.WithLogger(logger(options.Verbose)),
		session.WithHTTPClient(&http.Client{Timeout: options.Timeout}),
	}
	if options.StoreURL != "" {
		sessionOptions = append(sessionOptions, session.WithStore(store.New(store.NewFileKV(options.StoreURL))))
	}
	aSession, err := session.New(ctx, &options.Config, sessionOptions...)
	if err != nil {
		return nil, err
	}
	return &Service{options: options, session: aSession, out: out}, nil
}
