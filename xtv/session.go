package xtv

import (
	"errors"

	"go.uber.org/zap"

	"github.com/xtvctl/xtv/auth"
	"github.com/xtvctl/xtv/config"
	"github.com/xtvctl/xtv/directory"
	"github.com/xtvctl/xtv/transport"
	"github.com/xtvctl/xtv/tui"
)

// SessionOptions are the inputs resolved before a session opens.
type SessionOptions struct {
	Dir    string
	Env    config.Env
	Device string // --device flag, empty when unset

	HTTP    transport.Clients
	Display tui.Displayer
	Log     *zap.Logger

	// OpenBrowser replaces the platform URL opener.
	OpenBrowser func(url string) error
}

// Session owns everything one command invocation touches: the config
// document, the credential, and the API client with its directories. Flush
// writes all of it back.
type Session struct {
	Paths  config.Paths
	Config *config.Config // effective: file, then env and flags
	Auth   *auth.Manager
	Client *Client

	file     *config.Config // as stored, without env or flag overrides
	creds    auth.CredentialStore
	channels *directory.FileStore[ChannelMap]
	devices  *directory.FileStore[DeviceMap]
	log      *zap.Logger

	loggedOut bool
}

// OpenSession loads the config document in opts.Dir, applies overrides,
// validates the result, and wires the credential manager and API client.
func OpenSession(opts SessionOptions) (*Session, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	display := opts.Display
	if display == nil {
		display = tui.NoopDisplayer{}
	}

	paths := config.Paths{Dir: opts.Dir}
	file, err := config.Load(paths.Config())
	if err != nil {
		return nil, err
	}

	eff := *file
	opts.Env.Apply(&eff)
	eff.Settings.Device = config.Pick(opts.Device, eff.Settings.Device, config.DefaultDevice)
	if err := eff.Validate(); err != nil {
		return nil, err
	}

	var (
		creds auth.CredentialStore
		// A token written while file storage was selected; it moves to the
		// keyring and out of the document.
		leftover *auth.Credential
	)
	switch eff.Settings.TokenStorage {
	case config.TokenStorageKeyring:
		creds = auth.NewKeyringStore(eff.OAuth.Creds.ClientID)
		leftover, file.Token = file.Token, nil
	default:
		creds = config.NewTokenStore(file)
	}
	initial, err := creds.Load()
	if err != nil {
		log.Warn("stored credential unavailable", zap.Error(err))
		initial = nil
	}
	if initial == nil && leftover.Complete() {
		log.Debug("moving credential from config document to keyring")
		initial = leftover
	}

	tokens := auth.NewTokenEndpoint(eff.ClientConfig(), opts.HTTP)
	flow := &auth.AuthorizationFlow{
		Tokens:      tokens,
		ListenAddr:  eff.Settings.CallbackAddr,
		Timeout:     eff.Settings.AuthTimeout,
		OpenBrowser: opts.OpenBrowser,
		Display:     display,
		Log:         log,
	}
	manager := auth.NewManager(initial, flow, tokens,
		auth.WithDisplayer(display),
		auth.WithLogger(log),
	)

	channels := directory.NewFileStore[ChannelMap](paths.Channels())
	devices := directory.NewFileStore[DeviceMap](paths.Devices())
	client := NewClient(eff.APIHost, opts.HTTP, manager,
		WithLogger(log),
		WithChannelStore(channels),
		WithDeviceStore(devices),
	)

	return &Session{
		Paths:    paths,
		Config:   &eff,
		Auth:     manager,
		Client:   client,
		file:     file,
		creds:    creds,
		channels: channels,
		devices:  devices,
		log:      log,
	}, nil
}

// Device is the name of the device commands act on.
func (s *Session) Device() string {
	return s.Config.Settings.Device
}

// Logout forgets the credential along with the account's channel and device
// snapshots. The stored copies are removed at Flush.
func (s *Session) Logout() {
	s.Auth.Clear()
	s.loggedOut = true
}

// Flush persists, in order, the credential, the config document, the
// channel directory and the device directory. After Logout the directory
// snapshots are deleted instead. Every step runs; the errors are joined.
func (s *Session) Flush() error {
	var errs []error

	if cred := s.Auth.Current(); cred != nil {
		errs = append(errs, s.creds.Save(cred))
	} else {
		errs = append(errs, s.creds.Clear())
	}

	errs = append(errs, config.Save(s.Paths.Config(), s.file))

	if s.loggedOut {
		errs = append(errs, s.channels.Clear(), s.devices.Clear())
	} else {
		chErr, devErr := s.Client.FlushDirectories()
		errs = append(errs, chErr, devErr)
	}

	err := errors.Join(errs...)
	if err != nil {
		s.log.Debug("flush incomplete", zap.Error(err))
	}
	return err
}
