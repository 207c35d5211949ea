package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xtvctl/xtv/config"
	"github.com/xtvctl/xtv/output"
	"github.com/xtvctl/xtv/transport"
	"github.com/xtvctl/xtv/tui"
	"github.com/xtvctl/xtv/xtv"
)

const tokenPreviewLen = 50

// runtimeState carries flag values and process collaborators into the commands.
type runtimeState struct {
	configDir string
	device    string
	output    string
	verbose   bool

	env    config.Env
	base   *http.Client
	stdout io.Writer
	stderr io.Writer
	tty    bool

	logger      func(verbose bool) *zap.Logger
	openBrowser func(url string) error

	log    *zap.Logger
	http   transport.Clients
	format output.Format
}

func newRootCommand(rt *runtimeState) *cobra.Command {
	root := &cobra.Command{
		Use:           "xtv",
		Short:         "Control your TV from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			rt.verbose = rt.verbose || rt.env.Verbose
			rt.log = zap.NewNop()
			if rt.logger != nil {
				rt.log = rt.logger(rt.verbose)
			}
			clients, err := transport.New(rt.base, rt.log)
			if err != nil {
				return fmt.Errorf("failed to create retry client: %w", err)
			}
			rt.http = clients

			format, err := output.ParseFormat(config.Pick(rt.output, string(output.FormatTable)))
			if err != nil {
				return err
			}
			rt.format = format

			if rt.configDir == "" {
				rt.configDir = rt.env.ConfigDir
			}
			if rt.configDir == "" {
				dir, err := config.DefaultDir()
				if err != nil {
					return err
				}
				rt.configDir = dir
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.configDir, "config-dir", "", "Directory holding config.yaml and the directory snapshots")
	root.PersistentFlags().StringVar(&rt.device, "device", "", "Device to act on (default \""+config.DefaultDevice+"\")")
	root.PersistentFlags().StringVarP(&rt.output, "output", "o", "", "Output format: table, json, yaml")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newChannelsCommand(rt),
		newDevicesCommand(rt),
		newRecordingsCommand(rt),
		newSearchCommand(rt),
		newTokenCommand(rt),
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newTuneCommand(rt),
		newKeyCommand(rt, "play", "Resume playback", xtv.KeyPlay),
		newKeyCommand(rt, "pause", "Pause playback", xtv.KeyPause),
		newKeyCommand(rt, "stop", "Stop playback", xtv.KeyStop),
		newKeyCommand(rt, "ff", "Fast forward", xtv.KeyFastForward),
		newKeyCommand(rt, "rew", "Rewind", xtv.KeyRewind),
		newKeyCommand(rt, "exit", "Leave the current screen", xtv.KeyExit),
	)
	return root
}

// sessionFunc runs one command against an open session.
type sessionFunc func(ctx context.Context, s *xtv.Session, d tui.Displayer) error

// withSession opens the session, runs fn, and flushes whatever fn left
// behind. Flush failures are logged and do not fail the command. With
// interactive set and a terminal on stderr the authorization flow renders
// through bubbletea.
func (rt *runtimeState) withSession(cmd *cobra.Command, interactive bool, fn sessionFunc) error {
	var (
		display tui.Displayer = tui.NewPlainDisplayer(rt.stderr)
		fatal                 = func(error) {}
		finish                = func() {}
	)
	if interactive && rt.tty {
		// WithInput(nil): disable stdin/keyboard input so BubbleTea skips terminal
		// capability queries (?2026/?2027). Ctrl+C is handled by signal.NotifyContext.
		p := tea.NewProgram(tui.NewModel(), tea.WithOutput(rt.stderr), tea.WithInput(nil))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Run(); err != nil {
				fmt.Fprintf(rt.stderr, "TUI error: %v\n", err)
			}
		}()

		d := tui.NewProgramDisplayer(p)
		display = d
		fatal = d.Fatal
		finish = func() {
			p.Quit() // let BubbleTea drain terminal query responses before exiting
			wg.Wait()
		}
	}
	defer finish()

	s, err := xtv.OpenSession(xtv.SessionOptions{
		Dir:         rt.configDir,
		Env:         rt.env,
		Device:      rt.device,
		HTTP:        rt.http,
		Display:     display,
		Log:         rt.log,
		OpenBrowser: rt.openBrowser,
	})
	if err != nil {
		fatal(err)
		return err
	}

	runErr := fn(cmd.Context(), s, display)
	if runErr != nil {
		fatal(runErr)
	}
	if err := s.Flush(); err != nil {
		rt.log.Warn("could not persist state", zap.Error(err))
	}
	return runErr
}

// device resolves the session's device through the device directory.
func device(ctx context.Context, s *xtv.Session) (xtv.Device, error) {
	return s.Client.LookupDevice(ctx, s.Device())
}

func newChannelsCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List channels by call sign",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withSession(cmd, false, func(ctx context.Context, s *xtv.Session, _ tui.Displayer) error {
				channels, err := s.Client.Channels(ctx)
				if err != nil {
					return err
				}
				if rt.format == output.FormatTable {
					output.WriteChannelTable(rt.stdout, channels)
					return nil
				}
				return output.WriteObject(rt.stdout, rt.format, channels)
			})
		},
	}
}

func newDevicesCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices on the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withSession(cmd, false, func(ctx context.Context, s *xtv.Session, _ tui.Displayer) error {
				devices, err := s.Client.Devices(ctx)
				if err != nil {
					return err
				}
				if rt.format == output.FormatTable {
					output.WriteDeviceTable(rt.stdout, devices)
					return nil
				}
				return output.WriteObject(rt.stdout, rt.format, devices.Sorted())
			})
		},
	}
}

func newRecordingsCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "recordings",
		Short: "List completed recordings on the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withSession(cmd, false, func(ctx context.Context, s *xtv.Session, _ tui.Displayer) error {
				d, err := device(ctx, s)
				if err != nil {
					return err
				}
				recordings, err := s.Client.Recordings(ctx, d)
				if err != nil {
					return err
				}
				if rt.format == output.FormatTable {
					output.WriteRecordingTable(rt.stdout, recordings)
					return nil
				}
				return output.WriteObject(rt.stdout, rt.format, recordings)
			})
		},
	}
}

func newSearchCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withSession(cmd, false, func(ctx context.Context, s *xtv.Session, _ tui.Displayer) error {
				results, err := s.Client.Search(ctx, args[0])
				if err != nil {
					return err
				}
				if rt.format == output.FormatTable {
					output.WriteSearchTable(rt.stdout, results)
					return nil
				}
				return output.WriteObject(rt.stdout, rt.format, results)
			})
		},
	}
}

func newTokenCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token, signing in if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withSession(cmd, true, func(ctx context.Context, s *xtv.Session, d tui.Displayer) error {
				cred, err := s.Client.Token(ctx)
				if err != nil {
					return err
				}
				d.Done(cred.Preview(tokenPreviewLen), time.Until(cred.Expiry))
				_, err = fmt.Fprintln(rt.stdout, cred.Access)
				return err
			})
		},
	}
}

func newLoginCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser, replacing any stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withSession(cmd, true, func(ctx context.Context, s *xtv.Session, d tui.Displayer) error {
				cred, err := s.Auth.Reauthenticate(ctx)
				if err != nil {
					return err
				}
				d.Done(cred.Preview(tokenPreviewLen), time.Until(cred.Expiry))
				return nil
			})
		},
	}
}

func newLogoutCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential and cached directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withSession(cmd, false, func(_ context.Context, s *xtv.Session, _ tui.Displayer) error {
				s.Logout()
				_, err := fmt.Fprintln(rt.stderr, "Logged out.")
				return err
			})
		},
	}
}

func newTuneCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "tune <channel|recording|vod> <id>",
		Short: "Tune the device to a channel, recording or on-demand title",
		Long: "Tune the device. A channel is given by number or call sign; " +
			"recordings and on-demand titles by media id.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := xtv.ParseTuningTarget(args[0])
			if err != nil {
				return err
			}
			return rt.withSession(cmd, false, func(ctx context.Context, s *xtv.Session, _ tui.Displayer) error {
				d, err := device(ctx, s)
				if err != nil {
					return err
				}
				return s.Client.Tune(ctx, target, args[1], d)
			})
		},
	}
}

func newKeyCommand(rt *runtimeState, use, short string, key xtv.KeyCode) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withSession(cmd, false, func(ctx context.Context, s *xtv.Session, _ tui.Displayer) error {
				d, err := device(ctx, s)
				if err != nil {
					return err
				}
				return s.Client.PressKey(ctx, key, d)
			})
		},
	}
}
