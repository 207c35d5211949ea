package tui

import (
	"fmt"
	"io"
	"time"

	tea "charm.land/bubbletea/v2"
)

// Displayer abstracts all user-facing output of the credential lifecycle.
type Displayer interface {
	TokensNotFound()
	TokenExpired()
	RefreshOK()
	RefreshFailed(err error)
	AuthURLReady(authURL, callbackAddr string)
	WaitingForCallback(deadline time.Time)
	AuthSuccess()
	Done(preview string, expiresIn time.Duration)
	Fatal(err error)
}

// PlainDisplayer writes plain text lines to w.
// Used when stderr is not a TTY and for non-interactive commands.
type PlainDisplayer struct {
	w io.Writer
}

// NewPlainDisplayer creates a PlainDisplayer that writes to w.
func NewPlainDisplayer(w io.Writer) *PlainDisplayer {
	return &PlainDisplayer{w: w}
}

func (p *PlainDisplayer) TokensNotFound() {
	fmt.Fprintln(p.w, "No stored credential, starting browser sign-in...")
}

func (p *PlainDisplayer) TokenExpired() {
	fmt.Fprintln(p.w, "Access token expired, refreshing...")
}

func (p *PlainDisplayer) RefreshOK() {
	fmt.Fprintln(p.w, "Token refreshed successfully!")
}

func (p *PlainDisplayer) RefreshFailed(err error) {
	fmt.Fprintf(p.w, "Refresh failed: %v\n", err)
	fmt.Fprintln(p.w, "Starting browser sign-in...")
}

func (p *PlainDisplayer) AuthURLReady(authURL, callbackAddr string) {
	fmt.Fprintln(p.w, "----------------------------------------")
	fmt.Fprintf(p.w, "Opening your browser to sign in. If it does not open, visit:\n%s\n", authURL)
	fmt.Fprintf(p.w, "\nListening for the redirect on %s\n", callbackAddr)
	fmt.Fprintln(p.w, "----------------------------------------")
}

func (p *PlainDisplayer) WaitingForCallback(deadline time.Time) {
	if deadline.IsZero() {
		fmt.Fprintln(p.w, "Waiting for authorization (Ctrl+C to abort)...")
		return
	}
	fmt.Fprintf(p.w, "Waiting for authorization until %s...\n", deadline.Format(time.Kitchen))
}

func (p *PlainDisplayer) AuthSuccess() {
	fmt.Fprintln(p.w, "Authorization successful!")
}

func (p *PlainDisplayer) Done(preview string, expiresIn time.Duration) {
	fmt.Fprintln(p.w, "========================================")
	fmt.Fprintf(p.w, "Access Token: %s...\n", preview)
	fmt.Fprintf(p.w, "Expires In: %s\n", expiresIn.Round(time.Second))
	fmt.Fprintln(p.w, "========================================")
}

func (p *PlainDisplayer) Fatal(err error) {
	fmt.Fprintf(p.w, "Error: %v\n", err)
}

// NoopDisplayer discards everything. Used in tests and by library callers.
type NoopDisplayer struct{}

func (NoopDisplayer) TokensNotFound()                {}
func (NoopDisplayer) TokenExpired()                  {}
func (NoopDisplayer) RefreshOK()                     {}
func (NoopDisplayer) RefreshFailed(_ error)          {}
func (NoopDisplayer) AuthURLReady(_, _ string)       {}
func (NoopDisplayer) WaitingForCallback(_ time.Time) {}
func (NoopDisplayer) AuthSuccess()                   {}
func (NoopDisplayer) Done(_ string, _ time.Duration) {}
func (NoopDisplayer) Fatal(_ error)                  {}

// ProgramDisplayer sends BubbleTea messages to a running tea.Program.
type ProgramDisplayer struct {
	p *tea.Program
}

// NewProgramDisplayer creates a ProgramDisplayer that sends messages to p.
func NewProgramDisplayer(p *tea.Program) *ProgramDisplayer {
	return &ProgramDisplayer{p: p}
}

func (t *ProgramDisplayer) TokensNotFound() {
	t.p.Send(MsgTokensNotFound{})
}

func (t *ProgramDisplayer) TokenExpired() {
	t.p.Send(MsgTokenExpired{})
}

func (t *ProgramDisplayer) RefreshOK() {
	t.p.Send(MsgRefreshOK{})
}

func (t *ProgramDisplayer) RefreshFailed(err error) {
	t.p.Send(MsgRefreshFailed{Err: err})
}

func (t *ProgramDisplayer) AuthURLReady(authURL, callbackAddr string) {
	t.p.Send(MsgAuthURLReady{AuthURL: authURL, CallbackAddr: callbackAddr})
}

func (t *ProgramDisplayer) WaitingForCallback(deadline time.Time) {
	t.p.Send(MsgWaitingForCallback{Deadline: deadline})
}

func (t *ProgramDisplayer) AuthSuccess() {
	t.p.Send(MsgAuthSuccess{})
}

func (t *ProgramDisplayer) Done(preview string, expiresIn time.Duration) {
	t.p.Send(MsgDone{Preview: preview, ExpiresIn: expiresIn})
}

func (t *ProgramDisplayer) Fatal(err error) {
	t.p.Send(MsgFatal{Err: err})
}
