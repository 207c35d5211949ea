package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xtvctl/xtv/fault"
)

const (
	callbackReadHeaderTimeout = 10 * time.Second
	callbackShutdownTimeout   = 5 * time.Second
)

// exchangeFunc turns the code from the redirect into a credential.
type exchangeFunc func(ctx context.Context, code string) (*Credential, error)

type callbackResult struct {
	cred *Credential
	err  error
}

// callbackListener serves exactly one authorization redirect. The first
// request that carries the expected state claims it; any later request gets
// 410 until the server is down and connection refused after.
type callbackListener struct {
	ctx      context.Context
	state    string
	exchange exchangeFunc
	log      *zap.Logger

	srv     *http.Server
	claimed atomic.Bool
	deliver sync.Once
	result  chan callbackResult
	done    chan struct{}
}

// serveCallback starts serving path on ln. The exchange runs under ctx, not
// the request context, so a slow provider is bounded by the flow alone.
func serveCallback(
	ctx context.Context,
	ln net.Listener,
	path, state string,
	exchange exchangeFunc,
	log *zap.Logger,
) *callbackListener {
	l := &callbackListener{
		ctx:      ctx,
		state:    state,
		exchange: exchange,
		log:      log,
		result:   make(chan callbackResult, 1),
		done:     make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Get(path, l.handle)
	l.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: callbackReadHeaderTimeout,
	}

	go func() {
		defer close(l.done)
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.finish(callbackResult{err: fault.Wrap(fault.Network, "serve authorization callback", err)})
		}
	}()

	return l
}

func (l *callbackListener) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("state") != l.state {
		l.log.Warn("callback with unexpected state", zap.String("remote", r.RemoteAddr))
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}
	providerErr := q.Get("error")
	code := q.Get("code")
	if providerErr == "" && code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}
	if !l.claimed.CompareAndSwap(false, true) {
		http.Error(w, "authorization already handled", http.StatusGone)
		return
	}

	var res callbackResult
	if providerErr != "" {
		res.err = fault.New(fault.Auth, "authorize",
			"provider returned %s: %s", providerErr, q.Get("error_description"))
	} else {
		res.cred, res.err = l.exchange(l.ctx, code)
	}

	if res.err != nil {
		http.Error(w, "Sign-in failed. Return to the terminal for details.", http.StatusUnauthorized)
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Signed in to xtv. You can close this window.\n"))
	}

	// The result is handed off before the server is asked to stop.
	l.finish(res)
	go l.shutdown()
}

func (l *callbackListener) finish(res callbackResult) {
	l.deliver.Do(func() {
		l.result <- res
	})
}

// wait blocks for the callback outcome. A zero timeout waits until ctx ends.
func (l *callbackListener) wait(ctx context.Context, timeout time.Duration) (*Credential, error) {
	const op = "await authorization callback"

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-l.result:
		return res.cred, res.err
	case <-ctx.Done():
		return nil, fault.Wrap(fault.Auth, op, ctx.Err())
	case <-expired:
		return nil, fault.New(fault.Auth, op, "no callback received within %s", timeout)
	}
}

func (l *callbackListener) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), callbackShutdownTimeout)
	defer cancel()
	if err := l.srv.Shutdown(ctx); err != nil {
		l.log.Debug("callback listener did not stop cleanly", zap.Error(err))
		_ = l.srv.Close()
	}
}

// close stops the server and returns once the port is released.
func (l *callbackListener) close() {
	l.shutdown()
	<-l.done
}
