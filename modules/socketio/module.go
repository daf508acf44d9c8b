package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/scheduler"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const defaultTimeout = 10 * time.Second

// ErrInvalidURL is returned for URLs without a scheme or host.
var ErrInvalidURL = errors.New("invalid socket.io URL")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the socketio runner.
type Input struct {
	URL                string             `cty:"url"`
	Event              string             `cty:"event"`
	Data               *map[string]string `cty:"data"`
	Namespace          *string            `cty:"namespace"`
	ReplyEvent         *string            `cty:"reply_event"`
	Timeout            *string            `cty:"timeout"`
	InsecureSkipVerify *bool              `cty:"insecure_skip_verify"`
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	reply any
	err   error
}

// Run connects to the server, emits Event with Data and, when ReplyEvent is
// set, waits for it. The whole exchange is bounded by Timeout.
func Run(tc scheduler.TaskContext, input *Input) error {
	logger := tc.Logger().With("runner", "socketio", "url", input.URL, "event", input.Event)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	parsedURL, err := url.Parse(input.URL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, input.URL)
	}

	timeout := defaultTimeout
	if input.Timeout != nil {
		timeout, err = time.ParseDuration(*input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", *input.Timeout, err)
		}
	}
	namespace := "/"
	if input.Namespace != nil {
		namespace = *input.Namespace
	}
	var payload map[string]string
	if input.Data != nil {
		payload = *input.Data
	}

	opCtx, cancel := context.WithTimeout(tc.Context(), timeout)
	defer cancel()

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if input.InsecureSkipVerify != nil && *input.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	var isConnected atomic.Bool
	// The client may reconnect and fire events more than once; only the
	// first result is kept.
	done := make(chan opResult, 1)
	report := func(res opResult) {
		select {
		case done <- res:
		default:
		}
	}

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		jsonData, _ := json.Marshal(payload)
		logger.Debug("Connected, emitting event.", "sid", io.Id(), "data", string(jsonData))
		io.Emit(input.Event, payload)
		if input.ReplyEvent == nil {
			report(opResult{})
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connection failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		report(opResult{err: fmt.Errorf("socket.io connection failed: %w", err)})
	})

	if input.ReplyEvent != nil {
		io.On(types.EventName(*input.ReplyEvent), func(data ...any) {
			var reply any
			if len(data) > 0 {
				reply = data[0]
			}
			report(opResult{reply: reply})
		})
	}

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() && input.ReplyEvent != nil {
			return fmt.Errorf("timed out after connecting while waiting for event '%s'", *input.ReplyEvent)
		}
		return errors.New("timed out while waiting for initial connection")
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		if res.reply != nil {
			logger.Debug("Reply received.", "reply", res.reply)
		}
		return nil
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("socketio", registry.Typed(Run))
}
