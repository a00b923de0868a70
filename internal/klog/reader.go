package klog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"time"

	"github.com/consolewatch/backend/internal/metrics"
)

// Events receives the reader's lifecycle and line callbacks. Callbacks
// are invoked from the reader goroutine, one at a time, in arrival
// order; implementations must not block for long.
type Events interface {
	// HandleConnect is called once per established connection, before
	// any lines are delivered.
	HandleConnect()

	// HandleLine is called for every complete line, in arrival order.
	HandleLine(line string)

	// HandleSilence is called once per quiet stretch when no bytes have
	// arrived for the configured idle interval. The connection stays up.
	HandleSilence()

	// HandleDisconnect is called when the connection fails or closes.
	// err is the transport error, or nil for a clean remote close.
	HandleDisconnect(err error)
}

// Reader maintains a best-effort live connection to the console's debug
// log port and tails it line by line. Connection failures are retried
// with a fixed delay for the lifetime of the passed context.
type Reader struct {
	addr           string
	events         Events
	readTimeout    time.Duration // per-read deadline, doubles as liveness tick
	idleAfter      time.Duration // quiet interval before HandleSilence
	reconnectDelay time.Duration
	metrics        *metrics.Metrics
}

// ReaderConfig carries the reader's transport tuning. Zero fields fall
// back to the production defaults.
type ReaderConfig struct {
	ReadTimeout    time.Duration
	IdleAfter      time.Duration
	ReconnectDelay time.Duration
	Metrics        *metrics.Metrics
}

const (
	defaultReadTimeout    = 20 * time.Second
	defaultIdleAfter      = 120 * time.Second
	defaultReconnectDelay = 10 * time.Second
)

func NewReader(addr string, events Events, cfg ReaderConfig) *Reader {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = defaultIdleAfter
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	return &Reader{
		addr:           addr,
		events:         events,
		readTimeout:    cfg.ReadTimeout,
		idleAfter:      cfg.IdleAfter,
		reconnectDelay: cfg.ReconnectDelay,
		metrics:        cfg.Metrics,
	}
}

// Run connects, tails, and reconnects until ctx is cancelled. It always
// returns ctx.Err(); transport failures are reported through Events and
// retried. Cancellation unwinds within one read timeout.
func (r *Reader) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		dialer := net.Dialer{Timeout: r.readTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", r.addr)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[klog] connect %s: %v (retrying in %s)", r.addr, err, r.reconnectDelay)
			r.metrics.IncReconnects()
			r.events.HandleDisconnect(err)
			if !sleepCtx(ctx, r.reconnectDelay) {
				return ctx.Err()
			}
			continue
		}

		log.Printf("[klog] connected to %s", r.addr)
		err = r.consume(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Printf("[klog] connection lost: %v (retrying in %s)", err, r.reconnectDelay)
		r.metrics.IncReconnects()
		r.events.HandleDisconnect(err)
		if !sleepCtx(ctx, r.reconnectDelay) {
			return ctx.Err()
		}
	}
}

// consume tails one established connection until it fails or ctx is
// cancelled. Read timeouts are not errors: they are the liveness tick
// used to detect idle silence.
func (r *Reader) consume(ctx context.Context, conn net.Conn) error {
	r.events.HandleConnect()

	var (
		buf          []byte
		chunk        = make([]byte, 4096)
		lastData     = time.Now()
		idleSignaled = false
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := conn.SetReadDeadline(time.Now().Add(r.readTimeout)); err != nil {
			return err
		}
		n, err := conn.Read(chunk)
		if n > 0 {
			lastData = time.Now()
			idleSignaled = false
			buf = append(buf, chunk[:n]...)
			for {
				i := bytes.IndexByte(buf, '\n')
				if i < 0 {
					break
				}
				line := string(buf[:i])
				buf = buf[i+1:]
				r.events.HandleLine(line)
			}
		}
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				// Quiet connection. Signal silence once per stretch;
				// the next byte re-arms the signal.
				if !idleSignaled && time.Since(lastData) > r.idleAfter {
					idleSignaled = true
					r.events.HandleSilence()
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if !idleSignaled && time.Since(lastData) > r.idleAfter {
			idleSignaled = true
			r.events.HandleSilence()
		}
	}
}

// sleepCtx sleeps for d or until ctx is cancelled. Returns false when
// cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
