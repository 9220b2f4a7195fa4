package transport

import (
	"context"
	"crypto/tls"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DialConfig defines how a Stream is established.
type DialConfig struct {
	Address          string
	Mode             Mode
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	// ReadTimeout bounds blocking reads on a Conn stream.
	ReadTimeout  time.Duration
	PollInterval time.Duration
	TLS          TLSConfig
	Backoff      BackoffConfig
	// MaxConnectAttempts <= 0 retries until ctx is done.
	MaxConnectAttempts int
	Logger             zerolog.Logger
}

// DefaultDialConfig returns a plain TCP Conn dial with retry defaults.
func DefaultDialConfig() DialConfig {
	return DialConfig{
		Mode:               ModeConn,
		ConnectTimeout:     5 * time.Second,
		HandshakeTimeout:   5 * time.Second,
		ReadTimeout:        15 * time.Second,
		PollInterval:       DefaultPollInterval,
		Backoff:            DefaultBackoff(),
		MaxConnectAttempts: 5,
		Logger:             zerolog.Nop(),
	}
}

// Validate checks the address, mode and TLS settings.
func (c DialConfig) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return ErrAddressRequired
	}
	switch c.Mode {
	case ModeConn:
	case ModeFD:
		if c.TLS.Enabled {
			return ErrTLSUnsupported
		}
	default:
		return ErrInvalidMode
	}
	return c.TLS.Validate()
}

// Dialer opens streams with retry and backoff.
type Dialer struct {
	cfg DialConfig
	rng *rand.Rand
	log zerolog.Logger
}

func NewDialer(cfg DialConfig) (*Dialer, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeConn
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Dialer{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		log: cfg.Logger.With().Str("component", "transport").Logger(),
	}, nil
}

// Dial connects, retrying failed attempts with backoff. The returned
// stream is in blocking mode.
func (d *Dialer) Dial(ctx context.Context) (Stream, error) {
	var attempt int
	for {
		attempt++
		stream, err := d.dialOnce(ctx)
		if err == nil {
			d.log.Debug().Str("addr", d.cfg.Address).Str("mode", string(d.cfg.Mode)).Int("attempt", attempt).Msg("transport.Dial connected")
			return stream, nil
		}
		d.log.Warn().Err(err).Str("addr", d.cfg.Address).Int("attempt", attempt).Msg("transport.Dial attempt failed")
		if !d.shouldRetry(attempt) {
			return nil, err
		}
		if err := d.sleepBackoff(ctx, attempt); err != nil {
			return nil, err
		}
	}
}

func (d *Dialer) dialOnce(ctx context.Context) (Stream, error) {
	if d.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.ConnectTimeout)
		defer cancel()
	}
	if d.cfg.Mode == ModeFD {
		fd, err := DialFD(ctx, d.cfg.Address)
		if err != nil {
			return nil, err
		}
		return fd, nil
	}

	dialer := net.Dialer{Timeout: d.cfg.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", d.cfg.Address)
	if err != nil {
		return nil, err
	}
	conn := rawConn
	if d.cfg.TLS.Enabled {
		tlsCfg, err := d.cfg.TLS.ClientConfig(d.cfg.Address)
		if err != nil {
			_ = rawConn.Close()
			return nil, err
		}
		tlsConn := tls.Client(rawConn, tlsCfg)
		handshakeCtx := ctx
		if d.cfg.HandshakeTimeout > 0 {
			var cancel context.CancelFunc
			handshakeCtx, cancel = context.WithTimeout(ctx, d.cfg.HandshakeTimeout)
			defer cancel()
		}
		if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
			_ = rawConn.Close()
			return nil, err
		}
		conn = tlsConn
	}
	c := NewConn(conn, d.cfg.ReadTimeout)
	c.SetPollInterval(d.cfg.PollInterval)
	return c, nil
}

func (d *Dialer) shouldRetry(attempt int) bool {
	if d.cfg.MaxConnectAttempts <= 0 {
		return true
	}
	return attempt < d.cfg.MaxConnectAttempts
}

func (d *Dialer) sleepBackoff(ctx context.Context, attempt int) error {
	delay := NextBackoffDelay(d.cfg.Backoff, attempt, d.rng)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
