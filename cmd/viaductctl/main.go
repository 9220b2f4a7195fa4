// viaductctl joins a WAMP realm over the raw-socket transport and
// publishes a fixed argument list on an interval until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/viaduct/internal/config"
	"github.com/danmuck/viaduct/internal/logging"
	"github.com/danmuck/viaduct/internal/observability"
	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/danmuck/viaduct/internal/protocol/session"
	"github.com/danmuck/viaduct/internal/protocol/wamp"
	"github.com/danmuck/viaduct/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

// goodbyeWait bounds how long shutdown waits for the router's GOODBYE.
const goodbyeWait = time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "viaductctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		initKind   string
		force      bool
	)
	cfg := config.DefaultClientConfig()

	flagSet := pflag.NewFlagSet("viaductctl", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a TOML client config")
	flagSet.StringVar(&initKind, "init", "", "write a config template of this kind (client|subscriber) to --config and exit")
	flagSet.BoolVar(&force, "force", false, "overwrite an existing config with --init")
	flagSet.StringVar(&cfg.Addr, "addr", cfg.Addr, "router address host:port")
	flagSet.StringVar(&cfg.Realm, "realm", cfg.Realm, "realm to join")
	flagSet.StringVar(&cfg.Serialization, "serialization", cfg.Serialization, "msgpack|cbor")
	flagSet.StringVar(&cfg.Transport, "transport", cfg.Transport, "conn|fd")
	flagSet.StringVar(&cfg.Publish.Topic, "topic", cfg.Publish.Topic, "topic to publish on; empty disables publishing")
	flagSet.DurationVar(&cfg.Publish.Interval, "interval", cfg.Publish.Interval, "publish interval")
	flagSet.StringSliceVar(&cfg.Subscribe, "subscribe", nil, "topics to subscribe to")
	flagSet.StringVar(&cfg.Admin.Addr, "admin-addr", cfg.Admin.Addr, "admin HTTP listen address; empty disables it")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if initKind != "" {
		if configPath == "" {
			return fmt.Errorf("--init requires --config")
		}
		return config.WriteTemplate(configPath, initKind, force)
	}

	if configPath != "" {
		loaded, err := config.LoadClientConfig(configPath)
		if err != nil {
			return err
		}
		cfg = overrideFromFlags(flagSet, loaded, cfg)
	}
	if err := config.ValidateClientConfig(cfg); err != nil {
		return err
	}

	logging.ConfigureRuntime()
	logger := logging.Component("viaductctl")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer := observability.NewSessionObserver(cfg.Name)
	if cfg.Admin.Addr != "" {
		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:              cfg.Admin.Addr,
			Handler:           observability.NewAdminRouter(observability.AdminConfig{Node: cfg.Name, CorsOrigins: cfg.Admin.CorsOrigins, Token: cfg.Admin.Token}, logging.Component("admin"), observer),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", cfg.Admin.Addr).Msg("viaductctl admin server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info().Str("addr", cfg.Admin.Addr).Msg("viaductctl admin listening")
	}

	dialer, err := transport.NewDialer(cfg.DialConfig(logging.Component("transport")))
	if err != nil {
		return err
	}
	stream, err := dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}
	defer stream.Close()

	c := &client{realm: cfg.Realm, log: logger, observer: observer}
	scfg, err := cfg.SessionConfig(logging.Component("session"))
	if err != nil {
		return err
	}
	scfg.Observer = observer
	scfg.Handler = c.dispatcher()

	s, err := session.Negotiate(stream, scfg)
	observability.RecordHandshake(cfg.Name, err)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	logger.Info().
		Str("addr", cfg.Addr).
		Str("serializer", s.Serializer().Name()).
		Int("max_frame", s.MaxFrameSize()).
		Msg("viaductctl negotiated")

	if err := join(s, c, cfg); err != nil {
		return err
	}
	if err := stream.SetNonBlocking(true); err != nil {
		return err
	}
	for _, topic := range cfg.Subscribe {
		if _, err := s.Subscribe(topic, nil); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	return loop(ctx, s, c, cfg, transport.Mode(cfg.Transport))
}

// join sends HELLO and blocks until WELCOME or ABORT.
func join(s *session.Session, c *client, cfg config.ClientConfig) error {
	if err := s.Hello(cfg.Realm, cfg.WampRoles()...); err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	for c.state == joinPending {
		delivered, err := s.Pump()
		if err != nil && !delivered {
			return fmt.Errorf("waiting for welcome: %w", err)
		}
		if err != nil {
			c.log.Warn().Err(err).Msg("viaductctl dropped message")
		}
	}
	if c.state != joinWelcomed {
		return fmt.Errorf("join %s refused: %s", cfg.Realm, c.reason)
	}
	return nil
}

func loop(ctx context.Context, s *session.Session, c *client, cfg config.ClientConfig, mode transport.Mode) error {
	var tick <-chan time.Time
	if cfg.Publish.Topic != "" {
		ticker := time.NewTicker(cfg.Publish.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	args := cfg.Publish.ArgList()
	options := cfg.Publish.Options()

	for {
		select {
		case <-ctx.Done():
			return leave(s, c, mode, cfg.PollInterval)
		case <-tick:
			id, err := s.Publish(cfg.Publish.Topic, options, args, nil)
			if err != nil {
				return fmt.Errorf("publish: %w", err)
			}
			c.log.Debug().Uint64("request", id).Str("topic", cfg.Publish.Topic).Msg("viaductctl publish")
		default:
		}

		delivered, err := s.Pump()
		if err != nil {
			if !delivered {
				return err
			}
			c.log.Warn().Err(err).Msg("viaductctl dropped message")
		}
		if c.state == joinClosed {
			return s.Goodbye(wamp.ReasonGoodbyeAndOut)
		}
		if !delivered {
			idle(mode, cfg.PollInterval)
		}
	}
}

// leave sends GOODBYE and waits briefly for the router's reply.
func leave(s *session.Session, c *client, mode transport.Mode, poll time.Duration) error {
	if err := s.Goodbye(wamp.ReasonSystemShutdown); err != nil {
		return err
	}
	deadline := time.Now().Add(goodbyeWait)
	for c.state != joinClosed && time.Now().Before(deadline) {
		delivered, err := s.Pump()
		if err != nil && !delivered {
			if errors.Is(err, protocol.ErrFrameTooLarge) || errors.Is(err, protocol.ErrUnknownFrameKind) {
				return err
			}
			return nil
		}
		if !delivered {
			idle(mode, poll)
		}
	}
	return nil
}

// idle sleeps between empty polls on the fd transport; a Conn read
// already waits out its poll interval.
func idle(mode transport.Mode, poll time.Duration) {
	if mode == transport.ModeFD {
		time.Sleep(poll)
	}
}

// overrideFromFlags keeps explicitly set flags over values from the file.
func overrideFromFlags(fs *pflag.FlagSet, loaded, flags config.ClientConfig) config.ClientConfig {
	if fs.Changed("addr") {
		loaded.Addr = flags.Addr
	}
	if fs.Changed("realm") {
		loaded.Realm = flags.Realm
	}
	if fs.Changed("serialization") {
		loaded.Serialization = flags.Serialization
	}
	if fs.Changed("transport") {
		loaded.Transport = flags.Transport
	}
	if fs.Changed("topic") {
		loaded.Publish.Topic = flags.Publish.Topic
	}
	if fs.Changed("interval") {
		loaded.Publish.Interval = flags.Publish.Interval
	}
	if fs.Changed("subscribe") {
		loaded.Subscribe = flags.Subscribe
	}
	if fs.Changed("admin-addr") {
		loaded.Admin.Addr = flags.Admin.Addr
	}
	return loaded
}
