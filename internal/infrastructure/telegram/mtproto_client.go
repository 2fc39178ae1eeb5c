package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/estateflow/publisher/internal/domain"
)

// maskPhone masks a phone number for logging (keeps first 2 and last 2 digits)
func maskPhone(phone string) string {
	if len(phone) < 4 {
		return "***"
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}

// mtprotoClient wraps one account's gotd session: connection lifecycle, API
// access and a per-client request limiter.
type mtprotoClient struct {
	client *telegram.Client
	api    *tg.Client
	phone  string

	connected  bool
	mu         sync.RWMutex
	cancelFunc context.CancelFunc
	runDone    chan struct{}

	rateLimiter *rate.Limiter
	logger      zerolog.Logger
}

// newMTProtoClient creates a client for one account phone. The session is
// restored from sessionDir; accounts are logged in by the separate connection
// flow, this engine only reuses existing sessions.
func newMTProtoClient(apiID int, apiHash, phone, sessionDir string, logger zerolog.Logger) *mtprotoClient {
	storage := &session.FileStorage{
		Path: filepath.Join(sessionDir, phone+".session"),
	}

	c := &mtprotoClient{
		phone:       phone,
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
		logger:      logger.With().Str("component", "mtproto_client").Str("phone", maskPhone(phone)).Logger(),
	}
	c.client = telegram.NewClient(apiID, apiHash, telegram.Options{
		SessionStorage: storage,
	})

	return c
}

// connect establishes the MTProto connection and keeps it alive in a
// background goroutine until disconnect.
func (c *mtprotoClient) connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.logger.Info().Msg("connecting to Telegram")

	clientCtx, cancel := context.WithCancel(context.Background())

	readyChan := make(chan struct{})
	errChan := make(chan error, 1)
	runDone := make(chan struct{})

	go func() {
		defer close(runDone)
		err := c.client.Run(clientCtx, func(ctx context.Context) error {
			status, err := c.client.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to check auth status: %w", err)
			}
			if !status.Authorized {
				return fmt.Errorf("account %s has no authorized session", maskPhone(c.phone))
			}

			c.mu.Lock()
			c.api = c.client.API()
			c.connected = true
			c.mu.Unlock()

			close(readyChan)
			<-ctx.Done()
			return ctx.Err()
		})
		select {
		case errChan <- err:
		default:
		}
	}()

	select {
	case <-readyChan:
		c.mu.Lock()
		c.cancelFunc = cancel
		c.runDone = runDone
		c.mu.Unlock()
		c.logger.Info().Msg("connected to Telegram")
		return nil
	case err := <-errChan:
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return fmt.Errorf("connection closed before becoming ready")
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// disconnect stops the background connection goroutine and waits for it.
func (c *mtprotoClient) disconnect(ctx context.Context) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	cancel := c.cancelFunc
	runDone := c.runDone
	c.connected = false
	c.api = nil
	c.cancelFunc = nil
	c.runDone = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		if runDone != nil {
			select {
			case <-runDone:
				c.logger.Debug().Msg("client stopped gracefully")
			case <-ctx.Done():
				c.logger.Warn().Msg("disconnect timeout while waiting for client shutdown")
			}
		}
	}
}

// apiClient returns the API handle, or an error when not connected.
func (c *mtprotoClient) apiClient() (*tg.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.api == nil {
		return nil, domain.ErrNotConnected
	}
	return c.api, nil
}

// wait applies the per-client request limiter.
func (c *mtprotoClient) wait(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return nil
}
