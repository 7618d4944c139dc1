package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gitlab.com/yelinaung/expenditure-manager/internal/database"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
)

// ReconnectDelay is how long the listener waits before re-establishing a
// dropped LISTEN connection.
const ReconnectDelay = 5 * time.Second

// NotifyTimeout bounds one snapshot reload.
const NotifyTimeout = 10 * time.Second

// Notifier receives change notifications by user ID.
type Notifier interface {
	Notify(ctx context.Context, userID string) error
}

// Listener forwards PostgreSQL change notifications to a Notifier.
type Listener struct {
	pool     database.Acquirer
	notifier Notifier
	channel  string
	delay    time.Duration
}

// NewListener listens on database.TransactionsChannel.
func NewListener(pool database.Acquirer, notifier Notifier) *Listener {
	return &Listener{
		pool:     pool,
		notifier: notifier,
		channel:  database.TransactionsChannel,
		delay:    ReconnectDelay,
	}
}

// Run listens until ctx is cancelled, reconnecting after failures.
func (l *Listener) Run(ctx context.Context) error {
	logger.Log.Info().Str("channel", l.channel).Msg("Transaction listener started")

	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			logger.Log.Info().Msg("Transaction listener stopped")
			return nil
		}
		logger.Log.Error().Err(err).Dur("retry_in", l.delay).Msg("Transaction listener disconnected")

		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Transaction listener stopped")
			return nil
		case <-time.After(l.delay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.channel, err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("failed waiting for notification: %w", err)
		}
		l.handle(ctx, n)
	}
}

func (l *Listener) handle(ctx context.Context, n *pgconn.Notification) {
	if n.Channel != l.channel || n.Payload == "" {
		return
	}

	notifyCtx, cancel := context.WithTimeout(ctx, NotifyTimeout)
	defer cancel()

	if err := l.notifier.Notify(notifyCtx, n.Payload); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Warn().Err(err).Str("user", logger.HashUserID(n.Payload)).Msg("Failed to push transaction snapshot")
	}
}
