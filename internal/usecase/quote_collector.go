package usecase

import (
	"context"

	"RankPulse/internal/domain/models"
	drepo "RankPulse/internal/domain/repository"
)

// QuoteCollector consumes the realtime execution feed between polling cycles
// and keeps the last-price gauge current. It never writes history; cycle
// computation stays snapshot-driven.
type QuoteCollector struct {
	stream  drepo.QuoteStream
	metrics drepo.Metrics
}

// NewQuoteCollector creates a new QuoteCollector instance.
func NewQuoteCollector(stream drepo.QuoteStream, metrics drepo.Metrics) *QuoteCollector {
	return &QuoteCollector{stream: stream, metrics: metrics}
}

// IsConnected returns true if the quote stream is connected.
func (c *QuoteCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *QuoteCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	qCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, qCh, errCh)
	return nil
}

func (c *QuoteCollector) consume(ctx context.Context, qCh <-chan *models.Quote, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case q := <-qCh:
			if q == nil {
				continue
			}
			c.metrics.RecordLastPrice(q.Code, q.Price)
		}
	}
}

// Stop closes the stream.
func (c *QuoteCollector) Stop() error { return c.stream.Close() }
