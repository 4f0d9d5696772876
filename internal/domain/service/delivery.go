package service

import "context"

// TelegramDelivery sends a rendered report as one or more chunked
// messages, retrying each chunk on transient errors. Chunks are sent in
// order; if chunk k fails permanently, chunks after k are not attempted.
type TelegramDelivery interface {
	Deliver(ctx context.Context, report string, chatID int64) (DeliveryOutcome, error)
}

// DeliveryOutcome reports how many chunks were actually sent, so the
// caller can distinguish a clean failure from a partial delivery.
type DeliveryOutcome struct {
	ChunksSent      int
	ChunksTotal     int
	PartialDelivery bool
}
