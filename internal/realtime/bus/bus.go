package bus

import (
	"context"

	"github.com/yungbote/refyne-backend/internal/realtime"
)

// Bus relays run events between server instances. Publish never echoes back
// to the publishing instance's own forwarder.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
