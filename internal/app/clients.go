package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/realtime/bus"
	"github.com/yungbote/refyne-backend/internal/services"
)

type Clients struct {
	ObjectStore services.ObjectStore
	Completion  services.CompletionClient
	// RunBus is nil unless REDIS_ADDR is set.
	RunBus bus.Bus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	store, err := resolveObjectStore(ctx, log, cfg.Storage)
	if err != nil {
		return Clients{}, err
	}

	completion, err := services.NewCompletionClient(ctx, log, cfg.AI)
	if err != nil {
		closeIfCloser(store)
		return Clients{}, fmt.Errorf("init completion client: %w", err)
	}

	var runBus bus.Bus
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			closeIfCloser(store)
			return Clients{}, fmt.Errorf("init redis run bus: %w", err)
		}
		runBus = b
	}

	return Clients{
		ObjectStore: store,
		Completion:  completion,
		RunBus:      runBus,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.RunBus != nil {
		_ = c.RunBus.Close()
	}
	closeIfCloser(c.ObjectStore)
}

func closeIfCloser(v any) {
	if cl, ok := v.(io.Closer); ok {
		_ = cl.Close()
	}
}
