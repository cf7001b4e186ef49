package bus

import (
	"encoding/json"
	"testing"

	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/realtime"
)

func TestDecodeEnvelope(t *testing.T) {
	raw, _ := json.Marshal(envelope{
		Origin:  "instance-a",
		Message: realtime.SSEMessage{Channel: "project:1", Event: realtime.SSEEventRunProgress},
	})

	msg, ok, err := decodeEnvelope(string(raw), "instance-b")
	if err != nil || !ok {
		t.Fatalf("foreign event should be forwarded: ok=%v err=%v", ok, err)
	}
	if msg.Channel != "project:1" || msg.Event != realtime.SSEEventRunProgress {
		t.Fatalf("decoded message: got=%+v", msg)
	}

	if _, ok, err := decodeEnvelope(string(raw), "instance-a"); err != nil || ok {
		t.Fatalf("own event should be skipped: ok=%v err=%v", ok, err)
	}
	if _, _, err := decodeEnvelope(`{"origin":"x","message":{}}`, "y"); err == nil {
		t.Fatalf("want error for event without channel")
	}
	if _, _, err := decodeEnvelope("not json", "y"); err == nil {
		t.Fatalf("want error for malformed payload")
	}
}

func TestNewRedisBusRequiresAddr(t *testing.T) {
	if _, err := NewRedisBus(logger.Nop(), RedisConfig{}); err == nil {
		t.Fatalf("want error without REDIS_ADDR")
	}
}
