package logger

import "testing"

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"api_key", "sk-live-123",
		"token_count", 42,
		"filename", "handbook.pdf",
		"headers", map[string]interface{}{"Authorization": "Bearer abc"},
	})
	if len(out) != 8 {
		t.Fatalf("len: want=8 got=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("api_key: want redacted got=%v", out[1])
	}
	if out[3] != 42 {
		t.Fatalf("token_count: want=42 got=%v", out[3])
	}
	if out[5] != "handbook.pdf" {
		t.Fatalf("filename: want=handbook.pdf got=%v", out[5])
	}
	headers, ok := out[7].(map[string]interface{})
	if !ok || headers["Authorization"] != "[REDACTED]" {
		t.Fatalf("nested authorization not redacted: %v", out[7])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"project_id", "p1", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("odd kv handling: %v", out)
	}
}
