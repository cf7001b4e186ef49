package httpx

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&StatusError{Provider: "openai", StatusCode: 429}, true},
		{fmt.Errorf("wrapped: %w", &StatusError{Provider: "anthropic", StatusCode: 503}), true},
		{&StatusError{Provider: "openai", StatusCode: 401}, false},
		{context.DeadlineExceeded, true},
		{errors.New("decode failed"), false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Fatalf("IsTransient(%v): want=%v got=%v", tc.err, tc.want, got)
		}
	}
}

func TestStatusError(t *testing.T) {
	err := fmt.Errorf("complete: %w", &StatusError{Provider: "anthropic", StatusCode: 529, Body: "overloaded"})
	if StatusCode(err) != 529 {
		t.Fatalf("StatusCode: want=529 got=%d", StatusCode(err))
	}
	if StatusCode(errors.New("plain")) != 0 {
		t.Fatalf("StatusCode of plain error: want=0")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Error() != "anthropic http 529: overloaded" {
		t.Fatalf("unexpected error text: %v", err)
	}
}
