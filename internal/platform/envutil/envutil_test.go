package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", 5 * time.Minute},
		{"90s", 90 * time.Second},
		{"30", 30 * time.Second},
		{"garbage", 5 * time.Minute},
	}
	for _, tc := range cases {
		t.Setenv("REFYNE_TEST_DURATION", tc.raw)
		if got := Duration("REFYNE_TEST_DURATION", 5*time.Minute); got != tc.want {
			t.Fatalf("Duration(%q): want=%s got=%s", tc.raw, tc.want, got)
		}
	}
}

func TestListAndBool(t *testing.T) {
	t.Setenv("REFYNE_TEST_LIST", " http://a , ,http://b ")
	got := List("REFYNE_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "http://a" || got[1] != "http://b" {
		t.Fatalf("List: got=%v", got)
	}
	t.Setenv("REFYNE_TEST_BOOL", "yes")
	if !Bool("REFYNE_TEST_BOOL", false) {
		t.Fatalf("Bool: want=true")
	}
	t.Setenv("REFYNE_TEST_RATIO", "0.25")
	if Float64("REFYNE_TEST_RATIO", 1) != 0.25 {
		t.Fatalf("Float64: want=0.25")
	}
	t.Setenv("REFYNE_TEST_INT", "nope")
	if Int("REFYNE_TEST_INT", 7) != 7 {
		t.Fatalf("Int fallback: want=7")
	}
}
