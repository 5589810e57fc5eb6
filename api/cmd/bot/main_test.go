package main

import (
	"errors"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryDelayFromError(t *testing.T) {
	cases := []struct {
		err  error
		want time.Duration
	}{
		{nil, 0},
		{errors.New("Too Many Requests: retry after 7"), 7 * time.Second},
		{errors.New("too many requests"), 3 * time.Second},
		{timeoutErr{}, 2 * time.Second},
		{errors.New("bad gateway"), time.Second},
	}
	for _, c := range cases {
		if got := retryDelayFromError(c.err); got != c.want {
			t.Fatalf("retryDelayFromError(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
