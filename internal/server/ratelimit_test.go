package server

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestKeyedLimiterAllow(t *testing.T) {
	// 2 events per second with burst 2
	kl := newKeyedLimiter(rate.Limit(2), 2, time.Minute)
	key := "test"
	if !kl.allow(key) {
		t.Fatal("first allow should pass")
	}
	if !kl.allow(key) {
		t.Fatal("second allow should pass")
	}
	// third immediate call should be denied due to burst exhausted
	if kl.allow(key) {
		t.Fatal("third allow should be rate limited")
	}
}

func TestKeyedLimiterIsolatesKeys(t *testing.T) {
	kl := newKeyedLimiter(rate.Limit(1), 1, time.Minute)
	if !kl.allow("a") {
		t.Fatal("first key should pass")
	}
	if !kl.allow("b") {
		t.Fatal("second key should not share the first key's bucket")
	}
}
