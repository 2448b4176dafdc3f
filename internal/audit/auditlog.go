// Package audit keeps an in-memory, hash-chained trail of vault mutations.
// Each event's hash covers the previous event's hash, so rewriting history
// breaks the chain.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Event records one mutation: who did what to which record.
type Event struct {
	TS     int64  `json:"ts"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Record string `json:"record"`
	Hash   string `json:"hash"`
}

type Log struct {
	mu       sync.Mutex
	lastHash []byte
	events   []Event
}

func New() *Log { return &Log{} }

// Append links a new event into the chain and returns it.
func (l *Log) Append(actor, action, record string) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := sha256.New()
	h.Write(l.lastHash)
	h.Write([]byte(actor))
	h.Write([]byte(action))
	h.Write([]byte(record))
	sum := h.Sum(nil)
	l.lastHash = sum

	e := Event{
		TS:     time.Now().Unix(),
		Actor:  actor,
		Action: action,
		Record: record,
		Hash:   hex.EncodeToString(sum),
	}
	l.events = append(l.events, e)
	return e
}

// Verify recomputes the chain from the start and reports the first break.
func (l *Log) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var prev []byte
	for i, e := range l.events {
		h := sha256.New()
		h.Write(prev)
		h.Write([]byte(e.Actor))
		h.Write([]byte(e.Action))
		h.Write([]byte(e.Record))
		sum := h.Sum(nil)
		if hex.EncodeToString(sum) != e.Hash {
			return fmt.Errorf("audit chain broken at event %d", i)
		}
		prev = sum
	}
	return nil
}

// Events returns a copy of the trail in append order.
func (l *Log) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}
