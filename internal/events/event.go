// Package events carries change notifications out of the API. Handlers
// publish one Change per committed write; the auditor consumes them.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
)

// Op is the kind of write a Change records.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpLink   Op = "link"
	OpUnlink Op = "unlink"
)

// Change is published after a write has been committed. For link and unlink
// Kind is Place, ID the place id and AmenityID the other side of the link.
type Change struct {
	Op        Op         `json:"op"`
	Kind      model.Kind `json:"kind"`
	ID        string     `json:"id"`
	AmenityID string     `json:"amenity_id,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
	At        string     `json:"at"`
}

// NewChange stamps a change with the current time.
func NewChange(op Op, kind model.Kind, id string) Change {
	return Change{Op: op, Kind: kind, ID: id, At: time.Now().UTC().Format(time.RFC3339Nano)}
}

// Key is the partition/routing key of the change.
func (c Change) Key() string {
	return string(c.Kind) + "." + c.ID
}

// String renders the single audit-log line for c.
func (c Change) String() string {
	line := fmt.Sprintf("[%s] %s %s | id=%s", c.At, c.Op, c.Kind, c.ID)
	if c.AmenityID != "" {
		line += " | amenity_id=" + c.AmenityID
	}
	if c.RequestID != "" {
		line += " | request_id=" + c.RequestID
	}
	return line
}

// Publisher sends changes to a broker. Publish errors are for the caller to
// log; a failed publish never undoes the write.
type Publisher interface {
	Publish(ctx context.Context, c Change) error
	Close() error
}

// Nop drops every change.
type Nop struct{}

func (Nop) Publish(context.Context, Change) error { return nil }
func (Nop) Close() error                          { return nil }

// Recorder keeps published changes in memory.
type Recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *Recorder) Publish(_ context.Context, c Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Changes returns a copy of what was published so far.
func (r *Recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Change(nil), r.changes...)
}
