package ledger

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/mcclellann/backoffice/pkg/store"
)

const defaultDueOffsetDays = 1

// Ledger handles the business logic for accounts, movements, deposits, debts and periodic controls.
// Every mutation runs inside a single store transaction and re-derives the aggregates it affects
// before committing.
type Ledger struct {
	storage   store.Storage
	node      *snowflake.Node // insertion sequence for movements
	dueOffset int             // days between a control window's end and its scheduled payment
	now       func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger) error

// WithNodeID selects the snowflake node used to number movements. Processes sharing a database
// must use distinct ids.
func WithNodeID(id int64) Option {
	return func(l *Ledger) error {
		node, err := snowflake.NewNode(id)
		if err != nil {
			return fmt.Errorf("invalid node id %d: %w", id, err)
		}
		l.node = node
		return nil
	}
}

// WithControlDueOffset sets how many days after a window closes its payment is scheduled.
func WithControlDueOffset(days int) Option {
	return func(l *Ledger) error {
		if days < 0 {
			return fmt.Errorf("due offset must not be negative, got %d", days)
		}
		l.dueOffset = days
		return nil
	}
}

// WithClock overrides the clock used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) error {
		l.now = now
		return nil
	}
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		storage:   s,
		dueOffset: defaultDueOffsetDays,
		now:       time.Now,
	}
	for _, opt := range append([]Option{WithNodeID(1)}, opts...) {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Ledger) nextSeq() int64 {
	return l.node.Generate().Int64()
}
