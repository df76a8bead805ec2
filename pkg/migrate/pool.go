package migrate

import (
	"context"

	"github.com/baderkha/db-migrate/pkg/migrate/adapter"
	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/hashicorp/go-multierror"
)

// pair : the connections one worker owns for the whole run
type pair struct {
	src adapter.Conn
	dst adapter.Conn
}

type pool struct {
	free chan pair
	all  []pair
}

// newPool makes room for at most capacity pairs; nothing is connected yet.
func newPool(capacity int) *pool {
	return &pool{free: make(chan pair, capacity)}
}

// grow connects source/target pairs until the pool holds size of them, never
// more than its capacity. A half opened pair is closed again on failure;
// whole pairs stay in the pool for close.
func (p *pool) grow(ctx context.Context, c adapter.Connector, source, target config.Endpoint, size int) error {
	if size > cap(p.free) {
		size = cap(p.free)
	}
	for len(p.all) < size {
		src, err := c.Connect(ctx, source)
		if err != nil {
			return err
		}
		dst, err := c.Connect(ctx, target)
		if err != nil {
			_ = src.Close()
			return err
		}
		pr := pair{src: src, dst: dst}
		p.all = append(p.all, pr)
		p.free <- pr
	}
	return nil
}

func (p *pool) size() int { return len(p.all) }

func (p *pool) acquire() pair { return <-p.free }

func (p *pool) release(pr pair) { p.free <- pr }

func (p *pool) close() error {
	var err error
	for _, pr := range p.all {
		if cerr := pr.src.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
		if cerr := pr.dst.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}
	p.all = nil
	return err
}
