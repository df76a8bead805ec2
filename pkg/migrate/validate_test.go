package migrate

import (
	"context"
	"errors"
	"testing"

	"github.com/baderkha/db-migrate/pkg/migrate/fault"
	"github.com/baderkha/db-migrate/pkg/migrate/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("matched", func(t *testing.T) {
		s, d := conns(newMemDB().seed("orders", 12), newMemDB().seed("orders", 12))
		v, err := Validate(ctx, s, d, "orders")
		require.NoError(t, err)
		assert.True(t, v.Matched)
		assert.EqualValues(t, 12, v.SourceRows)
		assert.EqualValues(t, 12, v.TargetRows)
	})

	t.Run("empty on both sides", func(t *testing.T) {
		s, d := conns(newMemDB().seed("customers", 0), newMemDB().seed("customers", 0))
		v, err := Validate(ctx, s, d, "customers")
		require.NoError(t, err)
		assert.True(t, v.Matched)
	})

	t.Run("mismatch is not an error", func(t *testing.T) {
		s, d := conns(newMemDB().seed("orders", 12), newMemDB().seed("orders", 15))
		v, err := Validate(ctx, s, d, "orders")
		require.NoError(t, err)
		assert.False(t, v.Matched)
		assert.EqualValues(t, 15, v.TargetRows)
	})

	t.Run("count failure names the side", func(t *testing.T) {
		dst := newMemDB().seed("orders", 12)
		dst.failCount["orders"] = errors.New("permission denied")
		s, d := conns(newMemDB().seed("orders", 12), dst)

		v, err := Validate(ctx, s, d, "orders")
		var ve *fault.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, SideTarget, ve.Side)
		assert.Equal(t, "validate orders : count on target : permission denied", err.Error())
		assert.False(t, v.Matched)
	})

	t.Run("empty source and no target table", func(t *testing.T) {
		s, d := conns(newMemDB().seed("customers", 0), newMemDB().seed("orders", 3))
		v, err := Validate(ctx, s, d, "customers")
		require.NoError(t, err)
		assert.Equal(t, report.ValidationOutcome{Table: "customers", Matched: true}, v)
	})

	t.Run("rows in source and no target table", func(t *testing.T) {
		s, d := conns(newMemDB().seed("customers", 2), newMemDB())
		_, err := Validate(ctx, s, d, "customers")
		var ve *fault.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, SideTarget, ve.Side)
		assert.Equal(t, "validate customers : count on target : no such table: customers", err.Error())
	})

	t.Run("target catalog unreadable", func(t *testing.T) {
		dst := newMemDB()
		dst.listErr = errors.New("catalog unavailable")
		s, d := conns(newMemDB().seed("customers", 0), dst)
		_, err := Validate(ctx, s, d, "customers")
		assert.ErrorContains(t, err, "count on target : no such table: customers")
	})

	t.Run("counter that cannot list", func(t *testing.T) {
		s, d := conns(newMemDB().seed("customers", 0), newMemDB())
		_, err := Validate(ctx, s, countOnly{d}, "customers")
		assert.ErrorContains(t, err, "count on target")
	})
}

type countOnly struct{ c *memConn }

func (o countOnly) CountRows(ctx context.Context, name string) (int64, error) {
	return o.c.CountRows(ctx, name)
}
