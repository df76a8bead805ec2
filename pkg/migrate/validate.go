package migrate

import (
	"context"
	"strings"

	"github.com/baderkha/db-migrate/pkg/migrate/adapter"
	"github.com/baderkha/db-migrate/pkg/migrate/fault"
	"github.com/baderkha/db-migrate/pkg/migrate/report"
	"golang.org/x/sync/errgroup"
)

const (
	SideSource = "source"
	SideTarget = "target"
)

// Validate counts the table on both sides and compares the counts exactly.
// A mismatch is a normal outcome; only a failed count is an error.
//
// An empty source table never creates its destination, so when the source
// has no rows and dst can list its tables, a missing target table counts as 0.
func Validate(ctx context.Context, src, dst adapter.Counter, tableName string) (report.ValidationOutcome, error) {
	var (
		out            = report.ValidationOutcome{Table: tableName}
		srcErr, dstErr error
		wg             errgroup.Group
	)
	wg.Go(func() error {
		out.SourceRows, srcErr = src.CountRows(ctx, tableName)
		return nil
	})
	wg.Go(func() error {
		out.TargetRows, dstErr = dst.CountRows(ctx, tableName)
		return nil
	})
	_ = wg.Wait()

	if srcErr != nil {
		return report.ValidationOutcome{Table: tableName}, &fault.ValidationError{Table: tableName, Side: SideSource, Err: srcErr}
	}
	if dstErr != nil {
		if out.SourceRows != 0 || !missingTable(ctx, dst, tableName) {
			return report.ValidationOutcome{Table: tableName}, &fault.ValidationError{Table: tableName, Side: SideTarget, Err: dstErr}
		}
		out.TargetRows = 0
	}
	out.Matched = out.SourceRows == out.TargetRows
	return out, nil
}

// missingTable reports whether c positively lists its tables without name.
// Anything it cannot tell is treated as present.
func missingTable(ctx context.Context, c adapter.Counter, name string) bool {
	l, ok := c.(adapter.Lister)
	if !ok {
		return false
	}
	names, err := l.ListTables(ctx)
	if err != nil {
		return false
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return false
		}
	}
	return true
}
