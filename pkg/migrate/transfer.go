package migrate

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/baderkha/db-migrate/pkg/migrate/adapter"
	"github.com/baderkha/db-migrate/pkg/migrate/fault"
	"github.com/baderkha/db-migrate/pkg/migrate/report"
)

// Transfer copies one table from src to dst in batches of at most chunkSize
// rows. The first batch redefines the destination table, later batches are
// appended. A source that yields no batch leaves the destination untouched.
//
// Any error stops the table. The returned outcome is Failed and keeps the
// rows and chunks written before the error; nothing is rolled back.
func Transfer(ctx context.Context, src adapter.Reader, dst adapter.Writer, tableName string, chunkSize int) (report.TransferOutcome, error) {
	var (
		start = time.Now()
		out   = report.TransferOutcome{Table: tableName, Attempts: 1}
	)
	fail := func(err error) (report.TransferOutcome, error) {
		out.Status = report.Failed
		out.Error = err.Error()
		out.Duration = time.Since(start)
		return out, err
	}

	if err := ctx.Err(); err != nil {
		return fail(&fault.TransferError{Table: tableName, Phase: fault.PhaseStart, Err: err})
	}
	cur, err := src.OpenCursor(ctx, tableName, chunkSize)
	if err != nil {
		return fail(asTransferError(tableName, fault.PhaseOpen, 0, err))
	}
	defer func() { _ = cur.Close() }()

	snk, err := dst.OpenSink(ctx, tableName)
	if err != nil {
		return fail(asTransferError(tableName, fault.PhaseOpen, 0, err))
	}

	for {
		chunk := out.Chunks + 1
		if err := ctx.Err(); err != nil {
			return fail(&fault.TransferError{Table: tableName, Phase: fault.PhaseRead, Chunk: chunk, Err: err})
		}
		b, err := cur.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(asTransferError(tableName, fault.PhaseRead, chunk, err))
		}
		if b.Len() == 0 {
			continue
		}

		phase := fault.PhaseAppend
		if out.Chunks == 0 {
			phase = fault.PhaseCreate
		}
		// the batch in hand is dropped, never half written
		if err := ctx.Err(); err != nil {
			return fail(&fault.TransferError{Table: tableName, Phase: phase, Chunk: chunk, Err: err})
		}
		if phase == fault.PhaseCreate {
			err = snk.CreateOrReplace(ctx, b)
		} else {
			err = snk.Append(ctx, b)
		}
		if err != nil {
			return fail(asTransferError(tableName, phase, chunk, err))
		}

		out.Chunks++
		out.RowsTransferred += int64(b.Len())
	}

	out.Status = report.Succeeded
	out.Duration = time.Since(start)
	return out, nil
}

// asTransferError tags err with the table and chunk. Errors that already are
// transfer errors keep their phase and only gain the chunk number.
func asTransferError(tableName string, phase fault.Phase, chunk int, err error) error {
	var te *fault.TransferError
	if errors.As(err, &te) {
		if te.Chunk == 0 && chunk > 0 {
			tagged := *te
			tagged.Chunk = chunk
			return &tagged
		}
		return te
	}
	return &fault.TransferError{Table: tableName, Phase: phase, Chunk: chunk, Err: err}
}
