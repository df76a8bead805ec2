package report

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestBuilderAggregates(t *testing.T) {
	b := NewBuilder("run-1", "mssql://sa@db:1433/sales", "postgresql://app@pg:5432/sales", t0)

	require.NoError(t, b.AddTransfer(TransferOutcome{Table: "orders", RowsTransferred: 25, Chunks: 3, Status: Succeeded, Attempts: 1}))
	require.NoError(t, b.AddTransfer(TransferOutcome{Table: "items", RowsTransferred: 4, Chunks: 1, Status: Failed, Error: "boom", Attempts: 2}))
	require.NoError(t, b.AddTransfer(TransferOutcome{Table: "empty", Status: Succeeded, Attempts: 1}))
	require.NoError(t, b.AddValidation(ValidationOutcome{Table: "orders", SourceRows: 25, TargetRows: 25, Matched: true}))
	require.NoError(t, b.AddError(errors.New("transfer items : append chunk 2 : boom")))
	require.NoError(t, b.AddError(nil))

	r, err := b.Finish(t0.Add(90 * time.Second))
	require.NoError(t, err)

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, 2, r.TablesMigrated)
	assert.EqualValues(t, 25, r.RowsMigrated)
	assert.Len(t, r.Transfers, 3)
	assert.Equal(t, []string{"transfer items : append chunk 2 : boom"}, r.Errors)
	assert.Equal(t, 90*time.Second, r.Duration())
	assert.False(t, r.Succeeded())
}

func TestReportSucceeded(t *testing.T) {
	r := &Report{}
	assert.True(t, r.Succeeded(), "an empty run is a success")

	r.Validations = []ValidationOutcome{{Table: "a", SourceRows: 3, TargetRows: 3, Matched: true}}
	assert.True(t, r.Succeeded())

	r.Validations = append(r.Validations, ValidationOutcome{Table: "b", SourceRows: 3, TargetRows: 2})
	assert.False(t, r.Succeeded(), "a mismatch fails the run even without errors")
	assert.Equal(t, []ValidationOutcome{{Table: "b", SourceRows: 3, TargetRows: 2}}, r.Mismatches())

	assert.Zero(t, (&Report{StartedAt: t0}).Duration())
}

func TestBuilderFinishOnce(t *testing.T) {
	b := NewBuilder("run-2", "s", "t", t0)
	_, err := b.Finish(t0)
	require.NoError(t, err)

	_, err = b.Finish(t0)
	assert.ErrorIs(t, err, ErrFinalized)
	assert.ErrorIs(t, b.AddTransfer(TransferOutcome{Table: "late"}), ErrFinalized)
	assert.ErrorIs(t, b.AddValidation(ValidationOutcome{Table: "late"}), ErrFinalized)
	assert.ErrorIs(t, b.AddError(errors.New("late")), ErrFinalized)
}

func TestBuilderConcurrentAdds(t *testing.T) {
	b := NewBuilder("run-4", "s", "t", t0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.AddTransfer(TransferOutcome{Table: "t", Status: Succeeded, RowsTransferred: 2})
		}()
	}
	wg.Wait()
	r, err := b.Finish(t0)
	require.NoError(t, err)
	assert.Equal(t, 50, r.TablesMigrated)
	assert.EqualValues(t, 100, r.RowsMigrated)
}
