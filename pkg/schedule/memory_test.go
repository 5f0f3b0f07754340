package schedule

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p9e.in/eicr/models"
)

func TestMemoryStoreKeepsInsertionOrder(t *testing.T) {
	s := NewMemoryStore(circuits(3)...)
	id := s.Insert(models.CircuitTestResult{CircuitDesignation: "4"})
	require.NotEmpty(t, id)

	rows, err := s.List(context.Background())
	require.NoError(t, err)

	var got []string
	for _, r := range rows {
		got = append(got, r.CircuitDesignation)
	}
	if diff := cmp.Diff([]string{"1", "2", "3", "4"}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, rows[3].Position)
}

func TestMemoryStorePositionsStayUniqueAfterRemove(t *testing.T) {
	s := NewMemoryStore()
	a := s.Insert(models.CircuitTestResult{CircuitDesignation: "a"})
	s.Insert(models.CircuitTestResult{CircuitDesignation: "b"})
	require.NoError(t, s.Remove(context.Background(), a))
	s.Insert(models.CircuitTestResult{CircuitDesignation: "c"})

	rows, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Position)
	assert.Equal(t, 2, rows[1].Position)
}

func TestMemoryStoreListReturnsCopies(t *testing.T) {
	s := NewMemoryStore(circuits(1)...)
	rows, _ := s.List(context.Background())
	rows[0].Notes = "mutated"

	r, _ := s.Get("ca")
	assert.Empty(t, r.Notes)
}

func TestMemoryStoreBulkUpdateIsAllOrNothing(t *testing.T) {
	s := NewMemoryStore(circuits(1)...)
	err := s.BulkUpdate(context.Background(), "ca", models.FieldUpdates{
		models.FieldRCDType: "A",
		"bogus":             "x",
	})
	require.ErrorIs(t, err, models.ErrUnknownField)

	r, _ := s.Get("ca")
	assert.Empty(t, r.RCDType)
}

func TestMemoryStoreBulkFieldUpdate(t *testing.T) {
	s := NewMemoryStore(circuits(3)...)
	n, err := s.BulkFieldUpdate(context.Background(), models.FieldAutoFilled, "true")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = s.BulkFieldUpdate(context.Background(), models.FieldAutoFilled, "maybe")
	require.ErrorIs(t, err, models.ErrInvalidValue)

	rows, _ := s.List(context.Background())
	for _, r := range rows {
		assert.True(t, r.AutoFilled)
	}
}

func TestSingleFieldOnlyHidesCapabilities(t *testing.T) {
	var s Store = SingleFieldOnly(NewMemoryStore())
	_, atomic := s.(FieldBulkUpdater)
	_, perRecord := s.(RecordBulkUpdater)
	assert.False(t, atomic)
	assert.False(t, perRecord)
}
