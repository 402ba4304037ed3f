package orders

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/shop-orders/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 { return &v }

func newTestLog(t *testing.T, opts ...LogOption) *Log {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewLog(fs, opts...)
}

func sampleOrder() Order {
	return Order{
		Customer: CustomerInfo{Name: "Aziz", Phone: "+998901234567", Address: "Toshkent"},
		Items:    []OrderItem{{Name: "Olma", Quantity: 2, Price: price(5000)}},
		Total:    10000,
	}
}

func TestLog_ListAllEmptyWhenStoreAbsent(t *testing.T) {
	l := newTestLog(t)
	got, err := l.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLog_AppendAssignsIDTimestampAndPending(t *testing.T) {
	fixed := time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)
	l := newTestLog(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	o, err := l.Append(ctx, sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, int64(1), o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 10000.0, o.Total)

	ts, err := o.CreatedTime(time.UTC)
	require.NoError(t, err)
	assert.True(t, ts.Equal(fixed))

	all, err := l.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, o, all[0])
}

func TestLog_AppendUsesMaxPlusOne(t *testing.T) {
	ctx := context.Background()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	seed := []Order{{ID: 7, Items: []OrderItem{{Name: "A", Quantity: 1}}}, {ID: 3, Items: []OrderItem{{Name: "B", Quantity: 1}}}}
	require.NoError(t, store.NewCollection[Order](fs, store.Orders).Replace(ctx, seed))

	o, err := NewLog(fs).Append(ctx, sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, int64(8), o.ID)
}

func TestLog_AppendValidation(t *testing.T) {
	tests := []struct {
		name  string
		items []OrderItem
	}{
		{name: "no items", items: nil},
		{name: "zero quantity", items: []OrderItem{{Name: "Olma", Quantity: 0, Price: price(1)}}},
		{name: "negative quantity", items: []OrderItem{{Name: "Olma", Quantity: -2, Price: price(1)}}},
		{name: "negative price", items: []OrderItem{{Name: "Olma", Quantity: 1, Price: price(-5)}}},
		{name: "missing name", items: []OrderItem{{Quantity: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLog(t)
			o := sampleOrder()
			o.Items = tt.items
			_, err := l.Append(context.Background(), o)
			require.ErrorIs(t, err, ErrValidation)

			all, err := l.ListAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestLog_ConcurrentAppendsGetUniqueSequentialIDs(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()
	const n = 40

	var wg sync.WaitGroup
	ids := make([]int64, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, err := l.Append(ctx, sampleOrder())
			ids[i], errs[i] = o.ID, err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id)
	}

	all, err := l.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, n)
	for i, o := range all {
		assert.Equal(t, int64(i+1), o.ID, "stored in id-assignment order")
	}
}

func TestLog_UpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		path    []Status
		wantErr error
	}{
		{name: "pending to confirmed", path: []Status{StatusConfirmed}},
		{name: "pending to cancelled", path: []Status{StatusCancelled}},
		{name: "confirmed to delivered", path: []Status{StatusConfirmed, StatusDelivered}},
		{name: "confirmed to cancelled", path: []Status{StatusConfirmed, StatusCancelled}},
		{name: "delivered back to confirmed", path: []Status{StatusConfirmed, StatusDelivered, StatusConfirmed}, wantErr: ErrIllegalTransition},
		{name: "pending straight to delivered", path: []Status{StatusDelivered}, wantErr: ErrIllegalTransition},
		{name: "cancelled is terminal", path: []Status{StatusCancelled, StatusConfirmed}, wantErr: ErrIllegalTransition},
		{name: "same status", path: []Status{StatusPending}, wantErr: ErrIllegalTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			l := newTestLog(t)
			o, err := l.Append(ctx, sampleOrder())
			require.NoError(t, err)

			var lastErr error
			for _, st := range tt.path {
				_, lastErr = l.UpdateStatus(ctx, o.ID, st)
				if lastErr != nil {
					break
				}
			}
			if tt.wantErr != nil {
				require.ErrorIs(t, lastErr, tt.wantErr)
				return
			}
			require.NoError(t, lastErr)
			got, err := l.Get(ctx, o.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.path[len(tt.path)-1], got.Status)
			assert.NotEmpty(t, got.UpdatedAt)
		})
	}
}

func TestLog_UpdateStatusUnknownID(t *testing.T) {
	l := newTestLog(t)
	_, err := l.UpdateStatus(context.Background(), 42, StatusConfirmed)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLog_IllegalTransitionDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)
	o, err := l.Append(ctx, sampleOrder())
	require.NoError(t, err)

	_, err = l.UpdateStatus(ctx, o.ID, StatusDelivered)
	require.ErrorIs(t, err, ErrIllegalTransition)

	got, err := l.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Empty(t, got.UpdatedAt)
}

func TestLog_ConfirmCommitsContact(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)
	o, err := l.Append(ctx, sampleOrder())
	require.NoError(t, err)

	got, err := l.Confirm(ctx, o.ID, "+998911112233", "41.2995,69.2401")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, "+998911112233", got.Customer.Phone)
	assert.Equal(t, "41.2995,69.2401", got.Customer.Location)

	_, err = l.Confirm(ctx, o.ID, "x", "")
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestLog_LegacyRecordWithoutStatusIsPending(t *testing.T) {
	ctx := context.Background()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.NewCollection[Order](fs, store.Orders).Replace(ctx, []Order{
		{ID: 1, CreatedAt: "2025-01-02T10:00:00.123456", Items: []OrderItem{{Name: "A", Quantity: 1}}},
	}))

	got, err := NewLog(fs).UpdateStatus(ctx, 1, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
}
