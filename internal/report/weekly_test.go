package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/shop-orders/internal/orders"
)

func TestPartitionWeeks_FillsGapsInOrder(t *testing.T) {
	// 2025-03-03 is Monday of ISO week 10.
	all := []orders.Order{
		order(1, time.Date(2025, 3, 26, 10, 0, 0, 0, tashkent), "A", item("Olma", 1, 100)), // week 13
		order(2, time.Date(2025, 3, 3, 0, 0, 0, 0, tashkent), "B", item("Nok", 2, 50)),     // week 10
		order(3, time.Date(2025, 3, 9, 23, 59, 0, 0, tashkent), "C", item("Nok", 1, 50)),   // week 10
		{ID: 4, CreatedAt: "broken", Items: []orders.OrderItem{item("Olma", 1, 1)}},
	}

	weeks := PartitionWeeks(all, tashkent)
	require.Len(t, weeks, 4)
	for i, w := range weeks {
		assert.Equal(t, 2025, w.Year)
		assert.Equal(t, 10+i, w.Week)
	}
	assert.Equal(t, 2, weeks[0].Report.OrderCount)
	assert.True(t, weeks[1].Report.Empty())
	assert.True(t, weeks[2].Report.Empty())
	assert.Equal(t, 1, weeks[3].Report.OrderCount)
}

func TestPartitionWeeks_SortsNumericallyAcrossYears(t *testing.T) {
	all := []orders.Order{
		order(1, time.Date(2026, 1, 5, 12, 0, 0, 0, tashkent), "A", item("Olma", 1, 1)),   // 2026 week 2
		order(2, time.Date(2025, 12, 22, 12, 0, 0, 0, tashkent), "B", item("Olma", 1, 1)), // 2025 week 52
		order(3, time.Date(2025, 12, 30, 12, 0, 0, 0, tashkent), "C", item("Olma", 1, 1)), // 2026 week 1
	}
	weeks := PartitionWeeks(all, tashkent)
	require.Len(t, weeks, 3)
	assert.Equal(t, [2]int{2025, 52}, [2]int{weeks[0].Year, weeks[0].Week})
	assert.Equal(t, [2]int{2026, 1}, [2]int{weeks[1].Year, weeks[1].Week})
	assert.Equal(t, [2]int{2026, 2}, [2]int{weeks[2].Year, weeks[2].Week})
}

func TestRenderWeekly(t *testing.T) {
	all := []orders.Order{
		order(1, time.Date(2025, 3, 4, 10, 0, 0, 0, tashkent), "Ali", item("Olma", 2, 5000)),
		order(2, time.Date(2025, 3, 18, 10, 0, 0, 0, tashkent), "Vali", item("Non", 1, 3000)),
	}
	text := RenderWeekly(PartitionWeeks(all, tashkent))

	assert.Equal(t, 3, strings.Count(text, sectionRule))
	assert.Contains(t, text, "📅 2025-yil, 10-hafta statistikasi:\n\nMahsulotlar:\nOlma — 2 dona, 10000 so'm\n")
	assert.Contains(t, text, "📅 2025-yil, 11-hafta statistikasi:\n\nHafta davomida buyurtmalar yo'q.\n")
	assert.Contains(t, text, "📅 2025-yil, 12-hafta statistikasi:\n\nMahsulotlar:\nNon — 1 dona, 3000 so'm\n")
	assert.Less(t, strings.Index(text, "10-hafta"), strings.Index(text, "11-hafta"))
}

func TestRenderWeekly_NoOrders(t *testing.T) {
	assert.Equal(t, "Buyurtmalar yo'q.\n", RenderWeekly(PartitionWeeks(nil, tashkent)))
}
