package daygrid

import (
	"testing"
	"time"

	"github.com/myfan-dev/myfan/console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jst = time.FixedZone("JST", 9*60*60)

func at(day time.Time, hour, minute int) domain.Timestamp {
	y, m, d := day.Date()
	return domain.NewTimestamp(time.Date(y, m, d, hour, minute, 0, 0, day.Location()))
}

func booking(id int64, day time.Time, fh, fm, th, tm int, staffIDs ...int64) domain.Booking {
	return domain.Booking{
		ID:       id,
		Title:    "予約",
		FromAt:   at(day, fh, fm),
		ToAt:     at(day, th, tm),
		Status:   domain.BookingStatusActive,
		StaffIDs: staffIDs,
	}
}

func staff(id int64, name string) domain.Staff {
	return domain.Staff{ID: id, StaffAttributes: domain.StaffAttributes{{Name: name}}}
}

func TestSlotOf_EveryMinute(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, jst)
	for minute := 0; minute < 24*60; minute++ {
		ts := day.Add(time.Duration(minute) * time.Minute)
		slot := SlotOf(ts)
		assert.Equal(t, (ts.Hour()*60+ts.Minute())/15, slot)
		assert.GreaterOrEqual(t, slot, 0)
		assert.Less(t, slot, SlotsPerDay)
	}
}

func TestSlotOf_IgnoresDate(t *testing.T) {
	a := time.Date(2020, 1, 1, 13, 44, 0, 0, time.UTC)
	b := time.Date(2031, 12, 31, 13, 44, 59, 0, time.UTC)
	assert.Equal(t, SlotOf(a), SlotOf(b))
	assert.Equal(t, 54, SlotOf(a))
}

func TestPlace_Example(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, jst)
	bookings := []domain.Booking{booking(1, day, 9, 7, 9, 37, 10)}

	result := Place(day, 10, bookings)
	require.Len(t, result.Placements, 1)
	assert.Empty(t, result.Unplaced)

	p := result.Placements[0]
	assert.Equal(t, 36, p.StartSlot)
	assert.Equal(t, 38, p.EndSlot)
	assert.InDelta(t, 9.33, p.TopPx, 0.01)
	assert.InDelta(t, 729.33, p.Top(), 0.01)
	assert.Equal(t, 40, p.HeightPx)
	assert.Equal(t, int64(1), p.Booking.ID)
}

func TestPlace_EmittedExactlyOnce(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, jst)
	bookings := []domain.Booking{
		booking(1, day, 9, 0, 10, 0, 1),
		booking(2, day, 9, 0, 9, 30, 1),
		booking(3, day, 0, 0, 0, 15, 1),
		booking(4, day, 23, 30, 23, 59, 1),
		booking(5, day, 14, 14, 16, 1, 1, 2),
	}

	result := Place(day, 1, bookings)
	require.Len(t, result.Placements, len(bookings))

	counts := map[int64]int{}
	for _, p := range result.Placements {
		counts[p.Booking.ID]++
		assert.Equal(t, (p.EndSlot-p.StartSlot)*SlotHeightPx, p.HeightPx)
		assert.Equal(t, float64(p.Booking.FromAt.In(jst).Minute()%15)/15*20, p.TopPx)
	}
	for id, n := range counts {
		assert.Equal(t, 1, n, "booking %d", id)
	}

	// 按开始的格子排序
	for i := 1; i < len(result.Placements); i++ {
		assert.LessOrEqual(t, result.Placements[i-1].StartSlot, result.Placements[i].StartSlot)
	}
}

func TestPlace_FiltersStaffAndDate(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, jst)
	other := day.AddDate(0, 0, 1)
	bookings := []domain.Booking{
		booking(1, day, 9, 0, 10, 0, 1),
		booking(2, day, 9, 0, 10, 0, 2),
		booking(3, other, 9, 0, 10, 0, 1),
	}

	result := Place(day, 1, bookings)
	require.Len(t, result.Placements, 1)
	assert.Equal(t, int64(1), result.Placements[0].Booking.ID)
}

func TestPlace_UsesStaffObjects(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, jst)
	b := booking(1, day, 9, 0, 10, 0)
	b.Staffs = []domain.Staff{staff(7, "鈴木")}

	result := Place(day, 7, []domain.Booking{b})
	assert.Len(t, result.Placements, 1)
}

func TestPlace_DisplayLocation(t *testing.T) {
	// UTC 5/1 16:00 在日本是 5/2 1:00
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, jst)
	b := domain.Booking{
		ID:       1,
		FromAt:   domain.NewTimestamp(time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC)),
		ToAt:     domain.NewTimestamp(time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)),
		StaffIDs: []int64{1},
	}

	result := Place(day, 1, []domain.Booking{b})
	require.Len(t, result.Placements, 1)
	assert.Equal(t, 4, result.Placements[0].StartSlot)
	assert.Equal(t, 8, result.Placements[0].EndSlot)
}

func TestPlace_Unplaced(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, jst)

	midnight := booking(1, day, 23, 30, 0, 0, 1)
	midnight.ToAt = domain.NewTimestamp(time.Date(2024, 5, 2, 0, 30, 0, 0, jst))
	zero := booking(2, day, 10, 0, 10, 0, 1)
	negative := booking(3, day, 11, 0, 10, 0, 1)
	sameSlot := booking(4, day, 12, 1, 12, 14, 1)

	result := Place(day, 1, []domain.Booking{midnight, zero, negative, sameSlot})
	assert.Empty(t, result.Placements)
	require.Len(t, result.Unplaced, 4)
	assert.Equal(t, ReasonCrossesMidnight, result.Unplaced[0].Reason)
	assert.Equal(t, ReasonNoSpan, result.Unplaced[1].Reason)
	assert.Equal(t, ReasonNoSpan, result.Unplaced[2].Reason)
	assert.Equal(t, ReasonNoSpan, result.Unplaced[3].Reason)
}

func TestPlace_DoesNotMutateInput(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, jst)
	bookings := []domain.Booking{booking(2, day, 10, 0, 11, 0, 1), booking(1, day, 9, 0, 10, 0, 1)}

	_ = Place(day, 1, bookings)
	assert.Equal(t, int64(2), bookings[0].ID)
	assert.Equal(t, int64(1), bookings[1].ID)
}

func TestRows(t *testing.T) {
	rows := Rows()
	require.Len(t, rows, SlotsPerDay)

	assert.True(t, rows[0].Heavy)
	assert.Empty(t, rows[0].HourLabel)
	assert.True(t, rows[2].Light)
	assert.False(t, rows[1].Light)
	assert.False(t, rows[1].Heavy)
	assert.Equal(t, "1時", rows[4].HourLabel)
	assert.Equal(t, "23時", rows[92].HourLabel)

	labels := 0
	for _, r := range rows {
		if r.HourLabel != "" {
			labels++
		}
		assert.False(t, r.Heavy && r.Light)
	}
	assert.Equal(t, 23, labels)
}

func TestBuild_Placeholder(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, jst)
	g := Build(day, nil, []domain.Booking{booking(1, day, 9, 0, 10, 0, 1)})

	assert.True(t, g.Empty)
	assert.Equal(t, Placeholder, g.Placeholder)
	assert.Empty(t, g.Columns)
	assert.Zero(t, g.Placed())
	assert.Len(t, g.Rows, SlotsPerDay)
}

func TestBuild_MonotonicSelection(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, jst)
	bookings := []domain.Booking{
		booking(1, day, 9, 0, 10, 0, 1),
		booking(2, day, 11, 0, 12, 0, 2),
		booking(3, day, 13, 0, 14, 0, 1, 3),
	}
	roster := []domain.Staff{staff(1, "山田"), staff(2, "佐藤"), staff(3, "")}

	prev := Build(day, roster[:1], bookings)
	for n := 2; n <= len(roster); n++ {
		next := Build(day, roster[:n], bookings)
		require.Len(t, next.Columns, n)
		for i, col := range prev.Columns {
			assert.Equal(t, col.Staff.ID, next.Columns[i].Staff.ID)
			assert.Equal(t, col.Placements, next.Columns[i].Placements)
		}
		assert.GreaterOrEqual(t, next.Placed(), prev.Placed())
		prev = next
	}

	assert.Equal(t, domain.NoName, prev.Columns[2].Title)
	assert.Equal(t, 4, prev.Placed())
}

func TestBuild_UnplacedDeduplicated(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, jst)
	b := booking(1, day, 10, 0, 10, 0, 1, 2)

	g := Build(day, []domain.Staff{staff(1, "山田"), staff(2, "佐藤")}, []domain.Booking{b})
	assert.Len(t, g.Unplaced, 1)
}

func TestBuildWeek(t *testing.T) {
	wed := time.Date(2024, 5, 1, 0, 0, 0, 0, jst)
	sun := time.Date(2024, 4, 28, 0, 0, 0, 0, jst)
	bookings := []domain.Booking{
		booking(1, wed, 9, 0, 10, 0, 1, 2),
		booking(2, sun, 9, 0, 10, 0, 3),
		booking(3, sun.AddDate(0, 0, 6), 15, 0, 15, 30, 2),
		booking(4, sun.AddDate(0, 0, 7), 9, 0, 10, 0, 1),
	}

	assert.Equal(t, sun, WeekStart(wed.Add(13*time.Hour)))

	g := BuildWeek(wed, []domain.Staff{staff(1, "山田"), staff(2, "佐藤")}, bookings)
	require.Len(t, g.Columns, 7)
	assert.Equal(t, sun, g.Date)
	assert.Equal(t, "4/28(日)", g.Columns[0].Title)
	assert.Equal(t, "5/1(水)", g.Columns[3].Title)

	assert.Empty(t, g.Columns[0].Placements)
	require.Len(t, g.Columns[3].Placements, 1)
	assert.Equal(t, int64(1), g.Columns[3].Placements[0].Booking.ID)
	require.Len(t, g.Columns[6].Placements, 1)
	assert.Equal(t, 2, g.Placed())

	empty := BuildWeek(wed, nil, bookings)
	assert.True(t, empty.Empty)
}
