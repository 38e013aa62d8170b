package series

import (
	"reflect"
	"testing"

	"CoinBoard/internal/domain/models"
)

const dayMS = int64(24 * 60 * 60 * 1000)

func pt(ms int64, v float64) models.RawPoint {
	return models.RawPoint{TimestampMS: ms, Value: v, OK: true}
}

func TestReduceDailyEmpty(t *testing.T) {
	got := ReduceDaily(nil, 30)
	if got == nil {
		t.Fatalf("expected non-nil empty slice")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestReduceDailyLastSampleWins(t *testing.T) {
	// Three samples on 1970-01-02, out of chronological order: the last one
	// in input order must win, regardless of timestamp.
	points := []models.RawPoint{
		pt(dayMS+3_600_000, 10),
		pt(dayMS+7_200_000, 20),
		pt(dayMS+1_800_000, 30),
	}
	got := ReduceDaily(points, 30)
	want := []models.DailySample{{Date: "1970-01-02", Value: 30}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReduceDailySortedAscending(t *testing.T) {
	points := []models.RawPoint{
		pt(5*dayMS, 5),
		pt(1*dayMS, 1),
		pt(3*dayMS, 3),
	}
	got := ReduceDaily(points, 30)
	if len(got) != 3 {
		t.Fatalf("expected 3 days, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Date >= got[i].Date {
			t.Fatalf("dates not strictly increasing: %q then %q", got[i-1].Date, got[i].Date)
		}
	}
}

func TestReduceDailyTruncatesToMostRecent(t *testing.T) {
	points := make([]models.RawPoint, 0, 45)
	for d := int64(1); d <= 45; d++ {
		points = append(points, pt(d*dayMS, float64(d)))
	}
	got := ReduceDaily(points, 30)
	if len(got) != 30 {
		t.Fatalf("expected 30 days, got %d", len(got))
	}
	// The 15 oldest days must have been dropped from the front.
	if got[0].Value != 16 {
		t.Fatalf("expected oldest kept value 16, got %v", got[0].Value)
	}
	if got[len(got)-1].Value != 45 {
		t.Fatalf("expected newest value 45, got %v", got[len(got)-1].Value)
	}
}

func TestReduceDailySkipsMalformed(t *testing.T) {
	points := []models.RawPoint{
		pt(dayMS, 1),
		{OK: false},
		pt(2*dayMS, 2),
	}
	got := ReduceDaily(points, 30)
	if len(got) != 2 {
		t.Fatalf("expected malformed sample skipped, got %v", got)
	}
}

func TestReduceDailyIdempotentOnDailyInput(t *testing.T) {
	points := []models.RawPoint{
		pt(1*dayMS, 100),
		pt(2*dayMS, 200),
		pt(3*dayMS, 300),
	}
	first := ReduceDaily(points, 30)

	again := make([]models.RawPoint, 0, len(first))
	for d, s := range first {
		again = append(again, pt(int64(d+1)*dayMS, s.Value))
	}
	second := ReduceDaily(again, 30)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not idempotent: first %v, second %v", first, second)
	}
}

func TestReduceDailyDayBoundaryUTC(t *testing.T) {
	// 1970-01-01T23:59:59.999Z and 1970-01-02T00:00:00.000Z are distinct days.
	points := []models.RawPoint{
		pt(dayMS-1, 1),
		pt(dayMS, 2),
	}
	got := ReduceDaily(points, 30)
	want := []models.DailySample{
		{Date: "1970-01-01", Value: 1},
		{Date: "1970-01-02", Value: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReduceDailyNonPositiveMaxDays(t *testing.T) {
	points := []models.RawPoint{
		pt(1*dayMS, 1),
		pt(2*dayMS, 2),
	}
	got := ReduceDaily(points, 0)
	if len(got) != 1 || got[0].Value != 2 {
		t.Fatalf("expected single most recent day, got %v", got)
	}
}
