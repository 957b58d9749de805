package scheduling

import (
	"reflect"
	"testing"
)

func window(day int, start, end string) *WeeklySchedule {
	return &WeeklySchedule{DayOfWeek: day, StartTime: start, EndTime: end, IsActive: true}
}

func strptr(s string) *string { return &s }

func mustSlots(t *testing.T, in EngineInput) []string {
	t.Helper()
	got, err := AvailableSlots(in)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	return got
}

func TestMondayMorningSlots(t *testing.T) {
	got := mustSlots(t, EngineInput{
		Schedules:   []*WeeklySchedule{window(1, "09:00", "12:00")},
		SlotMinutes: 30,
		NowMin:      -1,
	})
	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBookedAppointmentRemovesSlot(t *testing.T) {
	got := mustSlots(t, EngineInput{
		Schedules:   []*WeeklySchedule{window(1, "09:00", "12:00")},
		Booked:      []BookedSlot{{StartMin: 10 * 60, Minutes: 30}},
		SlotMinutes: 30,
		NowMin:      -1,
	})
	want := []string{"09:00", "09:30", "10:30", "11:00", "11:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBlockingExceptionRemovesRange(t *testing.T) {
	got := mustSlots(t, EngineInput{
		Schedules: []*WeeklySchedule{window(1, "09:00", "12:00")},
		Exceptions: []*Exception{{
			IsAvailable: false,
			StartTime:   strptr("10:00"),
			EndTime:     strptr("11:00"),
		}},
		SlotMinutes: 30,
		NowMin:      -1,
	})
	want := []string{"09:00", "09:30", "11:00", "11:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFullDayBlock(t *testing.T) {
	got := mustSlots(t, EngineInput{
		Schedules:   []*WeeklySchedule{window(1, "09:00", "12:00")},
		Exceptions:  []*Exception{{IsAvailable: false, Reason: strptr("vacaciones")}},
		SlotMinutes: 30,
		NowMin:      -1,
	})
	if len(got) != 0 {
		t.Fatalf("expected no slots on a fully blocked day, got %v", got)
	}
}

func TestAdditiveExceptionOnEmptyDay(t *testing.T) {
	got := mustSlots(t, EngineInput{
		Exceptions: []*Exception{{
			IsAvailable: true,
			StartTime:   strptr("14:00"),
			EndTime:     strptr("15:00"),
		}},
		SlotMinutes: 30,
		NowMin:      -1,
	})
	want := []string{"14:00", "14:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestOverlappingWindowsProduceNoDuplicates(t *testing.T) {
	got := mustSlots(t, EngineInput{
		Schedules: []*WeeklySchedule{
			window(1, "09:00", "12:00"),
			window(1, "09:00", "12:00"),
			window(1, "11:00", "13:00"),
		},
		SlotMinutes: 60,
		NowMin:      -1,
	})
	want := []string{"09:00", "10:00", "11:00", "12:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	seen := map[string]bool{}
	for _, s := range got {
		if seen[s] {
			t.Fatalf("duplicate slot %s", s)
		}
		seen[s] = true
	}
}

func TestNoScheduleNoExceptionsIsEmpty(t *testing.T) {
	got := mustSlots(t, EngineInput{SlotMinutes: 30, NowMin: -1})
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestTrailingPartialSlotDropped(t *testing.T) {
	got := mustSlots(t, EngineInput{
		Schedules:   []*WeeklySchedule{window(1, "09:00", "10:15")},
		SlotMinutes: 30,
		NowMin:      -1,
	})
	want := []string{"09:00", "09:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSameDayCutoffDropsPastSlots(t *testing.T) {
	got := mustSlots(t, EngineInput{
		Schedules:   []*WeeklySchedule{window(1, "09:00", "12:00")},
		SlotMinutes: 30,
		NowMin:      10*60 + 15, // 10:15
	})
	want := []string{"10:30", "11:00", "11:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBlockingWinsOverAdditiveOverlap(t *testing.T) {
	got := mustSlots(t, EngineInput{
		Exceptions: []*Exception{
			{IsAvailable: true, StartTime: strptr("10:00"), EndTime: strptr("12:00")},
			{IsAvailable: false, StartTime: strptr("10:30"), EndTime: strptr("11:00")},
		},
		SlotMinutes: 30,
		NowMin:      -1,
	})
	want := []string{"10:00", "11:00", "11:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestInactiveScheduleRowsAreSkippedByCaller(t *testing.T) {
	// The service filters inactive rows before calling the engine; a row with
	// zero length is also ignored here.
	got := mustSlots(t, EngineInput{
		Schedules:   []*WeeklySchedule{window(1, "09:00", "09:00")},
		SlotMinutes: 30,
		NowMin:      -1,
	})
	if len(got) != 0 {
		t.Fatalf("expected empty result for zero-length window, got %v", got)
	}
}

func TestEngineIsIdempotent(t *testing.T) {
	in := EngineInput{
		Schedules: []*WeeklySchedule{window(1, "09:00", "12:00")},
		Exceptions: []*Exception{
			{IsAvailable: false, StartTime: strptr("10:00"), EndTime: strptr("10:30")},
		},
		Booked:      []BookedSlot{{StartMin: 11 * 60, Minutes: 30}},
		SlotMinutes: 30,
		NowMin:      -1,
	}
	first := mustSlots(t, in)
	second := mustSlots(t, in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ: %v vs %v", first, second)
	}
}

func TestInvalidClockStringErrors(t *testing.T) {
	_, err := AvailableSlots(EngineInput{
		Schedules:   []*WeeklySchedule{window(1, "9am", "12:00")},
		SlotMinutes: 30,
		NowMin:      -1,
	})
	if err == nil {
		t.Fatal("expected error for malformed time string")
	}
}
