package booking

import (
	"errors"
	"testing"
	"time"
)

func window(day int, start, end string) AvailabilityWindow {
	return AvailabilityWindow{DayOfWeek: day, StartTime: start, EndTime: end, IsAvailable: true}
}

func slotStrings(t *testing.T, slots []Slot) []string {
	t.Helper()
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Start.String() + "-" + s.End.String()
	}
	return out
}

func assertSlots(t *testing.T, got []Slot, want ...string) {
	t.Helper()
	gotStr := slotStrings(t, got)
	if len(gotStr) != len(want) {
		t.Fatalf("got %v, want %v", gotStr, want)
	}
	for i := range want {
		if gotStr[i] != want[i] {
			t.Fatalf("slot %d: got %v, want %v", i, gotStr, want)
		}
	}
}

func TestGenerateSlotsSingleExactWindow(t *testing.T) {
	slots, err := GenerateSlots([]AvailabilityWindow{window(1, "09:00", "10:00")}, nil, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	assertSlots(t, slots, "09:00-10:00")
}

func TestGenerateSlotsTrailingRemainderDropped(t *testing.T) {
	// 45 minutes cannot hold a one-hour slot
	slots, err := GenerateSlots([]AvailabilityWindow{window(1, "09:00", "09:45")}, nil, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slotStrings(t, slots))
	}

	// 2.5 hours holds exactly two
	slots, err = GenerateSlots([]AvailabilityWindow{window(1, "09:00", "11:30")}, nil, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	assertSlots(t, slots, "09:00-10:00", "10:00-11:00")
}

func TestGenerateSlotsBookedMiddle(t *testing.T) {
	slots, err := GenerateSlots(
		[]AvailabilityWindow{window(1, "09:00", "12:00")},
		[]Interval{{Start: "10:00", End: "11:00"}},
		time.Hour,
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	assertSlots(t, slots, "09:00-10:00", "11:00-12:00")
}

func TestGenerateSlotsBookedStraddlesWindowStart(t *testing.T) {
	// a booking that began before the window still blocks the first slot
	slots, err := GenerateSlots(
		[]AvailabilityWindow{window(1, "09:00", "11:00")},
		[]Interval{{Start: "08:30", End: "09:30"}},
		time.Hour,
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	assertSlots(t, slots, "10:00-11:00")
}

func TestGenerateSlotsAllBooked(t *testing.T) {
	slots, err := GenerateSlots(
		[]AvailabilityWindow{window(1, "09:00", "11:00")},
		[]Interval{{Start: "09:00", End: "10:00"}, {Start: "10:00", End: "11:00"}},
		time.Hour,
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slotStrings(t, slots))
	}
}

func TestGenerateSlotsNoWindows(t *testing.T) {
	slots, err := GenerateSlots(nil, nil, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slotStrings(t, slots))
	}
}

func TestGenerateSlotsOverlappingWindowsDeduplicated(t *testing.T) {
	slots, err := GenerateSlots(
		[]AvailabilityWindow{
			window(1, "09:00", "11:00"),
			window(1, "10:00", "12:00"),
		},
		nil,
		time.Hour,
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	assertSlots(t, slots, "09:00-10:00", "10:00-11:00", "11:00-12:00")
}

func TestGenerateSlotsUnavailableWindowSkipped(t *testing.T) {
	closed := window(1, "09:00", "10:00")
	closed.IsAvailable = false

	slots, err := GenerateSlots([]AvailabilityWindow{closed, window(1, "14:00", "15:00")}, nil, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	assertSlots(t, slots, "14:00-15:00")
}

func TestGenerateSlotsContainmentAndLength(t *testing.T) {
	windows := []AvailabilityWindow{
		window(1, "08:00", "11:30"),
		window(1, "13:00", "17:00"),
	}
	booked := []Interval{
		{Start: "09:00", End: "10:00"},
		{Start: "14:30", End: "15:30"},
	}

	slots, err := GenerateSlots(windows, booked, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, s := range slots {
		if s.End-s.Start != 60 {
			t.Errorf("slot %s-%s is not one hour", s.Start, s.End)
		}

		contained := false
		for _, w := range windows {
			start, _ := ParseTimeOfDay(w.StartTime)
			end, _ := ParseTimeOfDay(w.EndTime)
			if s.Start >= start && s.End <= end {
				contained = true
			}
		}
		if !contained {
			t.Errorf("slot %s-%s lies outside every window", s.Start, s.End)
		}

		for _, b := range booked {
			bs, _ := ParseTimeOfDay(b.Start)
			be, _ := ParseTimeOfDay(b.End)
			if s.Overlaps(bs, be) {
				t.Errorf("slot %s-%s overlaps booked %s-%s", s.Start, s.End, b.Start, b.End)
			}
		}
	}
}

func TestGenerateSlotsDeterministic(t *testing.T) {
	windows := []AvailabilityWindow{window(1, "09:00", "12:00")}
	booked := []Interval{{Start: "10:00", End: "11:00"}}

	first, err := GenerateSlots(windows, booked, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := GenerateSlots(windows, booked, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("outputs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("outputs differ at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestGenerateSlotsMalformedTimes(t *testing.T) {
	tests := []struct {
		name    string
		windows []AvailabilityWindow
		booked  []Interval
	}{
		{"bad window start", []AvailabilityWindow{window(1, "9:00", "12:00")}, nil},
		{"bad window end", []AvailabilityWindow{window(1, "09:00", "noon")}, nil},
		{"bad booked start", []AvailabilityWindow{window(1, "09:00", "12:00")}, []Interval{{Start: "25:00", End: "11:00"}}},
		{"bad booked end", []AvailabilityWindow{window(1, "09:00", "12:00")}, []Interval{{Start: "10:00", End: "10:75"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateSlots(tt.windows, tt.booked, time.Hour)
			if !errors.Is(err, ErrInvalidTimeFormat) {
				t.Fatalf("expected ErrInvalidTimeFormat, got %v", err)
			}
		})
	}
}

func TestGenerateSlotsBadGranularity(t *testing.T) {
	if _, err := GenerateSlots(nil, nil, 0); !errors.Is(err, ErrInvalidGranularity) {
		t.Fatalf("expected ErrInvalidGranularity, got %v", err)
	}
	if _, err := GenerateSlots(nil, nil, 90*time.Second); !errors.Is(err, ErrInvalidGranularity) {
		t.Fatalf("expected ErrInvalidGranularity, got %v", err)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"9:00", 0, true},
		{"09-00", 0, true},
		{"", 0, true},
		{"ab:cd", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTimeFormat) {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %v, %v", tt.in, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseTimeOfDay(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
