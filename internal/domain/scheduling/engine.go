package scheduling

import "sort"

// interval is a half-open [Start, End) range in minutes since midnight.
type interval struct {
	Start, End int
}

// BookedSlot is an existing appointment's occupied range, its duration already
// resolved through the appointment's own specialty.
type BookedSlot struct {
	StartMin int
	Minutes  int
}

// EngineInput carries everything AvailableSlots needs for one doctor/date.
// Schedules must already be filtered to active rows for the date's weekday;
// Exceptions to rows for the date; Booked to non-cancelled appointments.
type EngineInput struct {
	Schedules   []*WeeklySchedule
	Exceptions  []*Exception
	Booked      []BookedSlot
	SlotMinutes int
	// NowMin, when non-negative, is the wall-clock cutoff in minutes for a
	// same-day query: slots at or before it are dropped. Pass -1 for future
	// dates.
	NowMin int
}

// AvailableSlots computes the ordered, duplicate-free list of bookable "HH:MM"
// start times. It is a pure function of its input.
func AvailableSlots(in EngineInput) ([]string, error) {
	windows, err := resolveWindows(in.Schedules, in.Exceptions)
	if err != nil {
		return nil, err
	}

	slots := []string{}
	for _, w := range windows {
		for t := w.Start; t+in.SlotMinutes <= w.End; t += in.SlotMinutes {
			if in.NowMin >= 0 && t <= in.NowMin {
				continue
			}
			if overlapsBooked(t, t+in.SlotMinutes, in.Booked) {
				continue
			}
			slots = append(slots, FormatClock(t))
		}
	}
	// Windows are merged and disjoint, so slots come out sorted already.
	return slots, nil
}

// resolveWindows builds the day's availability windows: base weekly windows,
// plus additive exceptions, minus blocking exceptions. Blocking wins on
// overlap, so additions are applied before subtractions.
func resolveWindows(schedules []*WeeklySchedule, exceptions []*Exception) ([]interval, error) {
	var windows []interval
	for _, s := range schedules {
		w, err := parseInterval(s.StartTime, s.EndTime)
		if err != nil {
			return nil, err
		}
		if w.Start < w.End {
			windows = append(windows, w)
		}
	}

	for _, e := range exceptions {
		if !e.IsAvailable || e.StartTime == nil || e.EndTime == nil {
			continue
		}
		w, err := parseInterval(*e.StartTime, *e.EndTime)
		if err != nil {
			return nil, err
		}
		if w.Start < w.End {
			windows = append(windows, w)
		}
	}

	windows = mergeIntervals(windows)

	for _, e := range exceptions {
		if e.IsAvailable {
			continue
		}
		if e.StartTime == nil || e.EndTime == nil {
			// Whole-day block.
			return nil, nil
		}
		blocked, err := parseInterval(*e.StartTime, *e.EndTime)
		if err != nil {
			return nil, err
		}
		windows = subtract(windows, blocked)
	}

	return windows, nil
}

func parseInterval(start, end string) (interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return interval{}, err
	}
	return interval{Start: s, End: e}, nil
}

// mergeIntervals sorts and coalesces overlapping or adjacent intervals.
func mergeIntervals(ivs []interval) []interval {
	if len(ivs) == 0 {
		return nil
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })
	out := []interval{ivs[0]}
	for _, iv := range ivs[1:] {
		last := &out[len(out)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// subtract removes the blocked range from every window.
func subtract(windows []interval, blocked interval) []interval {
	var out []interval
	for _, w := range windows {
		if blocked.End <= w.Start || w.End <= blocked.Start {
			out = append(out, w)
			continue
		}
		if w.Start < blocked.Start {
			out = append(out, interval{Start: w.Start, End: blocked.Start})
		}
		if blocked.End < w.End {
			out = append(out, interval{Start: blocked.End, End: w.End})
		}
	}
	return out
}

func overlapsBooked(start, end int, booked []BookedSlot) bool {
	for _, b := range booked {
		if b.StartMin < end && start < b.StartMin+b.Minutes {
			return true
		}
	}
	return false
}
