package service

import (
	"context"
	"math"

	"github.com/iliyamo/winery-visit-booking/internal/model"
	"github.com/iliyamo/winery-visit-booking/internal/repository"
)

// AnalyticsDays is the default look-back window of the analytics view.
const AnalyticsDays = 30

// StatsService computes the admin dashboard figures.
type StatsService struct {
	slots  *repository.SlotRepo
	visits *repository.ReservationRepo
}

// NewStatsService returns a StatsService.
func NewStatsService(slots *repository.SlotRepo, visits *repository.ReservationRepo) *StatsService {
	return &StatsService{slots: slots, visits: visits}
}

// DailyStats summarises one day.  Occupancy is the share of booked seats
// over the day's total capacity, in whole percent.
type DailyStats struct {
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Spanish   int    `json:"es"`
	English   int    `json:"en"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Occupancy int    `json:"occupancy"`
}

// ComputeDailyStats derives the figures from already loaded rows.  Legacy
// language aliases count as their canonical language.
func ComputeDailyStats(date string, slots []model.Slot, visits []model.Reservation) DailyStats {
	st := DailyStats{Date: date, Total: len(visits)}
	for _, v := range visits {
		switch {
		case model.IsSpanish(v.Language):
			st.Spanish++
		case model.IsEnglish(v.Language):
			st.English++
		}
	}
	for _, s := range slots {
		st.Capacity += s.TotalSeats
		st.Booked += s.Booked()
	}
	if st.Capacity > 0 {
		st.Occupancy = int(math.Round(float64(st.Booked) / float64(st.Capacity) * 100))
	}
	return st
}

// Daily loads one day and computes its stats.
func (s *StatsService) Daily(ctx context.Context, date string) (DailyStats, error) {
	if !model.ValidDate(date) {
		ve := &ValidationError{}
		ve.add("date", "must be YYYY-MM-DD")
		return DailyStats{}, ve
	}
	slots, err := s.slots.ListByDate(ctx, date)
	if err != nil {
		return DailyStats{}, err
	}
	visits, err := s.visits.ListByDate(ctx, date)
	if err != nil {
		return DailyStats{}, err
	}
	return ComputeDailyStats(date, slots, visits), nil
}

// DayCount is one day of the analytics history.
type DayCount struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Spanish int    `json:"es"`
	English int    `json:"en"`
}

// Analytics is the per-day reservation history ending today.
type Analytics struct {
	From    string     `json:"from"`
	To      string     `json:"to"`
	History []DayCount `json:"daily_history"`
	Totals  struct {
		Spanish int `json:"es"`
		English int `json:"en"`
		All     int `json:"all"`
	} `json:"totals"`
}

// Analytics returns the history from today-days to today inclusive with
// every day present, zero-filled when nothing was booked.  Anything not
// Spanish counts as English.
func (s *StatsService) Analytics(ctx context.Context, today string, days int) (Analytics, error) {
	end, ok := model.ParseDate(today)
	if !ok {
		ve := &ValidationError{}
		ve.add("today", "must be YYYY-MM-DD")
		return Analytics{}, ve
	}
	if days <= 0 {
		days = AnalyticsDays
	}
	start := end.AddDate(0, 0, -days)
	out := Analytics{From: model.FormatDate(start), To: today}

	counts, err := s.visits.CountByDayLanguage(ctx, out.From, out.To)
	if err != nil {
		return Analytics{}, err
	}
	byDay := make(map[string]*DayCount)
	for _, c := range counts {
		dc := byDay[c.Date]
		if dc == nil {
			dc = &DayCount{Date: c.Date}
			byDay[c.Date] = dc
		}
		dc.Total += c.Count
		if model.IsSpanish(c.Language) {
			dc.Spanish += c.Count
			out.Totals.Spanish += c.Count
		} else {
			dc.English += c.Count
			out.Totals.English += c.Count
		}
		out.Totals.All += c.Count
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := model.FormatDate(d)
		if dc := byDay[date]; dc != nil {
			out.History = append(out.History, *dc)
		} else {
			out.History = append(out.History, DayCount{Date: date})
		}
	}
	return out, nil
}
