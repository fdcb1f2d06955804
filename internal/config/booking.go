package config

import (
    "time"
)

// BookingConfig groups the knobs of the booking workflow.
type BookingConfig struct {
    HorizonDays  int            // rolling window the provisioner keeps filled
    Location     *time.Location // timezone that defines "today" for visitors
    ScheduleFile string         // optional YAML file with hotels and slot templates
    Schedule     Schedule       // resolved hotels and default slot templates
}

// LoadBookingConfig reads BOOKING_HORIZON_DAYS, BOOKING_TIMEZONE and
// SCHEDULE_FILE.  An unknown timezone falls back to UTC and a missing or
// broken schedule file falls back to the built-in schedule.
func LoadBookingConfig() BookingConfig {
    loc, err := time.LoadLocation(envStr("BOOKING_TIMEZONE", "America/Argentina/Mendoza"))
    if err != nil {
        loc = time.UTC
    }
    cfg := BookingConfig{
        HorizonDays:  envInt("BOOKING_HORIZON_DAYS", 60),
        Location:     loc,
        ScheduleFile: envStr("SCHEDULE_FILE", ""),
        Schedule:     DefaultSchedule(),
    }
    if cfg.HorizonDays < 1 {
        cfg.HorizonDays = 60
    }
    if cfg.ScheduleFile != "" {
        if s, err := LoadSchedule(cfg.ScheduleFile); err == nil {
            cfg.Schedule = s
        }
    }
    return cfg
}
