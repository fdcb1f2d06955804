package config

import (
    "fmt"
    "os"
    "regexp"

    "gopkg.in/yaml.v3"
)

// HotelExternal is the pseudo-hotel for guests staying elsewhere.  For it
// the room field carries the guest's phone or e-mail instead.
const HotelExternal = "Externo"

// SlotTemplate describes one slot the provisioner and the "add defaults"
// admin action create for a day.
type SlotTemplate struct {
    Time     string `yaml:"time"`
    Language string `yaml:"language"`
    Seats    int    `yaml:"seats"`
}

// Schedule is the part of the booking setup that operators may override
// with a YAML file.
type Schedule struct {
    Hotels       []string       `yaml:"hotels"`
    DefaultSlots []SlotTemplate `yaml:"default_slots"`
}

var hhmm = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// DefaultSchedule returns the built-in hotels and the two evening tours.
func DefaultSchedule() Schedule {
    return Schedule{
        Hotels: []string{"Sheraton", "Huentala", "Hualta"},
        DefaultSlots: []SlotTemplate{
            {Time: "19:00", Language: "Español", Seats: 15},
            {Time: "19:30", Language: "English", Seats: 15},
        },
    }
}

// LoadSchedule reads a schedule file.  Sections left empty in the file
// keep their built-in values.
func LoadSchedule(path string) (Schedule, error) {
    raw, err := os.ReadFile(path)
    if err != nil {
        return Schedule{}, fmt.Errorf("read schedule: %w", err)
    }
    var s Schedule
    if err := yaml.Unmarshal(raw, &s); err != nil {
        return Schedule{}, fmt.Errorf("parse schedule: %w", err)
    }
    def := DefaultSchedule()
    if len(s.Hotels) == 0 {
        s.Hotels = def.Hotels
    }
    if len(s.DefaultSlots) == 0 {
        s.DefaultSlots = def.DefaultSlots
    }
    if err := s.Validate(); err != nil {
        return Schedule{}, err
    }
    return s, nil
}

// Validate checks template times and seat counts.  Language names are
// normalized later by the model package, so only emptiness is checked here.
func (s Schedule) Validate() error {
    for i, t := range s.DefaultSlots {
        if !hhmm.MatchString(t.Time) {
            return fmt.Errorf("default_slots[%d]: invalid time %q", i, t.Time)
        }
        if t.Language == "" {
            return fmt.Errorf("default_slots[%d]: language is required", i)
        }
        if t.Seats < 1 {
            return fmt.Errorf("default_slots[%d]: seats must be positive", i)
        }
    }
    for i, h := range s.Hotels {
        if h == "" || h == HotelExternal {
            return fmt.Errorf("hotels[%d]: invalid hotel %q", i, h)
        }
    }
    return nil
}

// HotelAllowed reports whether name is one of the configured hotels or
// the external pseudo-hotel.
func (s Schedule) HotelAllowed(name string) bool {
    if name == HotelExternal {
        return true
    }
    for _, h := range s.Hotels {
        if h == name {
            return true
        }
    }
    return false
}
