package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// WeekdayOf maps a calendar date to the slot template's weekday.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday().String())
}

const maxAboutLength = 500

type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
	ZipCode string `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
}

type Education struct {
	Degree    string `bson:"degree" json:"degree"`
	Institute string `bson:"institute" json:"institute"`
	Year      string `bson:"year" json:"year"`
}

type Certificate struct {
	Name   string `bson:"name" json:"name"`
	Issuer string `bson:"issuer" json:"issuer"`
	Year   string `bson:"year" json:"year"`
}

// TimeSlot is one entry of the recurring weekly template.
type TimeSlot struct {
	Day         Weekday `bson:"day" json:"day"`
	StartTime   string  `bson:"startTime" json:"startTime"`
	EndTime     string  `bson:"endTime" json:"endTime"`
	IsAvailable bool    `bson:"isAvailable" json:"isAvailable"`
}

// Validate checks the fields the store schema requires. Overlap between
// slots is deliberately not checked.
func (s TimeSlot) Validate() error {
	if !s.Day.Valid() {
		return fmt.Errorf("invalid day %q", s.Day)
	}
	if s.StartTime == "" || s.EndTime == "" {
		return fmt.Errorf("startTime and endTime are required")
	}
	if _, err := ParseClock(s.StartTime); err != nil {
		return err
	}
	if _, err := ParseClock(s.EndTime); err != nil {
		return err
	}
	return nil
}

// Covers reports whether [start, end) lies within the slot.
func (s TimeSlot) Covers(start, end int) bool {
	from, err1 := ParseClock(s.StartTime)
	to, err2 := ParseClock(s.EndTime)
	if err1 != nil || err2 != nil {
		return false
	}
	return start >= from && end <= to
}

type Doctor struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID   `bson:"userId" json:"userId"`
	Specialization string               `bson:"specialization" json:"specialization"`
	License        string               `bson:"license" json:"license"`
	Experience     int                  `bson:"experience" json:"experience"`
	Fees           float64              `bson:"fees" json:"fees"`
	About          string               `bson:"about,omitempty" json:"about,omitempty"`
	Languages      []string             `bson:"languages" json:"languages"`
	Address        Address              `bson:"address" json:"address"`
	Education      []Education          `bson:"education" json:"education"`
	Certificates   []Certificate        `bson:"certificates" json:"certificates"`
	TimeSlots      []TimeSlot           `bson:"timeSlots" json:"timeSlots"`
	Patients       []primitive.ObjectID `bson:"patients" json:"patients"`
	IsAvailable    bool                 `bson:"isAvailable" json:"isAvailable"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (d *Doctor) Validate() error {
	if d.Specialization == "" {
		return fmt.Errorf("specialization is required")
	}
	if d.License == "" {
		return fmt.Errorf("license is required")
	}
	if d.Experience < 0 {
		return fmt.Errorf("experience must not be negative")
	}
	if d.Fees < 0 {
		return fmt.Errorf("fees must not be negative")
	}
	if len(d.About) > maxAboutLength {
		return fmt.Errorf("about must be at most %d characters", maxAboutLength)
	}
	for _, s := range d.TimeSlots {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HasPatient reports whether id is on the doctor's roster.
func (d *Doctor) HasPatient(id primitive.ObjectID) bool {
	for _, p := range d.Patients {
		if p == id {
			return true
		}
	}
	return false
}

// DoctorUpdate carries the PATCH-able profile fields; nil means untouched.
type DoctorUpdate struct {
	Specialization *string       `json:"specialization"`
	License        *string       `json:"license"`
	Experience     *int          `json:"experience"`
	Fees           *float64      `json:"fees"`
	About          *string       `json:"about"`
	Languages      []string      `json:"languages"`
	Address        *Address      `json:"address"`
	Education      []Education   `json:"education"`
	Certificates   []Certificate `json:"certificates"`
}

func (u DoctorUpdate) Empty() bool {
	return u.Specialization == nil && u.License == nil && u.Experience == nil &&
		u.Fees == nil && u.About == nil && u.Languages == nil && u.Address == nil &&
		u.Education == nil && u.Certificates == nil
}

func (u DoctorUpdate) Validate() error {
	if u.Specialization != nil && *u.Specialization == "" {
		return fmt.Errorf("specialization must not be empty")
	}
	if u.License != nil && *u.License == "" {
		return fmt.Errorf("license must not be empty")
	}
	if u.Experience != nil && *u.Experience < 0 {
		return fmt.Errorf("experience must not be negative")
	}
	if u.Fees != nil && *u.Fees < 0 {
		return fmt.Errorf("fees must not be negative")
	}
	if u.About != nil && len(*u.About) > maxAboutLength {
		return fmt.Errorf("about must be at most %d characters", maxAboutLength)
	}
	return nil
}

// Apply copies the set fields onto d.
func (u DoctorUpdate) Apply(d *Doctor) {
	if u.Specialization != nil {
		d.Specialization = *u.Specialization
	}
	if u.License != nil {
		d.License = *u.License
	}
	if u.Experience != nil {
		d.Experience = *u.Experience
	}
	if u.Fees != nil {
		d.Fees = *u.Fees
	}
	if u.About != nil {
		d.About = *u.About
	}
	if u.Languages != nil {
		d.Languages = u.Languages
	}
	if u.Address != nil {
		d.Address = *u.Address
	}
	if u.Education != nil {
		d.Education = u.Education
	}
	if u.Certificates != nil {
		d.Certificates = u.Certificates
	}
}

// DoctorProfile is the populated doctor document returned to its owner.
type DoctorProfile struct {
	*Doctor
	User     *UserSummary  `json:"user"`
	Patients []UserSummary `json:"patients"`
}

// DoctorListing is the public "find a doctor" entry.
type DoctorListing struct {
	ID             primitive.ObjectID `json:"id"`
	User           UserSummary        `json:"user"`
	Specialization string             `json:"specialization"`
	Fees           float64            `json:"fees"`
	TimeSlots      []TimeSlot         `json:"timeSlots"`
}
