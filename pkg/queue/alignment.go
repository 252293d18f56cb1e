package queue

import (
	"fmt"
	"time"
)

// Alignment decides at which wall-clock instants the trigger queue fires.
// Every alignment matches only at second zero of a minute.
type Alignment interface {
	Matches(t time.Time) bool
	String() string
}

// minuteAlignment fires at the start of every n-th minute of the hour
type minuteAlignment struct {
	every int
}

func (a minuteAlignment) Matches(t time.Time) bool {
	return t.Second() == 0 && t.Minute()%a.every == 0
}

func (a minuteAlignment) String() string {
	if a.every == 1 {
		return "every minute"
	}
	return fmt.Sprintf("every %d minutes", a.every)
}

// hourlyAlignment fires once per hour at the given minute
type hourlyAlignment struct {
	minute int
}

func (a hourlyAlignment) Matches(t time.Time) bool {
	return t.Second() == 0 && t.Minute() == a.minute
}

func (a hourlyAlignment) String() string {
	return fmt.Sprintf("hourly at :%02d", a.minute)
}

// dailyAlignment fires once per day at hour:minute
type dailyAlignment struct {
	hour   int
	minute int
}

func (a dailyAlignment) Matches(t time.Time) bool {
	return t.Second() == 0 && t.Hour() == a.hour && t.Minute() == a.minute
}

func (a dailyAlignment) String() string {
	return fmt.Sprintf("daily at %02d:%02d", a.hour, a.minute)
}

// weeklyAlignment fires once per week on weekday at hour:minute
type weeklyAlignment struct {
	weekday time.Weekday
	hour    int
	minute  int
}

func (a weeklyAlignment) Matches(t time.Time) bool {
	return t.Weekday() == a.weekday && dailyAlignment{hour: a.hour, minute: a.minute}.Matches(t)
}

func (a weeklyAlignment) String() string {
	return fmt.Sprintf("weekly on %s at %02d:%02d", a.weekday, a.hour, a.minute)
}

// EveryMinute fires at second zero of every minute
func EveryMinute() Alignment {
	return minuteAlignment{every: 1}
}

// EveryMinutes fires at second zero of every minute divisible by n
func EveryMinutes(n int) Alignment {
	return minuteAlignment{every: max(n, 1)}
}

// Hourly fires every hour at :00
func Hourly() Alignment {
	return hourlyAlignment{minute: 0}
}

// HourlyAt fires every hour at the given minute
func HourlyAt(minute int) Alignment {
	return hourlyAlignment{minute: minute}
}

// DailyAt fires every day at hour:minute
func DailyAt(hour, minute int) Alignment {
	return dailyAlignment{hour: hour, minute: minute}
}

// WeeklyOn fires every week on weekday at hour:minute
func WeeklyOn(weekday time.Weekday, hour, minute int) Alignment {
	return weeklyAlignment{weekday: weekday, hour: hour, minute: minute}
}
