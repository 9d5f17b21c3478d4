package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard five-field schedules (minute through day-of-week).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// validateSchedule checks that a cron schedule is parseable
func validateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// scheduleDescription returns a human-readable description of a cron schedule
func scheduleDescription(schedule string) string {
	switch schedule {
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// nextRunTime calculates when a schedule next fires
func nextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}
