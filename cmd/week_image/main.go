// Команда week_image рисует недельную сетку на демо-данных, чтобы проверить вёрстку без базы.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/Freeeeeet/meeting_scheduler/internal/render"
	"github.com/Freeeeeet/meeting_scheduler/internal/timezone"
	"github.com/google/uuid"
)

func main() {
	tz := flag.String("tz", "UTC", "IANA timezone of the viewer")
	out := flag.String("out", "week.png", "output file")
	flag.Parse()

	loc, err := timezone.LoadLocation(*tz)
	if err != nil {
		fmt.Printf("Invalid timezone: %v\n", err)
		os.Exit(1)
	}

	now := time.Now().In(loc)
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	// Начинаем с понедельника текущей недели
	for weekStart.Weekday() != time.Monday {
		weekStart = weekStart.AddDate(0, 0, -1)
	}

	const viewer, colleague, manager = 1, 2, 3
	meetings := []*model.Meeting{
		demoMeeting(weekStart, 0, 9, 60, "Standup", model.MeetingStatusScheduled, viewer, colleague),
		demoMeeting(weekStart, 0, 14, 90, "", model.MeetingStatusScheduled, manager, viewer),
		demoMeeting(weekStart, 1, 10, 60, "Design review", model.MeetingStatusExtended, viewer, manager),
		demoMeeting(weekStart, 1, 11, 45, "1:1", model.MeetingStatusRescheduled, viewer, colleague),
		demoMeeting(weekStart, 2, 16, 30, "Cancelled sync", model.MeetingStatusCancelled, viewer, colleague),
		// Пересекает полночь и делится на два дня
		demoMeeting(weekStart, 4, 23, 120, "Release", model.MeetingStatusScheduled, viewer, manager),
	}

	imageData, err := render.WeekImage(render.WeekData{
		WeekStart: weekStart,
		Location:  loc,
		Now:       now,
		Meetings:  meetings,
		Names: map[int64]string{
			viewer:    "Me",
			colleague: "Alex",
			manager:   "Sam",
		},
		ViewerID: viewer,
	})
	if err != nil {
		fmt.Printf("Render failed: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, imageData, 0644); err != nil {
		fmt.Printf("Write failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Saved %s\n", *out)
	fmt.Printf("Week: %s - %s (%s)\n", weekStart.Format("02.01.2006"), weekStart.AddDate(0, 0, 6).Format("02.01.2006"), loc)
	fmt.Printf("Meetings: %d\n", len(meetings))
}

func demoMeeting(weekStart time.Time, day, hour, minutes int, title string, status model.MeetingStatus, organizer, attendee int64) *model.Meeting {
	start := weekStart.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
	m := &model.Meeting{
		ID:          uuid.New(),
		OrganizerID: organizer,
		Title:       title,
		StartTime:   start.UTC(),
		EndTime:     start.Add(time.Duration(minutes) * time.Minute).UTC(),
		Status:      status,
		Priority:    model.PriorityMedium,
	}
	m.Attendee = &model.MeetingAttendee{MeetingID: m.ID, UserID: attendee, ResponseStatus: model.ResponseAccepted}
	return m
}
