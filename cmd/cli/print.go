package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/notify"
	"github.com/yourorg/wanderplan/internal/timeline"
)

var (
	titleColor = color.New(color.Bold)
	dimColor   = color.New(color.FgHiBlack)
	levels     = map[notify.Level]*color.Color{
		notify.Info:    color.New(color.FgCyan),
		notify.Success: color.New(color.FgGreen),
		notify.Warn:    color.New(color.FgYellow),
		notify.Error:   color.New(color.FgRed, color.Bold),
	}
)

func printNotice(n notify.Notice) {
	c, ok := levels[n.Level]
	if !ok {
		c = levels[notify.Info]
	}
	c.Printf("%s: ", n.Title)
	fmt.Println(n.Message)
}

func printTrip(t models.Trip, active bool) {
	marker := "  "
	if active {
		marker = color.GreenString("* ")
	}
	fmt.Printf("%s%s  %s  %s..%s  %s\n", marker, dimColor.Sprint(t.ID), titleColor.Sprint(t.Title),
		t.StartDate, t.EndDate, t.Status)
}

func printDays(days []timeline.Day, loc *time.Location, unscheduled []models.TripItem) {
	for _, d := range days {
		titleColor.Printf("Day %d  %s\n", d.Index+1, d.Date)
		if len(d.Items) == 0 {
			dimColor.Println("   (nothing planned)")
		}
		for _, it := range d.Items {
			fmt.Printf("   %s  %-10s %s%s\n", it.StartAt.In(loc).Format("15:04"), it.ItemType.Info().Label, it.Title, place(it))
		}
	}
	if len(unscheduled) > 0 {
		titleColor.Println("Unscheduled")
		for _, it := range unscheduled {
			fmt.Printf("   %-10s %s%s\n", it.ItemType.Info().Label, it.Title, place(it))
		}
	}
}

func place(it models.TripItem) string {
	var parts []string
	if it.LocationName != nil && *it.LocationName != "" {
		parts = append(parts, *it.LocationName)
	}
	if !it.HasLocation() && it.ItemType != models.ItemNote {
		parts = append(parts, color.YellowString("no coordinates"))
	}
	if len(parts) == 0 {
		return ""
	}
	return dimColor.Sprint("  (") + strings.Join(parts, ", ") + dimColor.Sprint(")")
}
