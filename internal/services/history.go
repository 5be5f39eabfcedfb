package services

import (
	"fmt"
	"sort"
	"time"

	"rideaxis/internal/models"
)

// ChartData feeds the monthly completed-rides chart.
type ChartData struct {
	Months []string `json:"months"`
	Counts []int    `json:"counts"`
}

// MonthlyChart counts rides per departure month, as seen in loc, in
// ascending order with labels such as "Jan 2024".
func MonthlyChart(rides []models.Ride, loc *time.Location) ChartData {
	if loc == nil {
		loc = time.UTC
	}
	type month struct{ year, month int }
	counts := make(map[month]int)
	for _, r := range rides {
		t := r.DepartureTime.In(loc)
		counts[month{t.Year(), int(t.Month())}]++
	}

	keys := make([]month, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	chart := ChartData{Months: make([]string, 0, len(keys)), Counts: make([]int, 0, len(keys))}
	for _, k := range keys {
		chart.Months = append(chart.Months, fmt.Sprintf("%s %d", monthNames[k.month-1], k.year))
		chart.Counts = append(chart.Counts, counts[k])
	}
	return chart
}

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
