// Package render рисует недельный календарь встреч пользователя в PNG.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Размеры и отступы
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 140
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	daysInWeek       = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 18
	maxLabelLen      = 22
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	scheduledColor   = color.RGBA{133, 193, 85, 220}
	rescheduledColor = color.RGBA{255, 196, 87, 230}
	extendedColor    = color.RGBA{255, 182, 193, 255}
	defaultColor     = color.RGBA{220, 220, 220, 200}
	meetingTextColor = color.RGBA{20, 24, 28, 230}
	slotShadowColor  = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

// WeekData - всё, что нужно для картинки. Время встреч переводится в Location.
type WeekData struct {
	WeekStart time.Time // понедельник 00:00 в поясе пользователя
	Location  *time.Location
	Now       time.Time
	Meetings  []*model.Meeting
	// Names - подписи собеседников по id пользователя
	Names    map[int64]string
	ViewerID int64
}

type hourRange struct {
	start int
	end   int
	total int
}

// block - кусок встречи в пределах одного дня
type block struct {
	start, end float64 // часы от полуночи
	label      string
	status     model.MeetingStatus
}

// WeekImage рисует неделю WeekStart..WeekStart+7д
func WeekImage(data WeekData) ([]byte, error) {
	loc := data.Location
	if loc == nil {
		loc = time.UTC
	}
	weekStart := data.WeekStart.In(loc)
	now := data.Now.In(loc)

	blocks := groupByDay(data, weekStart, loc)
	hours := calculateHourRange(blocks)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	todayIndex := dayIndexOf(now, weekStart)

	drawHeader(dc, weekStart)
	drawHourLabels(dc, hours, cellHeight)
	for i := 0; i < daysInWeek; i++ {
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, i == todayIndex)
		drawDayHeader(dc, weekStart.AddDate(0, 0, i), x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, b := range blocks[i] {
			drawBlock(dc, b, x, y, dayWidth, hours, cellHeight)
		}
	}
	if todayIndex >= 0 {
		drawCurrentTimeLine(dc, now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

// dayIndexOf - номер дня недели для t или -1, если t вне недели
func dayIndexOf(t, weekStart time.Time) int {
	for i := 0; i < daysInWeek; i++ {
		dayStart := weekStart.AddDate(0, 0, i)
		if !t.Before(dayStart) && t.Before(dayStart.AddDate(0, 0, 1)) {
			return i
		}
	}
	return -1
}

// groupByDay режет встречи по локальным суткам. Встреча через полночь попадает в оба дня.
func groupByDay(data WeekData, weekStart time.Time, loc *time.Location) map[int][]block {
	out := make(map[int][]block)

	for _, m := range data.Meetings {
		if !m.Status.IsActive() {
			continue
		}
		start := m.StartTime.In(loc)
		end := m.EndTime.In(loc)
		label := meetingLabel(m, data.ViewerID, data.Names)

		for i := 0; i < daysInWeek; i++ {
			dayStart := weekStart.AddDate(0, 0, i)
			dayEnd := dayStart.AddDate(0, 0, 1)
			if !start.Before(dayEnd) || !end.After(dayStart) {
				continue
			}

			from, to := start, end
			if from.Before(dayStart) {
				from = dayStart
			}
			if to.After(dayEnd) {
				to = dayEnd
			}
			out[i] = append(out[i], block{
				start:  from.Sub(dayStart).Hours(),
				end:    to.Sub(dayStart).Hours(),
				label:  label,
				status: m.Status,
			})
		}
	}
	return out
}

func meetingLabel(m *model.Meeting, viewerID int64, names map[int64]string) string {
	label := m.Title
	if label == "" {
		for _, id := range m.Participants() {
			if id != viewerID {
				if name, ok := names[id]; ok {
					label = name
				}
			}
		}
	}
	if len(label) > maxLabelLen {
		label = label[:maxLabelLen-3] + "..."
	}
	return label
}

// calculateHourRange определяет диапазон часов для отображения
func calculateHourRange(blocks map[int][]block) hourRange {
	minHour, maxHour := 24, 0
	for _, day := range blocks {
		for _, b := range day {
			startH := int(b.start)
			endH := int(b.end)
			if float64(endH) < b.end {
				endH++
			}
			minHour = min(minHour, startH)
			maxHour = max(maxHour, endH)
		}
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(minHour-hourPaddingTop, 0)
	end := min(maxHour+hourPaddingBot, 24)
	return hourRange{start: start, end: end, total: end - start}
}

func drawHeader(dc *gg.Context, weekStart time.Time) {
	weekEnd := weekStart.AddDate(0, 0, daysInWeek-1)

	title := weekStart.Format("January 2006")
	if weekStart.Month() != weekEnd.Month() {
		title = weekStart.Format("January") + " - " + weekEnd.Format("January 2006")
	}

	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/4, 0, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	dc.SetColor(hourLabelColor)
	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y-28, 0.5, 0.5)
	dc.DrawStringAnchored(date.Format("Mon"), x+float64(dayWidth)/2, y-12, 0.5, 0.5)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawBlock(dc *gg.Context, b block, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	blockY := y + (b.start-float64(hours.start))*cellHeight
	height := max((b.end-b.start)*cellHeight, minSlotHeight)
	width := float64(dayWidth) - dayPaddingX*2

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, blockY+2+shadowOffset, width, height-4, slotBorderRadius)
	dc.Fill()

	fill := statusColor(b.status)
	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, width, height-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, width, height-4, slotBorderRadius)
	dc.Stroke()

	dc.SetColor(meetingTextColor)
	txtX := x + dayPaddingX + 6
	dc.DrawStringAnchored(hourLabel(b.start), txtX, blockY+14, 0, 0)
	if b.label != "" && height > 30 {
		dc.DrawStringAnchored(b.label, txtX, blockY+28, 0, 0)
	}
}

func hourLabel(h float64) string {
	minutes := int(h*60 + 0.5)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func statusColor(status model.MeetingStatus) color.RGBA {
	switch status {
	case model.MeetingStatusScheduled:
		return scheduledColor
	case model.MeetingStatusRescheduled:
		return rescheduledColor
	case model.MeetingStatusExtended:
		return extendedColor
	default:
		return defaultColor
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	current := float64(now.Hour()) + float64(now.Minute())/60.0
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	y := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), y, float64(leftLabelsWidth+daysInWeek*dayWidth), y)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	items := []struct {
		label string
		clr   color.Color
	}{
		{"Scheduled", scheduledColor},
		{"Rescheduled", rescheduledColor},
		{"Extended", extendedColor},
	}

	const boxW, boxH = 20.0, 14.0
	x := float64(leftLabelsWidth + daysInWeek*dayWidth + 10)
	y := float64(imageHeight) - 100.0

	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, x+boxW+8, y+boxH/2, 0, 0.5)
		y += boxH + 14
	}
}
