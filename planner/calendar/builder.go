// Package calendar derives the final calendar artifact: a template deep link
// plus an ICS payload, assembled from the reservation and constraints.
package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	contractx "github.com/supperclub/concierge/planner/contract"
	statex "github.com/supperclub/concierge/planner/state"
)

const linkTemplateBase = "https://calendar.google.com/calendar/render"

const defaultEventLength = 2 * time.Hour

// Input carries the caller-supplied overrides; anything unset is derived from
// the plan.
type Input struct {
	Title            string
	StartISO         string
	EndISO           string
	Location         string
	DescriptionLines []string
	Attendees        []string
}

// Build assembles the calendar event for a plan. It never errors: fields that
// cannot be derived are simply left out of the artifact.
func Build(p *statex.Plan, in Input) contractx.CalendarEvent {
	event := contractx.CalendarEvent{
		Title:       deriveTitle(p, in.Title),
		StartISO:    strings.TrimSpace(in.StartISO),
		EndISO:      strings.TrimSpace(in.EndISO),
		Location:    deriveLocation(p, in.Location),
		Description: deriveDescription(p, in.DescriptionLines),
	}

	if event.StartISO != "" && event.EndISO == "" {
		if start, err := time.Parse(time.RFC3339, event.StartISO); err == nil {
			event.EndISO = start.Add(defaultEventLength).UTC().Format(time.RFC3339)
		}
	}

	event.Link = buildLink(event)
	event.ICS = buildICS(p.ID, event, in.Attendees)
	return event
}

func deriveTitle(p *statex.Plan, explicit string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	if p.Reservation != nil && p.Reservation.RestaurantName != "" {
		return "Dinner at " + p.Reservation.RestaurantName
	}
	if p.Constraints.LocationArea != "" {
		return "Group dinner in " + p.Constraints.LocationArea
	}
	return "Group dinner"
}

func deriveLocation(p *statex.Plan, explicit string) string {
	if l := strings.TrimSpace(explicit); l != "" {
		return l
	}
	if p.Reservation != nil {
		if p.Reservation.Address != "" {
			return p.Reservation.Address
		}
		if p.Reservation.RestaurantName != "" {
			return p.Reservation.RestaurantName
		}
	}
	return p.Constraints.LocationArea
}

func deriveDescription(p *statex.Plan, lines []string) string {
	if len(lines) > 0 {
		return strings.Join(lines, "\n")
	}
	var out []string
	if r := p.Reservation; r != nil {
		if r.ConfirmationCode != "" {
			out = append(out, "Confirmation: "+r.ConfirmationCode)
		}
		if r.Time != "" {
			out = append(out, "Reserved for "+r.Time)
		}
		if r.Notes != "" {
			out = append(out, r.Notes)
		}
	}
	if p.Constraints.PartySize > 0 {
		out = append(out, fmt.Sprintf("Party of %d", p.Constraints.PartySize))
	}
	if p.Constraints.BudgetHint != "" {
		out = append(out, "Budget "+p.Constraints.BudgetHint)
	}
	if len(p.Constraints.Dietary) > 0 {
		out = append(out, "Dietary: "+strings.Join(p.Constraints.Dietary, ", "))
	}
	return strings.Join(out, "\n")
}

func buildLink(event contractx.CalendarEvent) string {
	v := url.Values{}
	v.Set("action", "TEMPLATE")
	v.Set("text", event.Title)
	if event.StartISO != "" {
		start := CompactTimeToken(event.StartISO)
		end := start
		if event.EndISO != "" {
			end = CompactTimeToken(event.EndISO)
		}
		v.Set("dates", start+"/"+end)
	}
	if event.Location != "" {
		v.Set("location", event.Location)
	}
	if event.Description != "" {
		v.Set("details", event.Description)
	}
	return linkTemplateBase + "?" + v.Encode()
}

// CompactTimeToken normalizes an ISO-8601 timestamp into the compact
// date-time token calendar links expect, e.g. "2026-02-14T19:30:00Z" ->
// "20260214T193000Z".
func CompactTimeToken(iso string) string {
	replacer := strings.NewReplacer("-", "", ":", "")
	return replacer.Replace(strings.TrimSpace(iso))
}

func buildICS(planID string, event contractx.CalendarEvent, attendees []string) string {
	start, err := time.Parse(time.RFC3339, event.StartISO)
	if err != nil {
		return ""
	}
	end := start.Add(defaultEventLength)
	if event.EndISO != "" {
		if parsed, endErr := time.Parse(time.RFC3339, event.EndISO); endErr == nil {
			end = parsed
		}
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)

	ev := cal.AddEvent(planID + "@concierge")
	ev.SetDtStampTime(start)
	ev.SetStartAt(start)
	ev.SetEndAt(end)
	ev.SetSummary(event.Title)
	if event.Location != "" {
		ev.SetLocation(event.Location)
	}
	if event.Description != "" {
		ev.SetDescription(event.Description)
	}
	for _, email := range attendees {
		if trimmed := strings.TrimSpace(email); trimmed != "" {
			ev.AddAttendee(trimmed)
		}
	}

	return cal.Serialize()
}
