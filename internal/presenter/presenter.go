// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package presenter renders the session state as a text report.
package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/Xuanwo/go-locale"
	"github.com/mattn/go-runewidth"
	"github.com/vorlif/humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wneessen/roam-tripdemo/internal/permission"
	"github.com/wneessen/roam-tripdemo/internal/session"
	"github.com/wneessen/roam-tripdemo/internal/vartype"
)

type row struct {
	label string
	value string
}

type section struct {
	title string
	rows  []row
}

// Presenter formats values for one language.
type Presenter struct {
	lang      language.Tag
	humanizer *humanize.Humanizer
	printer   *message.Printer
}

// New returns a Presenter for loc. An empty loc is detected from the environment and falls back
// to English.
func New(loc string) *Presenter {
	tag := language.Make(loc)
	if loc == "" {
		var err error
		tag, err = locale.Detect()
		if err != nil {
			tag = language.English // Unable to detect locale, fallback to English
		}
	}

	collection := humanize.MustNew()
	return &Presenter{
		lang:      tag,
		humanizer: collection.CreateHumanizer(tag),
		printer:   message.NewPrinter(tag),
	}
}

// Language returns the language the Presenter formats for.
func (p *Presenter) Language() language.Tag {
	return p.lang
}

// Render writes the report for state to w.
func (p *Presenter) Render(w io.Writer, state session.State, platform permission.Platform) error {
	sections := p.sections(state, platform)

	width := 0
	for _, sec := range sections {
		for _, r := range sec.rows {
			width = max(width, runewidth.StringWidth(r.label))
		}
	}

	buf := strings.Builder{}
	for i, sec := range sections {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(sec.title)
		buf.WriteString("\n")
		buf.WriteString(strings.Repeat("=", runewidth.StringWidth(sec.title)))
		buf.WriteString("\n")
		for _, r := range sec.rows {
			buf.WriteString(runewidth.FillRight(r.label, width))
			buf.WriteString("  ")
			buf.WriteString(r.value)
			buf.WriteString("\n")
		}
	}

	if _, err := io.WriteString(w, buf.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (p *Presenter) sections(state session.State, platform permission.Platform) []section {
	return []section{
		{
			title: "Device",
			rows: []row{
				{"Platform", fmt.Sprintf("%s (API %d)", platform.OS, platform.APILevel)},
				{"Location permission", state.Permissions.Location},
				{"Location services", state.Permissions.LocationServices},
				{"Background location", state.Permissions.BackgroundLocation},
				{"Current location", p.location(state.CurrentLocation)},
			},
		},
		{
			title: "User",
			rows: []row{
				{"User ID", state.UserID.String()},
				{"Loaded user", state.LoadedUserID.String()},
				{"Location subscription", p.onOff(state.LocationSubscribed)},
				{"Location listener", p.onOff(state.LocationListening)},
				{"Location updates", p.printer.Sprintf("%d", state.LocationUpdates)},
			},
		},
		{
			title: "Tracking",
			rows: []row{
				{"Tracking", p.boolVar(state.Tracking)},
				{"Mode", state.TrackingMode.String()},
				{"Accuracy", p.trackingAccuracy(state)},
				{"Trip events", p.eventsStatus(state)},
				{"Listeners", p.listenersStatus(state)},
				{"Last update", p.lastUpdate(state)},
			},
		},
		{
			title: "Trip",
			rows: []row{
				{"Trip ID", state.TripID.String()},
				{"Trip state", string(state.TripState)},
				{"Trip subscription", p.onOff(state.TripSubscribed)},
				{"Trip listener", p.onOff(state.TripListening)},
				{"Trip updates", p.printer.Sprintf("%d", state.TripUpdates)},
				{"Summary", state.Summary.Status.String()},
				{"Distance", p.distance(state.Summary.Distance)},
				{"Duration", p.duration(state.Summary)},
				{"Elevation gain", p.distance(state.Summary.ElevationGain)},
				{"Route points", state.Summary.RoutePoints.String()},
			},
		},
	}
}

func (p *Presenter) trackingAccuracy(state session.State) string {
	if !state.TrackingConfig.IsSet() {
		return vartype.Placeholder
	}
	conf := state.TrackingConfig.Value()
	return p.printer.Sprintf("%d m, timeout %d s", conf.Accuracy, conf.Timeout)
}

func (p *Presenter) eventsStatus(state session.State) string {
	if !state.Events.IsSet() {
		return vartype.Placeholder
	}
	return p.onOff(state.Events.Value().TripsEvents)
}

func (p *Presenter) listenersStatus(state session.State) string {
	if !state.Listeners.IsSet() {
		return vartype.Placeholder
	}
	status := state.Listeners.Value()
	return fmt.Sprintf("location %s, events %s", p.onOff(status.LocationListenerStatus),
		p.onOff(status.EventListenerStatus))
}

func (p *Presenter) lastUpdate(state session.State) string {
	if !state.LastUpdate.IsSet() {
		return vartype.Placeholder
	}
	return p.localizedTime(state.LastUpdate.Value())
}
