// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"fmt"
	"math"
	"time"

	"github.com/vorlif/humanize"

	"github.com/wneessen/roam-tripdemo/internal/sdk"
	"github.com/wneessen/roam-tripdemo/internal/session"
	"github.com/wneessen/roam-tripdemo/internal/vartype"
)

func (p *Presenter) localizedTime(val time.Time) string {
	return p.humanizer.FormatTime(val, humanize.TimeFormat)
}

func (p *Presenter) floatFormat(val float64, precision int) string {
	pow := math.Pow(10, float64(precision))
	return p.printer.Sprintf(fmt.Sprintf("%%.%df", precision), math.Trunc(val*pow)/pow)
}

// distance renders meters, switching to kilometers from 1000 m.
func (p *Presenter) distance(val vartype.VarFloat64) string {
	if !val.IsSet() {
		return vartype.Placeholder
	}
	meters := val.Value()
	if math.Abs(meters) >= 1000 {
		return p.floatFormat(meters/1000, 2) + " km"
	}
	return p.floatFormat(meters, 1) + " m"
}

func (p *Presenter) duration(summary session.Summary) string {
	if !summary.Duration.IsSet() {
		return vartype.Placeholder
	}
	return summary.Duration.Value().Round(time.Second).String()
}

func (p *Presenter) location(val vartype.Variable[sdk.Location]) string {
	if !val.IsSet() {
		return vartype.Placeholder
	}
	loc := val.Value()
	return p.floatFormat(loc.Latitude, 5) + ", " + p.floatFormat(loc.Longitude, 5) +
		" (±" + p.floatFormat(loc.Accuracy, 0) + " m)"
}

func (p *Presenter) boolVar(val vartype.VarBool) string {
	if !val.IsSet() {
		return vartype.Placeholder
	}
	return p.onOff(val.Value())
}

func (p *Presenter) onOff(val bool) string {
	if val {
		return "on"
	}
	return "off"
}
