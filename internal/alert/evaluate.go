package alert

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/pollution"
)

// Exceeded returns the pollutants in r strictly above their thresholds, in
// message order.
func Exceeded(r pollution.Reading, t Thresholds) []Exceedance {
	values := map[Pollutant][2]float64{
		PM25: {r.PM25, t.PM25},
		PM10: {r.PM10, t.PM10},
		NO2:  {r.NO2, t.NO2},
		SO2:  {r.SO2, t.SO2},
		O3:   {r.O3, t.O3},
		CO:   {r.CO, t.CO},
	}

	out := []Exceedance{}
	for _, info := range pollutantTable {
		v := values[info.pollutant]
		if v[0] > v[1] {
			out = append(out, Exceedance{
				Pollutant:    info.pollutant,
				Name:         info.name,
				Value:        v[0],
				Threshold:    v[1],
				Unit:         info.unit,
				HealthEffect: info.healthEffect,
				Action:       info.action,
			})
		}
	}
	return out
}

// Evaluate decides whether r warrants an alert. lastAlertAt is the time of
// the user's previous alert, zero when there was none. It has no side
// effects; on DecisionAlert the result carries an unsaved notification
// timestamped now.
func Evaluate(r pollution.Reading, t Thresholds, lastAlertAt, now time.Time) Result {
	res := Result{AQI: r.AQI, Exceeded: Exceeded(r, t)}

	switch {
	case len(res.Exceeded) == 0:
		res.Decision = DecisionWithinLimits
	case r.AQI <= AQIGate:
		res.Decision = DecisionAQIAcceptable
	case !lastAlertAt.IsZero() && now.Sub(lastAlertAt) < Cooldown:
		res.Decision = DecisionThrottled
	default:
		res.Decision = DecisionAlert
		res.Notification = &notification.Notification{
			Message:   alertMessage(r.AQI, res.Exceeded),
			Type:      notification.TypeAlert,
			Timestamp: now,
		}
	}
	return res
}

// Summarize builds a status notification for r covering every combination
// of AQI and pollutant state. It backs the test-notification endpoint.
func Summarize(r pollution.Reading, t Thresholds) notification.Notification {
	exceeded := Exceeded(r, t)
	category := pollution.Category(r.AQI)

	switch {
	case len(exceeded) > 0 && r.AQI > AQIGate:
		return notification.Notification{
			Message: alertMessage(r.AQI, exceeded),
			Type:    notification.TypeAlert,
		}
	case r.AQI > AQIGate:
		return notification.Notification{
			Message: fmt.Sprintf("⚠️ AIR QUALITY WARNING: Overall AQI is %d (%s). "+
				"Air quality is unhealthy. Sensitive groups should limit outdoor exposure.", r.AQI, category),
			Type: notification.TypeWarning,
		}
	case len(exceeded) > 0:
		return notification.Notification{
			Message: fmt.Sprintf("⚠️ POLLUTANT ALERT: Some pollutants exceed safe levels: %s. "+
				"Overall AQI (%d) is acceptable, but sensitive groups should be cautious.", listExceeded(exceeded), r.AQI),
			Type: notification.TypeWarning,
		}
	default:
		return notification.Notification{
			Message: fmt.Sprintf("✅ AIR QUALITY UPDATE: AQI is %d (%s). "+
				"All pollutant levels are within safe WHO guidelines. Great time for outdoor activities!", r.AQI, category),
			Type: notification.TypeInfo,
		}
	}
}

func alertMessage(aqi int, exceeded []Exceedance) string {
	return fmt.Sprintf("🚨 AIR QUALITY ALERT: AQI is %d (%s). Elevated levels detected: %s. "+
		"Limit outdoor activities and consider wearing a mask.", aqi, pollution.Category(aqi), listExceeded(exceeded))
}

func listExceeded(exceeded []Exceedance) string {
	parts := make([]string, len(exceeded))
	for i, e := range exceeded {
		parts[i] = fmt.Sprintf("%s (%s %s)", e.Name, strconv.FormatFloat(e.Value, 'f', -1, 64), e.Unit)
	}
	return strings.Join(parts, ", ")
}
