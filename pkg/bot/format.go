package bot

import (
	"fmt"
	"html"
	"lifeline/pkg/models"
	"strconv"
	"strings"
)

const (
	fallbackPatient = "Anonymous"
	fallbackField   = "N/A"
	fallbackType    = "Unknown"
	loadingAddress  = "Loading address..."
	noAssignments   = "No active emergency assignments"

	indicatorBusy      = "🔴 ON MISSION"
	indicatorAvailable = "🟢 AVAILABLE"
)

var toneIcons = map[models.Tone]string{
	models.ToneAlert:   "🚨",
	models.ToneWarn:    "⚠️",
	models.ToneCaution: "🟡",
	models.ToneInfo:    "ℹ️",
	models.ToneSuccess: "✅",
}

func esc(s string) string {
	return html.EscapeString(s)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func mapLink(lat, lon float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s", formatFloat(lat), formatFloat(lon))
}

func typeLabel(t models.EmergencyType) string {
	if t == "" {
		return fallbackType
	}
	return t.Label()
}

func metric(n *models.Number, unit string) string {
	if n == nil {
		return "---"
	}
	return n.String() + " " + unit
}

func formatStatus(st models.Status) string {
	icon, ok := toneIcons[st.Tone]
	if !ok {
		return esc(st.Message)
	}
	return icon + " " + esc(st.Message)
}

func formatDispatch(m models.DispatchMetrics) string {
	var sb strings.Builder
	sb.WriteString("<b>🚑 AMBULANCE DISPATCHED</b>\n\n")
	fmt.Fprintf(&sb, "🚘 Unit: <b>%s</b>\n", esc(m.Plate))
	fmt.Fprintf(&sb, "👨‍⚕️ Driver: %s\n", esc(m.DriverName))
	fmt.Fprintf(&sb, "📏 Distance: %s\n", esc(m.Distance))
	fmt.Fprintf(&sb, "⏱ ETA: %s", esc(m.ETA))
	return sb.String()
}

func formatAssignment(a models.Assignment, address string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", indicatorBusy)
	fmt.Fprintf(&sb, "🚨 <b>EMERGENCY #%d</b>\n\n", a.DispatchID)
	fmt.Fprintf(&sb, "👤 Patient: %s\n", esc(orDefault(a.PatientName, fallbackPatient)))
	fmt.Fprintf(&sb, "📞 Contact: %s\n", esc(orDefault(a.ContactNumber, fallbackField)))
	fmt.Fprintf(&sb, "🏷 Type: %s\n", esc(typeLabel(a.EmergencyType)))
	fmt.Fprintf(&sb, "📏 Distance: %s\n", metric(a.DistanceKm, "km"))
	fmt.Fprintf(&sb, "⏱ ETA: %s\n", metric(a.EtaMin, "min"))
	if strings.TrimSpace(a.Notes) != "" {
		fmt.Fprintf(&sb, "📝 Notes: %s\n", esc(a.Notes))
	}
	fmt.Fprintf(&sb, "📍 Address: %s\n", esc(orDefault(address, loadingAddress)))
	fmt.Fprintf(&sb, "🗺 <a href=\"%s\">Open in Google Maps</a>", mapLink(a.Latitude.Float64(), a.Longitude.Float64()))
	return sb.String()
}

func formatIdle() string {
	return fmt.Sprintf("<b>%s</b>\n%s", indicatorAvailable, noAssignments)
}

func formatDashboard(d models.Driver) string {
	return fmt.Sprintf("👋 Welcome, <b>%s</b>\n🚑 Ambulance: %s",
		esc(orDefault(d.Name, d.Username)), esc(orDefault(d.PlateNumber, fallbackField)))
}

func formatDriverStatus(st models.DriverStatus) string {
	return fmt.Sprintf("📊 Status: <b>%s</b>\n👤 %s\n🚑 %s",
		esc(strings.ToUpper(orDefault(st.Status, fallbackType))),
		esc(orDefault(st.Name, fallbackField)),
		esc(orDefault(st.PlateNumber, fallbackField)))
}

func formatBoard(list []models.ActiveEmergency) string {
	if len(list) == 0 {
		return "📭 No active emergencies right now."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>📋 ACTIVE EMERGENCIES (%d)</b>\n", len(list))
	for _, e := range list {
		fmt.Fprintf(&sb, "\n#%d %s | %s\n🚑 %s (%s) | %s | %s\n",
			e.RequestID,
			esc(orDefault(e.PatientName, fallbackPatient)),
			esc(typeLabel(e.EmergencyType)),
			esc(orDefault(e.PlateNumber, fallbackField)),
			esc(orDefault(e.DriverName, fallbackType)),
			metric(e.DistanceKm, "km"),
			metric(e.EtaMin, "min"),
		)
	}
	return strings.TrimRight(sb.String(), "\n")
}
