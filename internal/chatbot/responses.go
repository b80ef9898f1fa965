package chatbot

import (
	"fmt"

	"github.com/airalert/airalert/internal/user"
)

// LimitMessage is returned in place of a reply once the free quota is used.
const LimitMessage = "You've reached your daily message limit. Upgrade to Pro for unlimited AI assistance!"

var healthResponses = []string{
	"Based on current air quality levels, I recommend limiting outdoor activities during peak pollution hours (typically 6-9 AM and 4-7 PM).",
	"For respiratory patients, wearing an N95 mask when AQI exceeds 150 can significantly reduce exposure to harmful particulates.",
	"Stay hydrated and consider using an air purifier indoors. HEPA filters can remove up to 99.97% of airborne particles.",
	"If you're experiencing shortness of breath, consult your healthcare provider. Keep your rescue inhaler accessible.",
	"Monitor your symptoms closely. Common signs of air quality impact include coughing, wheezing, and chest tightness.",
	"Consider checking air quality before planning outdoor exercise. Indoor alternatives are safer when AQI is unhealthy.",
	"Green spaces with dense vegetation can help filter air. Parks and tree-lined areas often have better local air quality.",
}

var plannerResponses = []string{
	"Urban green spaces can reduce local air pollution by 10-20%. Consider implementing green corridors in high-traffic areas and creating vegetation barriers between residential zones and pollution sources.",
	"Traffic management strategies like congestion pricing have shown to reduce urban air pollution by up to 15%. Pair this with expanded public transit to maximize impact.",
	"Promoting public transportation and cycling infrastructure can significantly improve urban air quality over time. Dedicated bike lanes and EV charging stations are key investments.",
	"Industrial zoning should be carefully planned to maintain buffer zones of at least 500m between high-emission sources and residential areas, schools, and hospitals.",
	"Real-time air quality monitoring stations should be placed in diverse locations to capture pollution gradients. I recommend stations near major roads, industrial areas, residential zones, and green spaces.",
	"Green building standards and energy-efficient construction can reduce overall urban emissions by 30-40%. LEED certification and passive building design are excellent starting points.",
	"Consider implementing Low Emission Zones (LEZ) in city centers to restrict high-polluting vehicles. Cities like London have seen 44% reduction in roadside NO₂ with LEZ.",
	"Healthcare facilities should be located in areas with historically lower pollution levels. Use air quality heatmaps to identify optimal zones for new hospital construction.",
	"Urban tree canopy coverage of 30-40% can significantly reduce heat island effect and improve air quality. Focus on native species that require less water.",
	"School locations should be prioritized in low-pollution areas. If near major roads, install vegetation barriers and air filtration systems in buildings.",
	"Wind corridors can help disperse urban pollution. Preserve natural ventilation paths and avoid high-rise construction that blocks airflow in polluted areas.",
	"Mixed-use development reduces transportation emissions by enabling walkable neighborhoods. Target 15-minute city planning principles for better air quality.",
	"Industrial parks should have mandatory emission monitoring and reporting. Real-time data sharing helps track pollution sources and enforce compliance.",
	"Electric vehicle infrastructure should be expanded near transit hubs and residential areas. Every EV replaces 1.5 tons of CO₂ emissions annually.",
	"Urban planning should prioritize vulnerable populations. Place healthcare facilities, fresh air zones, and green spaces within walking distance of elderly and low-income communities.",
}

// Responses returns the reply pool for a user type. Planners get the
// planning pool; everyone else gets the health pool.
func Responses(t user.Type) []string {
	if t == user.TypePlanner {
		return plannerResponses
	}
	return healthResponses
}

func greeting(u *user.User, limit int) string {
	if u.UserType == user.TypePlanner {
		tail := "Subscribe to Pro to unlock unlimited AI recommendations!"
		if u.IsPro {
			tail = "As a Pro member, you have unlimited access to my planning expertise!"
		}
		return fmt.Sprintf("Hello %s! I'm your AI urban planning assistant. I can help you with air quality analysis, "+
			"infrastructure planning, healthcare facility placement, zoning recommendations, and sustainable city "+
			"development strategies. %s", u.Name, tail)
	}

	tail := fmt.Sprintf("You have %d free messages remaining today. Upgrade to Pro for unlimited access!", limit)
	if u.IsPro {
		tail = "As a Pro member, you have unlimited access to my assistance!"
	}
	return fmt.Sprintf("Hello %s! I'm your AI health assistant. I can help you understand air quality data and "+
		"provide personalized health recommendations. %s", u.Name, tail)
}
