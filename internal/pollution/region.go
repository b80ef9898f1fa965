package pollution

// Known regions.
const (
	RegionNorthAmerica = "North America"
	RegionSouthAmerica = "South America"
	RegionEurope       = "Europe"
	RegionAsia         = "Asia"
	RegionAfrica       = "Africa"
	RegionOceania      = "Australia/Oceania"
)

// DefaultMultiplier applies to regions outside the known set.
const DefaultMultiplier = 1.0

var regionMultipliers = map[string]float64{
	RegionNorthAmerica: 1.0,
	RegionSouthAmerica: 1.2,
	RegionEurope:       0.8,
	RegionAsia:         1.5,
	RegionAfrica:       1.3,
	RegionOceania:      0.7,
}

// Regions returns the known regions in display order.
func Regions() []string {
	return []string{
		RegionNorthAmerica,
		RegionSouthAmerica,
		RegionEurope,
		RegionAsia,
		RegionAfrica,
		RegionOceania,
	}
}

// Multiplier returns the pollution severity multiplier for region.
func Multiplier(region string) float64 {
	if m, ok := regionMultipliers[region]; ok {
		return m
	}
	return DefaultMultiplier
}

// IsKnownRegion reports whether region is one of Regions().
func IsKnownRegion(region string) bool {
	_, ok := regionMultipliers[region]
	return ok
}
