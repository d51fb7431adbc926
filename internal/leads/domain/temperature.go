package domain

// Temperature is the coarse urgency label shown next to a lead.
type Temperature string

const (
	TemperatureCold    Temperature = "Cold"
	TemperatureHot     Temperature = "Hot"
	TemperatureWarm    Temperature = "Warm"
	TemperatureNeutral Temperature = "Neutral"
)
