package greenhouse

// SensorKind is the measured parameter of a sensor.
type SensorKind string

const (
	KindTemp    SensorKind = "temp"
	KindHumAir  SensorKind = "hum_air"
	KindHumSoil SensorKind = "hum_soil"
	KindLight   SensorKind = "light"
	KindCO2     SensorKind = "co2"
)

// AlertOrder is the fixed order in which snapshot parameters are checked
// against a profile. The first violation in this order wins.
var AlertOrder = []SensorKind{KindTemp, KindHumAir, KindHumSoil, KindCO2, KindLight}

// AllSensorKinds returns every sensor kind in reporting order.
func AllSensorKinds() []SensorKind {
	return []SensorKind{KindTemp, KindHumAir, KindHumSoil, KindLight, KindCO2}
}

// Valid reports whether k is one of the enumerated sensor kinds.
func (k SensorKind) Valid() bool {
	switch k {
	case KindTemp, KindHumAir, KindHumSoil, KindLight, KindCO2:
		return true
	}
	return false
}

// ActuatorKind is the type of a controllable device.
type ActuatorKind string

const (
	ActuatorPump   ActuatorKind = "pump"
	ActuatorFan    ActuatorKind = "fan"
	ActuatorHeater ActuatorKind = "heater"
	ActuatorLamp   ActuatorKind = "lamp"
	ActuatorVent   ActuatorKind = "vent"
)

// Valid reports whether k is one of the enumerated actuator kinds.
func (k ActuatorKind) Valid() bool {
	switch k {
	case ActuatorPump, ActuatorFan, ActuatorHeater, ActuatorLamp, ActuatorVent:
		return true
	}
	return false
}

// RuleKind selects the decision policy of a Rule.
type RuleKind string

const (
	RuleRange      RuleKind = "range"
	RuleDelta      RuleKind = "delta"
	RuleStale      RuleKind = "stale"
	RuleHysteresis RuleKind = "hysteresis"
	RulePriority   RuleKind = "priority"
)

// Valid reports whether k is one of the enumerated rule kinds.
func (k RuleKind) Valid() bool {
	switch k {
	case RuleRange, RuleDelta, RuleStale, RuleHysteresis, RulePriority:
		return true
	}
	return false
}

// Controls reports whether rules of this kind drive the hysteresis controller.
func (k RuleKind) Controls() bool {
	return k == RuleHysteresis || k == RuleRange
}

// Action is an actuation instruction.
type Action string

const (
	ActionOn    Action = "ON"
	ActionOff   Action = "OFF"
	ActionPWM   Action = "PWM"
	ActionLevel Action = "LEVEL"
)

// Severity grades an alert.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// EventName names an event bus topic.
type EventName string

const (
	EventReading      EventName = "READING"
	EventModeTick     EventName = "MODE_TICK"
	EventActuate      EventName = "ACTUATE"
	EventAlertRaised  EventName = "ALERT_RAISED"
	EventAlertCleared EventName = "ALERT_CLEARED"
)

// AllEventNames returns the built-in bus topics.
func AllEventNames() []EventName {
	return []EventName{EventReading, EventModeTick, EventActuate, EventAlertRaised, EventAlertCleared}
}

// DefaultDevices maps a controlled parameter to the actuator id used when a
// rule names no device.
var DefaultDevices = map[SensorKind]string{
	KindTemp:    "heater",
	KindHumAir:  "humidifier",
	KindHumSoil: "pump",
	KindLight:   "lamp",
	KindCO2:     "co2_valve",
}
