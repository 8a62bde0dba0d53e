package alerting

import (
	"fmt"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"strings"
)

// Thresholds in the canonical unit of each measurement.
const (
	systolicLimit       = 140.0
	diastolicLimit      = 90.0
	systolicNotable     = 130.0
	diastolicNotable    = 85.0
	fetalHeartRateLow   = 110.0
	fetalHeartRateHigh  = 160.0
	glucoseHighMgDL     = 140.0
	glucoseLowMgDL      = 60.0
	glucoseNotableMgDL  = 120.0
	glucoseHighMmolL    = 7.8
	glucoseLowMmolL     = 3.3
	glucoseNotableMmolL = 6.7
	feverCelsius        = 38.0
	feverNotableCelsius = 37.5
	temperatureEpsilon  = 1e-9
)

var notableInterpretations = map[string]bool{
	"H": true, "HH": true, "L": true, "LL": true, "A": true, "AA": true,
}

// FlagIntent asks the pipeline to raise a risk Flag for a subject.
type FlagIntent struct {
	Subject       models.Reference
	ConditionCode string
	Display       string
	Message       string
	Source        models.Reference
}

// NotableIntent is a low urgency notification without a Flag.
type NotableIntent struct {
	Subject       models.Reference
	ConditionCode string
	Message       string
	Source        models.Reference
}

type Evaluation struct {
	Flags         []FlagIntent
	Notifications []NotableIntent
}

func (e Evaluation) IsEmpty() bool {
	return len(e.Flags) == 0 && len(e.Notifications) == 0
}

type quantity struct {
	value float64
	unit  string
}

// measurements maps every coded value of an observation, top level and
// components, to its quantity.
type measurements map[string]quantity

func collectMeasurements(observation *models.Resource) measurements {
	collected := make(measurements)
	addValue := func(codes []string, raw interface{}) {
		q, ok := quantityOf(raw)
		if !ok {
			return
		}
		for _, code := range codes {
			if _, exists := collected[code]; !exists {
				collected[code] = q
			}
		}
	}

	if raw, ok := observation.Lookup("valueQuantity"); ok {
		addValue(observation.Codings("code"), raw)
	}

	if raw, ok := observation.Lookup("component"); ok {
		components, _ := raw.([]interface{})
		for _, entry := range components {
			object, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			component := models.NewResource("", object)
			addValue(component.Codings("code"), object["valueQuantity"])
		}
	}
	return collected
}

func quantityOf(raw interface{}) (quantity, bool) {
	object, ok := raw.(map[string]interface{})
	if !ok {
		return quantity{}, false
	}
	value, ok := object["value"].(float64)
	if !ok {
		return quantity{}, false
	}
	unit, _ := object["unit"].(string)
	if unit == "" {
		unit, _ = object["code"].(string)
	}
	return quantity{value: value, unit: unit}, true
}

// rule inspects the measurements it owns. matched reports whether the
// observation carried any of its codes at all.
type rule struct {
	name     string
	codes    []string
	evaluate func(m measurements, subject, source models.Reference, isNew bool) (flags []FlagIntent, notable []NotableIntent)
}

func (r rule) matches(m measurements) bool {
	for _, code := range r.codes {
		if _, ok := m[code]; ok {
			return true
		}
	}
	return false
}

var rules = []rule{
	{
		name:     "blood-pressure",
		codes:    []string{constvars.LoincBloodPressurePanel, constvars.LoincSystolicBP, constvars.LoincDiastolicBP},
		evaluate: evaluateBloodPressure,
	},
	{
		name:     "fetal-heart-rate",
		codes:    []string{constvars.LoincFetalHeartRate},
		evaluate: evaluateFetalHeartRate,
	},
	{
		name:     "glucose",
		codes:    []string{constvars.LoincGlucoseMassVolume, constvars.LoincGlucoseMolesVolume},
		evaluate: evaluateGlucose,
	},
	{
		name:     "body-temperature",
		codes:    []string{constvars.LoincBodyTemperature},
		evaluate: evaluateTemperature,
	},
}

// Evaluate derives the effects of an observation without touching any
// store. Flags are raised for every write; notable values only notify for
// a new observation.
func Evaluate(observation *models.Resource, isNew bool) Evaluation {
	var evaluation Evaluation
	if observation == nil || observation.ResourceType != constvars.ResourceObservation {
		return evaluation
	}
	subject := observation.SubjectReference()
	if subject.IsZero() {
		return evaluation
	}
	source := observation.Reference()
	m := collectMeasurements(observation)

	matchedAny := false
	for _, r := range rules {
		if !r.matches(m) {
			continue
		}
		matchedAny = true
		flags, notable := r.evaluate(m, subject, source, isNew)
		evaluation.Flags = append(evaluation.Flags, flags...)
		if isNew {
			evaluation.Notifications = append(evaluation.Notifications, notable...)
		}
	}

	if !matchedAny && isNew {
		if code, ok := notableInterpretation(observation); ok {
			evaluation.Notifications = append(evaluation.Notifications, NotableIntent{
				Subject: subject,
				Message: fmt.Sprintf("Observation %s was interpreted as %s and may need review", displayOf(observation), code),
				Source:  source,
			})
		}
	}
	return evaluation
}

func evaluateBloodPressure(m measurements, subject, source models.Reference, _ bool) ([]FlagIntent, []NotableIntent) {
	systolic, hasSystolic := m[constvars.LoincSystolicBP]
	diastolic, hasDiastolic := m[constvars.LoincDiastolicBP]
	reading := formatBloodPressure(systolic, hasSystolic, diastolic, hasDiastolic)

	if (hasSystolic && systolic.value > systolicLimit) || (hasDiastolic && diastolic.value > diastolicLimit) {
		return []FlagIntent{{
			Subject:       subject,
			ConditionCode: constvars.ConditionHypertension,
			Display:       "Hypertension",
			Message:       fmt.Sprintf("Blood pressure %s is above %.0f/%.0f mmHg", reading, systolicLimit, diastolicLimit),
			Source:        source,
		}}, nil
	}
	if (hasSystolic && systolic.value >= systolicNotable) || (hasDiastolic && diastolic.value >= diastolicNotable) {
		return nil, []NotableIntent{{
			Subject:       subject,
			ConditionCode: constvars.ConditionHypertension,
			Message:       fmt.Sprintf("Blood pressure %s is elevated", reading),
			Source:        source,
		}}
	}
	return nil, nil
}

func formatBloodPressure(systolic quantity, hasSystolic bool, diastolic quantity, hasDiastolic bool) string {
	part := func(q quantity, ok bool) string {
		if !ok {
			return "-"
		}
		return trimFloat(q.value)
	}
	return part(systolic, hasSystolic) + "/" + part(diastolic, hasDiastolic) + " mmHg"
}

func evaluateFetalHeartRate(m measurements, subject, source models.Reference, _ bool) ([]FlagIntent, []NotableIntent) {
	rate := m[constvars.LoincFetalHeartRate]
	if rate.value < fetalHeartRateLow || rate.value > fetalHeartRateHigh {
		return []FlagIntent{{
			Subject:       subject,
			ConditionCode: constvars.ConditionFetalHeartRateAbnormal,
			Display:       "Abnormal fetal heart rate",
			Message:       fmt.Sprintf("Fetal heart rate %s bpm is outside %.0f-%.0f bpm", trimFloat(rate.value), fetalHeartRateLow, fetalHeartRateHigh),
			Source:        source,
		}}, nil
	}
	return nil, nil
}

func evaluateGlucose(m measurements, subject, source models.Reference, _ bool) ([]FlagIntent, []NotableIntent) {
	reading, code := m[constvars.LoincGlucoseMassVolume], constvars.LoincGlucoseMassVolume
	if _, ok := m[code]; !ok {
		reading, code = m[constvars.LoincGlucoseMolesVolume], constvars.LoincGlucoseMolesVolume
	}

	high, low, notable, unit := glucoseHighMgDL, glucoseLowMgDL, glucoseNotableMgDL, "mg/dL"
	if code == constvars.LoincGlucoseMolesVolume || strings.Contains(strings.ToLower(reading.unit), "mmol") {
		high, low, notable, unit = glucoseHighMmolL, glucoseLowMmolL, glucoseNotableMmolL, "mmol/L"
	}
	value := trimFloat(reading.value)

	switch {
	case reading.value > high:
		return []FlagIntent{{
			Subject:       subject,
			ConditionCode: constvars.ConditionHyperglycemia,
			Display:       "Hyperglycemia",
			Message:       fmt.Sprintf("Blood glucose %s %s is above %s %s", value, unit, trimFloat(high), unit),
			Source:        source,
		}}, nil
	case reading.value < low:
		return []FlagIntent{{
			Subject:       subject,
			ConditionCode: constvars.ConditionHypoglycemia,
			Display:       "Hypoglycemia",
			Message:       fmt.Sprintf("Blood glucose %s %s is below %s %s", value, unit, trimFloat(low), unit),
			Source:        source,
		}}, nil
	case reading.value >= notable:
		return nil, []NotableIntent{{
			Subject:       subject,
			ConditionCode: constvars.ConditionHyperglycemia,
			Message:       fmt.Sprintf("Blood glucose %s %s is elevated", value, unit),
			Source:        source,
		}}
	}
	return nil, nil
}

func evaluateTemperature(m measurements, subject, source models.Reference, _ bool) ([]FlagIntent, []NotableIntent) {
	reading := m[constvars.LoincBodyTemperature]
	celsius := reading.value
	if isFahrenheit(reading.unit) {
		celsius = (reading.value - 32) * 5 / 9
	}
	value := trimFloat(reading.value) + " " + reading.unit

	switch {
	case celsius >= feverCelsius-temperatureEpsilon:
		return []FlagIntent{{
			Subject:       subject,
			ConditionCode: constvars.ConditionFever,
			Display:       "Fever",
			Message:       fmt.Sprintf("Body temperature %s is at or above %.1f Cel", strings.TrimSpace(value), feverCelsius),
			Source:        source,
		}}, nil
	case celsius >= feverNotableCelsius-temperatureEpsilon:
		return nil, []NotableIntent{{
			Subject:       subject,
			ConditionCode: constvars.ConditionFever,
			Message:       fmt.Sprintf("Body temperature %s is elevated", strings.TrimSpace(value)),
			Source:        source,
		}}
	}
	return nil, nil
}

func isFahrenheit(unit string) bool {
	switch strings.TrimSpace(unit) {
	case "[degF]", "degF", "°F", "F":
		return true
	}
	return false
}

func notableInterpretation(observation *models.Resource) (string, bool) {
	raw, ok := observation.Lookup("interpretation")
	if !ok {
		return "", false
	}
	entries, _ := raw.([]interface{})
	for _, entry := range entries {
		object, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		for _, code := range models.NewResource("", map[string]interface{}{"code": object}).Codings("code") {
			if notableInterpretations[strings.ToUpper(code)] {
				return code, true
			}
		}
	}
	return "", false
}

func displayOf(observation *models.Resource) string {
	if text := observation.GetString("code", "text"); text != "" {
		return text
	}
	if _, code := observation.CodingCode("code"); code != "" {
		return code
	}
	return observation.Reference().String()
}

func trimFloat(value float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}
