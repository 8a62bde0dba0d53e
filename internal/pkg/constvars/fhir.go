package constvars

const (
	ResourcePatient               = "Patient"
	ResourcePractitioner          = "Practitioner"
	ResourceOrganization          = "Organization"
	ResourceObservation           = "Observation"
	ResourceAppointment           = "Appointment"
	ResourceFlag                  = "Flag"
	ResourceCommunication         = "Communication"
	ResourceQuestionnaire         = "Questionnaire"
	ResourceQuestionnaireResponse = "QuestionnaireResponse"
	ResourceCarePlan              = "CarePlan"
	ResourceCareTeam              = "CareTeam"
	ResourceEncounter             = "Encounter"
)

const (
	FhirFlagStatusActive         = "active"
	FhirFlagStatusInactive       = "inactive"
	FhirCommunicationStatusDone  = "completed"
	FhirObservationStatusFinal   = "final"
	FhirAppointmentStatusBooked  = "booked"
	FhirObservationCategoryVital = "vital-signs"
)

const (
	LoincSystem                = "http://loinc.org"
	LoincBloodPressurePanel    = "85354-9"
	LoincSystolicBP            = "8480-6"
	LoincDiastolicBP           = "8462-4"
	LoincFetalHeartRate        = "55283-6"
	LoincGlucoseMassVolume     = "2339-0"
	LoincGlucoseMolesVolume    = "15074-8"
	LoincBodyTemperature       = "8310-5"
	InterpretationSystem       = "http://terminology.hl7.org/CodeSystem/v3-ObservationInterpretation"
	FlagCategorySystem         = "http://terminology.hl7.org/CodeSystem/flag-category"
	FlagCategoryClinical       = "clinical"
	RiskConditionSystem        = "https://maternity.care/fhir/CodeSystem/risk-condition"
	NotificationUrgencyHigh    = "high"
	NotificationUrgencyRoutine = "routine"
)

const (
	ConditionHypertension           = "hypertension"
	ConditionFetalHeartRateAbnormal = "fetal-heart-rate-abnormal"
	ConditionHyperglycemia          = "hyperglycemia"
	ConditionHypoglycemia           = "hypoglycemia"
	ConditionFever                  = "fever"
)

const (
	MongoCollectionResources = "resources"
	MongoCollectionCounters  = "counters"
)
