package search

import (
	"maternity-service/internal/pkg/constvars"
	"sort"
)

// Kind selects how a parameter is extracted from a resource and compared.
type Kind string

const (
	KindExact     Kind = "exact"
	KindReference Kind = "reference"
	KindToken     Kind = "token"
	KindDate      Kind = "date"
	KindText      Kind = "text"
)

const (
	ParamID          = "_id"
	ParamLastUpdated = "_lastUpdated"
	ParamCount       = "_count"
	ParamStatus      = "status"
	ParamFacilityID  = "facilityId"
)

// Definition describes one search parameter of a resource type. Paths are
// gjson paths into the flat wire document.
type Definition struct {
	Name       string
	Kind       Kind
	Paths      []string
	TargetType string
}

var commonDefinitions = []Definition{
	{Name: ParamID, Kind: KindExact, Paths: []string{"id"}},
	{Name: ParamLastUpdated, Kind: KindDate, Paths: []string{"meta.lastUpdated"}},
	{Name: ParamStatus, Kind: KindExact, Paths: []string{"status"}},
	{Name: ParamFacilityID, Kind: KindExact, Paths: []string{"facilityId"}},
}

func subjectDefinitions(paths ...string) []Definition {
	if len(paths) == 0 {
		paths = []string{"subject.reference"}
	}
	return []Definition{
		{Name: "subject", Kind: KindReference, Paths: paths, TargetType: constvars.ResourcePatient},
		{Name: "patient", Kind: KindReference, Paths: paths, TargetType: constvars.ResourcePatient},
	}
}

func join(groups ...[]Definition) []Definition {
	var all []Definition
	for _, group := range groups {
		all = append(all, group...)
	}
	return all
}

var typeDefinitions = map[string][]Definition{
	constvars.ResourcePatient: {
		{Name: "identifier", Kind: KindToken, Paths: []string{"identifier"}},
		{Name: "name", Kind: KindText, Paths: []string{"name"}},
		{Name: "family", Kind: KindText, Paths: []string{"name.#.family"}},
		{Name: "birthdate", Kind: KindDate, Paths: []string{"birthDate"}},
		{Name: "general-practitioner", Kind: KindReference, Paths: []string{"generalPractitioner.#.reference"}, TargetType: constvars.ResourcePractitioner},
		{Name: "organization", Kind: KindReference, Paths: []string{"managingOrganization.reference"}, TargetType: constvars.ResourceOrganization},
	},
	constvars.ResourcePractitioner: {
		{Name: "identifier", Kind: KindToken, Paths: []string{"identifier"}},
		{Name: "name", Kind: KindText, Paths: []string{"name"}},
	},
	constvars.ResourceOrganization: {
		{Name: "identifier", Kind: KindToken, Paths: []string{"identifier"}},
		{Name: "name", Kind: KindText, Paths: []string{"name", "alias"}},
	},
	constvars.ResourceObservation: join(subjectDefinitions(), []Definition{
		{Name: "code", Kind: KindToken, Paths: []string{"code.coding"}},
		{Name: "category", Kind: KindToken, Paths: []string{"category.#.coding"}},
		{Name: "date", Kind: KindDate, Paths: []string{"effectiveDateTime", "effectivePeriod.start", "issued"}},
		{Name: "encounter", Kind: KindReference, Paths: []string{"encounter.reference"}, TargetType: constvars.ResourceEncounter},
		{Name: "performer", Kind: KindReference, Paths: []string{"performer.#.reference"}, TargetType: constvars.ResourcePractitioner},
	}),
	constvars.ResourceAppointment: join(subjectDefinitions("subject.reference", "participant.#.actor.reference"), []Definition{
		{Name: "doctorId", Kind: KindReference, Paths: []string{"doctorId", "practitioner.reference", "participant.#.actor.reference"}, TargetType: constvars.ResourcePractitioner},
		{Name: "practitioner", Kind: KindReference, Paths: []string{"doctorId", "practitioner.reference", "participant.#.actor.reference"}, TargetType: constvars.ResourcePractitioner},
		{Name: "date", Kind: KindDate, Paths: []string{"start", "date"}},
		{Name: "service-type", Kind: KindToken, Paths: []string{"serviceType.#.coding"}},
	}),
	constvars.ResourceFlag: join(subjectDefinitions(), []Definition{
		{Name: "code", Kind: KindToken, Paths: []string{"code.coding"}},
		{Name: "category", Kind: KindToken, Paths: []string{"category.#.coding"}},
		{Name: "date", Kind: KindDate, Paths: []string{"period.start"}},
	}),
	constvars.ResourceCommunication: join(subjectDefinitions(), []Definition{
		{Name: "recipient", Kind: KindReference, Paths: []string{"recipient.#.reference"}, TargetType: constvars.ResourcePatient},
		{Name: "isRead", Kind: KindExact, Paths: []string{"isRead"}},
		{Name: "priority", Kind: KindExact, Paths: []string{"priority"}},
		{Name: "sent", Kind: KindDate, Paths: []string{"sent"}},
		{Name: "about", Kind: KindReference, Paths: []string{"about.#.reference"}},
		{Name: "message", Kind: KindText, Paths: []string{"payload.#.contentString"}},
	}),
	constvars.ResourceQuestionnaire: {
		{Name: "identifier", Kind: KindToken, Paths: []string{"identifier"}},
		{Name: "title", Kind: KindText, Paths: []string{"title"}},
		{Name: "name", Kind: KindText, Paths: []string{"name"}},
		{Name: "url", Kind: KindExact, Paths: []string{"url"}},
	},
	constvars.ResourceQuestionnaireResponse: join(subjectDefinitions(), []Definition{
		{Name: "questionnaire", Kind: KindExact, Paths: []string{"questionnaire"}},
		{Name: "authored", Kind: KindDate, Paths: []string{"authored"}},
		{Name: "author", Kind: KindReference, Paths: []string{"author.reference"}, TargetType: constvars.ResourcePractitioner},
	}),
	constvars.ResourceCarePlan: join(subjectDefinitions(), []Definition{
		{Name: "category", Kind: KindToken, Paths: []string{"category.#.coding"}},
		{Name: "date", Kind: KindDate, Paths: []string{"period.start"}},
		{Name: "care-team", Kind: KindReference, Paths: []string{"careTeam.#.reference"}, TargetType: constvars.ResourceCareTeam},
	}),
	constvars.ResourceCareTeam: join(subjectDefinitions(), []Definition{
		{Name: "participant", Kind: KindReference, Paths: []string{"participant.#.member.reference"}, TargetType: constvars.ResourcePractitioner},
	}),
	constvars.ResourceEncounter: join(subjectDefinitions(), []Definition{
		{Name: "date", Kind: KindDate, Paths: []string{"period.start"}},
		{Name: "practitioner", Kind: KindReference, Paths: []string{"participant.#.individual.reference"}, TargetType: constvars.ResourcePractitioner},
		{Name: "appointment", Kind: KindReference, Paths: []string{"appointment.#.reference"}, TargetType: constvars.ResourceAppointment},
	}),
}

var registry = buildRegistry()

func buildRegistry() map[string]map[string]Definition {
	built := make(map[string]map[string]Definition, len(typeDefinitions))
	for resourceType, definitions := range typeDefinitions {
		byName := make(map[string]Definition, len(definitions)+len(commonDefinitions))
		for _, definition := range commonDefinitions {
			byName[definition.Name] = definition
		}
		for _, definition := range definitions {
			byName[definition.Name] = definition
		}
		built[resourceType] = byName
	}
	return built
}

// IsSupportedType reports whether resourceType is a recognised partition.
func IsSupportedType(resourceType string) bool {
	_, ok := registry[resourceType]
	return ok
}

func SupportedTypes() []string {
	types := make([]string, 0, len(registry))
	for resourceType := range registry {
		types = append(types, resourceType)
	}
	sort.Strings(types)
	return types
}

func Lookup(resourceType, name string) (Definition, bool) {
	definitions, ok := registry[resourceType]
	if !ok {
		return Definition{}, false
	}
	definition, ok := definitions[name]
	return definition, ok
}

// Definitions lists the parameters of resourceType sorted by name.
func Definitions(resourceType string) []Definition {
	definitions := registry[resourceType]
	list := make([]Definition, 0, len(definitions))
	for _, definition := range definitions {
		list = append(list, definition)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
