package resources

import (
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/utils"
)

type flagShape struct {
	Subject string `validate:"required,reference"`
	Code    string `validate:"required"`
	Status  string `validate:"omitempty,oneof=active inactive entered-in-error"`
}

type observationShape struct {
	Subject string `validate:"required,reference"`
	Code    string `validate:"required"`
}

type communicationShape struct {
	Subject string `validate:"required,reference"`
}

type appointmentShape struct {
	Status string `validate:"required,oneof=proposed pending booked arrived fulfilled cancelled noshow entered-in-error checked-in waitlist"`
}

// validatePayload checks the fields the service itself depends on. Types
// without a shape are stored as given.
func validatePayload(resource *models.Resource) error {
	var shape interface{}
	switch resource.ResourceType {
	case constvars.ResourceFlag:
		_, code := resource.CodingCode("code")
		shape = flagShape{
			Subject: resource.GetString("subject", "reference"),
			Code:    code,
			Status:  resource.GetString("status"),
		}
	case constvars.ResourceObservation:
		_, code := resource.CodingCode("code")
		shape = observationShape{
			Subject: resource.GetString("subject", "reference"),
			Code:    code,
		}
	case constvars.ResourceCommunication:
		shape = communicationShape{
			Subject: resource.GetString("subject", "reference"),
		}
	case constvars.ResourceAppointment:
		shape = appointmentShape{
			Status: resource.GetString("status"),
		}
	default:
		return nil
	}

	if err := utils.ValidateStruct(shape); err != nil {
		return exceptions.ErrInputValidation(err)
	}
	return nil
}
