package models

import (
	"maternity-service/internal/pkg/constvars"
	"time"
)

// NotificationIntent is the abstract message handed to the delivery
// collaborator, which picks a channel per recipient.
type NotificationIntent struct {
	Subject         Reference   `json:"subject"`
	Recipients      []Reference `json:"recipients"`
	Message         string      `json:"message"`
	Urgency         string      `json:"urgency"`
	ConditionCode   string      `json:"conditionCode,omitempty"`
	Source          Reference   `json:"source"`
	CommunicationID string      `json:"communicationId,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// IsNotificationRead reports the read state of a Communication.
func IsNotificationRead(resource *Resource) bool {
	return resource.GetBool("isRead")
}

// Communication builds the stored record of an intent.
func (n NotificationIntent) Communication() *Resource {
	recipients := make([]interface{}, 0, len(n.Recipients))
	for _, recipient := range n.Recipients {
		recipients = append(recipients, map[string]interface{}{"reference": recipient.String()})
	}

	priority := "routine"
	if n.Urgency == constvars.NotificationUrgencyHigh {
		priority = "urgent"
	}

	data := map[string]interface{}{
		"status":    constvars.FhirCommunicationStatusDone,
		"priority":  priority,
		"subject":   map[string]interface{}{"reference": n.Subject.String()},
		"recipient": recipients,
		"sent":      n.CreatedAt.UTC().Format(time.RFC3339Nano),
		"isRead":    false,
		"payload": []interface{}{
			map[string]interface{}{"contentString": n.Message},
		},
	}
	if !n.Source.IsZero() {
		data["about"] = []interface{}{map[string]interface{}{"reference": n.Source.String()}}
	}
	if n.ConditionCode != "" {
		data["reasonCode"] = []interface{}{
			map[string]interface{}{
				"coding": []interface{}{
					map[string]interface{}{"system": constvars.RiskConditionSystem, "code": n.ConditionCode},
				},
			},
		}
	}
	return NewResource(constvars.ResourceCommunication, data)
}
