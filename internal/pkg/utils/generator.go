package utils

import (
	"crypto/rand"
	"fmt"
	"maternity-service/internal/pkg/constvars"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// GenerateResourceID returns a lowercase type-prefixed ULID, e.g. "obs-01hv...".
// The ULID carries millisecond time plus randomness and sorts by creation time.
func GenerateResourceID(resourceType string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	return fmt.Sprintf("%s-%s", resourceIDPrefix(resourceType), strings.ToLower(id.String()))
}

func resourceIDPrefix(resourceType string) string {
	switch resourceType {
	case constvars.ResourceObservation:
		return "obs"
	case constvars.ResourceCommunication:
		return "comm"
	case constvars.ResourceQuestionnaireResponse:
		return "qr"
	case constvars.ResourceAppointment:
		return "appt"
	case constvars.ResourcePractitioner:
		return "prac"
	case constvars.ResourceOrganization:
		return "org"
	}
	return strings.ToLower(resourceType)
}

func GenerateRequestID() string {
	return constvars.REQUEST_ID_PREFIX + uuid.NewString()
}

func GenerateLockValue() string {
	return uuid.NewString()
}
