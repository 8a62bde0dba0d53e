package responses

import "maternity-service/internal/app/models"

const (
	BundleResourceType = "Bundle"
	BundleTypeSearch   = "searchset"
)

// Bundle is the searchset envelope returned by list endpoints.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Total        int           `json:"total"`
	Entry        []BundleEntry `json:"entry"`
}

type BundleEntry struct {
	FullURL  string           `json:"fullUrl"`
	Resource *models.Resource `json:"resource"`
}

func NewSearchBundle(resources []*models.Resource) Bundle {
	entries := make([]BundleEntry, 0, len(resources))
	for _, resource := range resources {
		entries = append(entries, BundleEntry{
			FullURL:  resource.Reference().String(),
			Resource: resource,
		})
	}
	return Bundle{
		ResourceType: BundleResourceType,
		Type:         BundleTypeSearch,
		Total:        len(entries),
		Entry:        entries,
	}
}
