package domain

// CatalogService is a row from the master service catalog. The queue
// consults it only to validate a submitted resource name and obtain its
// canonical identifier and spelling.
type CatalogService struct {
	ServiceID      int64  `json:"service_id"`
	ServiceName    string `json:"service_name"`
	CommonName     string `json:"common_name,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
	ServiceLink    string `json:"service_link,omitempty"`
	IsActive       bool   `json:"is_active"`
}
