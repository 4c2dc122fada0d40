package registry

import (
	"time"

	id "agrocert/pkg/domain"
)

// CertStatus is the registry-side certificate state.
type CertStatus string

const (
	CertStatusValid     CertStatus = "valid"
	CertStatusExpired   CertStatus = "expired"
	CertStatusSuspended CertStatus = "suspended"
	CertStatusWithdrawn CertStatus = "withdrawn"
)

// CertificateInfo is the registry's view of a certificate.
type CertificateInfo struct {
	GGN          id.GGN     `json:"ggn"`
	Status       CertStatus `json:"status"`
	ProducerName string     `json:"producerName"`
	Country      string     `json:"country"`
	Standard     string     `json:"standard"`
	ValidUntil   time.Time  `json:"validUntil"`
	Scopes       []string   `json:"scopes,omitempty"`
}

// Producer is one producer search hit.
type Producer struct {
	GGN      id.GGN `json:"ggn"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	Category string `json:"category"`
}

// SearchFilters narrow a producer search. Zero values mean no filter.
type SearchFilters struct {
	Country  string
	Category string
	Limit    int
}

// BatchResult is the outcome of one GGN within a batch verification.
// Exactly one of Info and Err is set.
type BatchResult struct {
	Info *CertificateInfo
	Err  error
}
