package config

import (
	"os"
	"time"
)

const (
	// RQCAPIVersion is the protocol version expected by the RQC service.
	RQCAPIVersion = "2025-09-16"

	// AdapterVersion identifies this adapter build.
	AdapterVersion = "0.1"

	// AdapterIdentity is sent with every request so RQC can attribute traffic.
	AdapterIdentity = "RQC adapter " + AdapterVersion + " (Go)"

	// RQCRequestTimeout bounds every outbound call. A timeout counts as a
	// retryable failure.
	RQCRequestTimeout = 10 * time.Second
)

const defaultRQCBaseURL = "https://reviewqualitycollector.org/api"

// RQCBaseURL returns the base URL of the RQC REST API. Overridable via
// RQC_API_BASE_URL for the demo instance or local stubs.
func RQCBaseURL() string {
	if url := os.Getenv("RQC_API_BASE_URL"); url != "" {
		return url
	}
	return defaultRQCBaseURL
}

// HostAppVersion reports the version of the journal application on whose
// behalf the adapter submits. The host sets HOST_APP_VERSION at deploy time.
func HostAppVersion() string {
	if v := os.Getenv("HOST_APP_VERSION"); v != "" {
		return v
	}
	return "unknown"
}
