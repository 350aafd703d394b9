package types

import "time"

// Health states reported by classic ELB for a registered instance.
const (
	HealthInService    = "InService"
	HealthOutOfService = "OutOfService"
)

// LoadBalancer represents a classic ELB and its registered instances.
// InstanceIDs is nil when the provider returned no membership set, which
// happens for balancers still being provisioned.
type LoadBalancer struct {
	Name        string
	DNSName     string
	Scheme      string
	VPCID       string
	AZs         []string
	InstanceIDs []string
	CreatedAt   time.Time
}

// InstanceHealth is one entry of a per-instance health report.
type InstanceHealth struct {
	InstanceID  string
	State       string // InService, OutOfService, Unknown
	ReasonCode  string
	Description string
}
