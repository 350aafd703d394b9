package types

import "time"

// Instance is a snapshot of an EC2 instance taken from one inventory query.
// It is immutable for the duration of a task run.
type Instance struct {
	ID         string
	Name       string
	PrivateIP  string
	PublicIP   string
	State      string
	Type       string
	AZ         string
	SubnetID   string
	Tags       map[string]string
	LaunchTime time.Time
}
