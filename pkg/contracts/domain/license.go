// Package domain contains the core domain models for SWLic.
// These types are shared by the scraper, the service layer and the HTTP front.
package domain

import (
	"time"
)

// SubscriptionStatus describes whether a license is still under maintenance
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "On subscription"
	SubscriptionInactive SubscriptionStatus = "Not on subscription"
)

// NoActivatedMachine is reported when none of the activation rows is active
const NoActivatedMachine = "Machine not activated"

// Activation is a single row of the portal's per-machine activation table
type Activation struct {
	Row         int    `json:"row"`
	MachineName string `json:"machineName"`
	Activated   bool   `json:"activated"`
}

// SerialRecord holds the raw fields read from the portal's serial detail view.
// All values are kept exactly as the portal displays them.
type SerialRecord struct {
	ProductName    string       `json:"productName"`
	Version        string       `json:"version"`
	SerialNumber   string       `json:"serialNumber"`
	MaintenanceEnd string       `json:"maintEnd"`
	Activations    []Activation `json:"activations"`
}

// ActivatedMachine returns the machine name of the first activated row
func (r *SerialRecord) ActivatedMachine() string {
	for _, a := range r.Activations {
		if a.Activated {
			return a.MachineName
		}
	}
	return NoActivatedMachine
}

// LicenseCheck is the assembled answer for a serial number lookup.
// The JSON keys, including the capitalised SerialNumber, are part of the
// public API.
type LicenseCheck struct {
	ProductName          string             `json:"productName"`
	Version              string             `json:"version"`
	SPVersion            string             `json:"spVersion"`
	SerialNumber         string             `json:"SerialNumber"`
	MaintenanceEnd       string             `json:"maintEnd"`
	ActivatedMachineName string             `json:"activatedMachineName"`
	SubscriptionStatus   SubscriptionStatus `json:"subscriptionStatus"`
	Activations          []Activation       `json:"activations"`
	CheckedAt            time.Time          `json:"checkedAt"`
}

// OnSubscription reports whether the maintenance window is still open
func (c *LicenseCheck) OnSubscription() bool {
	return c.SubscriptionStatus == SubscriptionActive
}

// ServicePackResolution is the response of the offline resolve endpoint
type ServicePackResolution struct {
	Version        string `json:"version"`
	MaintenanceEnd string `json:"maintEnd"`
	Year           string `json:"year"`
	SPVersion      string `json:"spVersion"`
}
