package model

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

// InvalidStatusError reports a status value outside the pending/approved/rejected set.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q: must be one of pending, approved, rejected", e.Value)
}

// ParseStatus converts external input into a Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", &InvalidStatusError{Value: s}
}

type Region string

const (
	RegionNCR      Region = "NCR"
	RegionLuzon    Region = "Luzon"
	RegionVisayas  Region = "Visayas"
	RegionMindanao Region = "Mindanao"
)

var Regions = []Region{RegionNCR, RegionLuzon, RegionVisayas, RegionMindanao}

func (r Region) Valid() bool {
	for _, v := range Regions {
		if v == r {
			return true
		}
	}
	return false
}

// Registration is one delegate record. Optional attributes are nil when the
// delegate left them out.
type Registration struct {
	ID                 int64     `db:"id" json:"id"`
	RegistrationID     string    `db:"registration_id" json:"registration_id"`
	DelegateType       string    `db:"delegate_type" json:"delegate_type"`
	Surname            string    `db:"surname" json:"surname"`
	FirstName          string    `db:"first_name" json:"first_name"`
	MiddleInitial      *string   `db:"middle_initial" json:"middle_initial"`
	Institution        string    `db:"institution" json:"institution"`
	InstitutionAddress string    `db:"institution_address" json:"institution_address"`
	InstitutionContact string    `db:"institution_contact" json:"institution_contact"`
	InstitutionEmail   string    `db:"institution_email" json:"institution_email"`
	RegionCluster      Region    `db:"region_cluster" json:"region_cluster"`
	DelegateContact    string    `db:"delegate_contact" json:"delegate_contact"`
	DelegateEmail      string    `db:"delegate_email" json:"delegate_email"`
	Age                int       `db:"age" json:"age"`
	TshirtSize         string    `db:"tshirt_size" json:"tshirt_size"`
	DietaryPreferences string    `db:"dietary_preferences" json:"dietary_preferences"`
	DietaryComments    *string   `db:"dietary_comments" json:"dietary_comments"`
	PaymentOption      string    `db:"payment_option" json:"payment_option"`
	PaymentProofURL    *string   `db:"payment_proof_url" json:"payment_proof_url"`
	TransactionRef     *string   `db:"transaction_ref" json:"transaction_ref"`
	Status             Status    `db:"status" json:"status"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// FullName is "FirstName Surname", the form searched by the dashboard.
func (r Registration) FullName() string {
	return r.FirstName + " " + r.Surname
}

// Stats is the dashboard aggregate: total plus per-region and per-delegate-type counts.
type Stats struct {
	Total          int            `json:"total"`
	ByRegion       map[string]int `json:"byRegion"`
	ByDelegateType map[string]int `json:"byDelegateType"`
}
