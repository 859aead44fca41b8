package domain

import "time"

// Profile holds the verification details a customer submits to subscribe.
type Profile struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user"`
	UserEmail          string    `json:"userEmail,omitempty"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	EmploymentStatus   string    `json:"employmentStatus"`
	JobDetails         string    `json:"jobDetails,omitempty"`
	Employer           string    `json:"employer,omitempty"`
	IDCardFrontKey     string    `json:"-"`
	IDCardBackKey      string    `json:"-"`
	AddressLine1       string    `json:"addressLine1,omitempty"`
	AddressLine2       string    `json:"addressLine2,omitempty"`
	City               string    `json:"city,omitempty"`
	Country            string    `json:"country,omitempty"`
	Postcode           string    `json:"postcode,omitempty"`
	SubscriptionStatus bool      `json:"subscriptionStatus"`
	CreatedAt          time.Time `json:"createdAt"`
}

var (
	EmploymentStatuses = []string{"employed", "retired", "volunteer"}
	JobDetails         = []string{"ambulance_service", "apha", "blood_bike", "dental_practice"}
	Employers          = []string{
		"ambulance_service", "fire_service", "hm_coustguard", "independent_lifeboat",
		"nhs", "police", "red_cross", "rnli", "search_and_rescue",
	}
)

// OneOf reports whether v is in choices.
func OneOf(v string, choices []string) bool {
	for _, c := range choices {
		if v == c {
			return true
		}
	}
	return false
}
