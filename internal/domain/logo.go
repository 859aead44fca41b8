package domain

import "time"

// Logo is the single company logo shown by clients. At most one exists.
type Logo struct {
	ID          string    `json:"id"`
	ImageKey    string    `json:"-"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
