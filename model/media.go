// model/media.go
package model

import "time"

// MediaState is the explicit lifecycle state derived from a media row.
// OVERDUE is computed, never stored.
type MediaState string

const (
	StateAvailable      MediaState = "AVAILABLE"
	StateAwaitingPickup MediaState = "AWAITING_PICKUP"
	StateCheckedOut     MediaState = "CHECKED_OUT"
	StateOverdue        MediaState = "OVERDUE"
)

type Media struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Author       string     `json:"author,omitempty"`
	Img          string     `json:"img,omitempty"`
	Type         string     `json:"type"`
	Available    bool       `json:"available"`
	CheckedOutBy *int64     `json:"checked_out_by,omitempty"`
	HoldQueue    []int64    `json:"hold_queue,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Renewals     *int       `json:"renewals,omitempty"`
}

// CreateMediaReq represents the admin create-media payload
// swagger:model CreateMediaReq
type CreateMediaReq struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author"`
	Img    string `json:"img"`
	Type   string `json:"type" validate:"required"`
}

// UpdateMediaReq represents the admin edit-media payload
// swagger:model UpdateMediaReq
type UpdateMediaReq struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author"`
	Img    string `json:"img"`
	Type   string `json:"type" validate:"required"`
}
