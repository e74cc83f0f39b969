package models

import "time"

type RPC struct {
	ID        int64
	Network   string
	URL       string
	Provider  string
	Priority  int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
