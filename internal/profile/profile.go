package profile

import (
	"tsundoku/internal/reading"
	"tsundoku/internal/user"
)

// Profile is the signed-in user's account together with their shelf statistics.
type Profile struct {
	User  user.User     `json:"user"`
	Stats reading.Stats `json:"stats"`
}
