package users

import "github.com/njoerd114/feedrelay/internal/model"

const pathUsers = "users"

// userResponse is the JSON structure returned by the user-lookup API. The
// API omits fields freely; defaulting happens in [toUser], at the
// deserialisation boundary.
type userResponse struct {
	ID        int              `json:"id"`
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Image     string           `json:"image"`
	Username  string           `json:"username"`
	Email     string           `json:"email"`
	Address   *addressResponse `json:"address"`
}

type addressResponse struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// toUser maps a lookup response into the model shape. Absent name parts
// default to "Unknown"/"User" and the address collapses to a "City, State"
// summary.
func toUser(r userResponse) model.User {
	u := model.User{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		ImageURL:  r.Image,
		Username:  r.Username,
		Email:     r.Email,
	}
	if u.FirstName == "" {
		u.FirstName = "Unknown"
	}
	if u.LastName == "" {
		u.LastName = "User"
	}
	if r.Address != nil {
		u.Address = model.JoinAddress(r.Address.City, r.Address.State)
	}
	return u
}
