package models

// User is a profile document from the users collection.
type User struct {
	ID        string   `json:"id"`
	AccountID string   `json:"account_id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Bio       string   `json:"bio,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
	ImageID   string   `json:"image_id,omitempty"`
	Followers []string `json:"followers"`
	Following []string `json:"following"`
}

// IsFollowedBy reports whether userID appears in u's followers.
func (u User) IsFollowedBy(userID string) bool {
	for _, id := range u.Followers {
		if id == userID {
			return true
		}
	}
	return false
}
