package types

import "time"

// User represents an account in the system.
// It contains identity, credential material, and profile data.
type User struct {
	// ID is the unique identifier of the user (a UUID string).
	ID string `json:"_id" db:"id"`

	// Email is the user's email address. It is unique and never changes.
	Email string `json:"email" db:"email"`

	// Account holds the public profile of the user.
	Account Account `json:"account"`

	// Token is the long-lived bearer credential issued at signup.
	Token string `json:"token" db:"token"`

	// Hash is base64(SHA-256(password + Salt)).
	// This field is never exposed in API responses.
	Hash string `json:"-" db:"hash"`

	// Salt is the random string mixed into Hash.
	// This field is never exposed in API responses.
	Salt string `json:"-" db:"salt"`

	// Rooms lists the identifiers of listings owned by the user.
	Rooms []string `json:"rooms" db:"rooms"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"-" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// Account is the user-facing part of a User.
type Account struct {
	// Username is the unique public name chosen at signup.
	Username string `json:"username" db:"username"`

	// Description is free text shown on the profile.
	Description string `json:"description" db:"description"`

	// Photo is nil until a picture is uploaded and after it is deleted.
	Photo *Photo `json:"photo,omitempty"`
}

// Photo references a profile picture held in object storage.
type Photo struct {
	// URL is the public (https) location of the picture.
	URL string `json:"url" db:"photo_url"`

	// PictureID is the object storage identifier, reused when the picture is replaced.
	PictureID string `json:"picture_id" db:"photo_picture_id"`
}

// UserProfile is the projection returned by signup and login.
type UserProfile struct {
	ID      string  `json:"_id"`
	Email   string  `json:"email"`
	Account Account `json:"account"`
	Token   string  `json:"token"`
}

// UserPictureProfile is the projection returned by picture operations.
type UserPictureProfile struct {
	ID      string   `json:"_id"`
	Email   string   `json:"email"`
	Account Account  `json:"account"`
	Rooms   []string `json:"rooms"`
}

// Profile projects the user for signup and login responses.
func (u User) Profile() UserProfile {
	return UserProfile{
		ID:      u.ID,
		Email:   u.Email,
		Account: u.Account,
		Token:   u.Token,
	}
}

// PictureProfile projects the user for picture responses.
func (u User) PictureProfile() UserPictureProfile {
	rooms := u.Rooms
	if rooms == nil {
		rooms = []string{}
	}
	return UserPictureProfile{
		ID:      u.ID,
		Email:   u.Email,
		Account: u.Account,
		Rooms:   rooms,
	}
}
