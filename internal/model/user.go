package model

// User is the account returned by GET /users/profile/me and PATCH /users/{id}.
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// FullName returns "First Last".
func (u User) FullName() string {
	return Owner{FirstName: u.FirstName, LastName: u.LastName}.FullName()
}

// Signup is the body of POST /users.
type Signup struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// UserUpdate is the partial body of PATCH /users/{id}. Empty fields are not sent.
// Changing the password requires CurrentPassword.
type UserUpdate struct {
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Email           string `json:"email,omitempty"`
	Password        string `json:"password,omitempty"`
	CurrentPassword string `json:"current_password,omitempty"`
}

// AccountDeletion is the body of DELETE /users/{id}.
type AccountDeletion struct {
	Password string `json:"password"`
}

// PostInput is the body of POST /posts.
type PostInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

// PostPatch is the partial body of PATCH /posts/{id}; nil fields are left unchanged.
type PostPatch struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Published *bool   `json:"published,omitempty"`
}
