package notes

// Profile is a named container for categories and notes, owned by one user.
type Profile struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar,omitempty"`
	Description string `json:"description"`
	CreatedTs   int64  `json:"createdTs"`
}

// Category groups notes inside a profile. Categories carry no semantic
// content and never reach the mirror.
type Category struct {
	ID        string `json:"id"`
	ProfileID string `json:"profileId"`
	Name      string `json:"name"`
	CreatedTs int64  `json:"createdTs"`
}

// Note is one free-text entry. A note persisted through Submit always carries
// an embedding of the provider's dimensionality (the zero vector for empty
// text); a note without one is not search-eligible.
type Note struct {
	ID         string    `json:"id"`
	ProfileID  string    `json:"profileId"`
	UserID     string    `json:"userId"`
	CategoryID string    `json:"categoryId"`
	Entry      string    `json:"entry"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedTs  int64     `json:"createdTs"`
	UpdatedTs  int64     `json:"updatedTs"`
}

// ProfileRef addresses a profile by id or by display name. When both are set,
// the id wins.
type ProfileRef struct {
	ID   string
	Name string
}
