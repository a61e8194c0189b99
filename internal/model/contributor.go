package model

// Contributor is one avatar in the README's contributor wall.
type Contributor struct {
	Login         string `json:"login"`
	AvatarURL     string `json:"avatarUrl"`
	ProfileURL    string `json:"profileUrl"`
	Contributions int    `json:"contributions"`
}
