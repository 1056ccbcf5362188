package models

import "time"

// Screen is the step of the app flow a session is on.
type Screen string

const (
	ScreenLogin       Screen = "LOGIN"
	ScreenPermissions Screen = "PERMISSIONS"
	ScreenDashboard   Screen = "DASHBOARD"
)

type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ActivityBundle is the simulated snapshot of what the app "found" on the
// device. It lives for a single recommendation request.
type ActivityBundle struct {
	RecentMessages   []string `json:"recentMessages"`
	ContactInterests []string `json:"contactInterests"`
}

// Product is display-ready only once ImageURL is set.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	MatchReason string  `json:"matchReason,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

type Session struct {
	ID            string      `json:"id"`
	User          UserProfile `json:"user"`
	Screen        Screen      `json:"screen"`
	HasPermission bool        `json:"hasPermission"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token  string      `json:"token"`
	User   UserProfile `json:"user"`
	Screen Screen      `json:"screen"`
}

type PermissionRequest struct {
	Grant bool `json:"grant"`
}

type PermissionResponse struct {
	Screen        Screen `json:"screen"`
	HasPermission bool   `json:"hasPermission"`
}

// Insights summarises the bundle a personalised dashboard was built from.
type Insights struct {
	Interests      []string `json:"interests"`
	RecentMessages int      `json:"recentMessages"`
}

type DashboardResponse struct {
	Greeting        string    `json:"greeting"`
	AvatarURL       string    `json:"avatarUrl"`
	Title           string    `json:"title"`
	Personalization string    `json:"personalization"`
	Insights        *Insights `json:"insights,omitempty"`
	Products        []Product `json:"products"`
}
