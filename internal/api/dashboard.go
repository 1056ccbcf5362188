package api

import (
	"net/url"
	"strings"

	"shopsense/internal/models"
	"shopsense/internal/recommend"
)

const (
	titlePersonalized = "Curated For You"
	titleGeneric      = "Trending Now"
	avatarURLPrefix   = "https://api.dicebear.com/7.x/avataaars/svg?seed="
)

// Personalization states reported to the client.
const (
	PersonalizationOn          = "on"
	PersonalizationOff         = "off"
	PersonalizationUnavailable = "unavailable"
)

func buildDashboard(sess *models.Session, recs recommend.Recommendations, available bool) models.DashboardResponse {
	resp := models.DashboardResponse{
		Greeting:  "Hello, " + firstName(sess.User.Name),
		AvatarURL: avatarURLPrefix + url.QueryEscape(sess.User.Email),
		Title:     titleGeneric,
		Products:  recs.Products,
	}

	switch {
	case !available:
		resp.Personalization = PersonalizationUnavailable
	case sess.HasPermission:
		resp.Personalization = PersonalizationOn
	default:
		resp.Personalization = PersonalizationOff
	}

	if recs.Bundle != nil {
		resp.Title = titlePersonalized
		resp.Insights = insightsFrom(*recs.Bundle)
	}
	return resp
}

// insightsFrom keeps the first two contact interests; the summary names at
// most two.
func insightsFrom(b models.ActivityBundle) *models.Insights {
	interests := b.ContactInterests
	if len(interests) > 2 {
		interests = interests[:2]
	}
	return &models.Insights{
		Interests:      append([]string{}, interests...),
		RecentMessages: len(b.RecentMessages),
	}
}

func firstName(name string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first
}
