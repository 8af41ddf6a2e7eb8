package adminapi

import (
	"github.com/gofiber/fiber/v2"
	slices2 "tideland.dev/go/slices"

	"github.com/mathhub-edu/mathhub/gate"
)

// Stats summarizes the attempt log and the session list
type Stats struct {
	Attempts      int            `json:"attempts"`
	Successful    int            `json:"successful"`
	Failed        int            `json:"failed"`
	AdminLogins   int            `json:"adminLogins"`
	UniqueUsers   int            `json:"uniqueUsers"`
	Sessions      int            `json:"sessions"`
	AdminSessions int            `json:"adminSessions"`
	Countries     map[string]int `json:"countries,omitempty"`
}

func computeStats(g *gate.Gate) Stats {
	var s Stats
	var users []string
	for _, a := range g.Attempts.List() {
		s.Attempts++
		if a.Success {
			s.Successful++
			if a.IsAdmin {
				s.AdminLogins++
			}
		} else {
			s.Failed++
		}
		users = append(users, a.Username)
		if a.Country != "" {
			if s.Countries == nil {
				s.Countries = make(map[string]int)
			}
			s.Countries[a.Country]++
		}
	}
	s.UniqueUsers = len(slices2.Unique(users))
	for _, se := range g.Sessions.List() {
		s.Sessions++
		if se.IsAdmin {
			s.AdminSessions++
		}
	}
	return s
}

// registerStats wires the statistics handler
func registerStats(r fiber.Router, g *gate.Gate) {
	r.Get(
		"/stats", func(c *fiber.Ctx) error {
			return c.JSON(computeStats(g))
		},
	)
}
