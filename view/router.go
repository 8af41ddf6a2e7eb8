// Package view holds the view state machine of a visitor
package view

import (
	"sync"

	"github.com/mathhub-edu/mathhub/gate"
)

// View is one of the top level screens
type View string

// The views
const (
	MathHub View = "math-hub"
	Login   View = "login"
	Games   View = "games"
	Admin   View = "admin"
)

// Router switches between the views. Transitions not listed for the current
// view are ignored and reported as not taken.
type Router struct {
	mu      sync.Mutex
	current View
}

// NewRouter creates a Router showing MathHub
func NewRouter() *Router {
	return &Router{current: MathHub}
}

// Current returns the current view
func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Router) move(from []View, to View) (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range from {
		if r.current == f {
			r.current = to
			return to, true
		}
	}
	return r.current, false
}

// Trigger handles the secret trigger: authenticated visitors go straight to
// the games, everybody else to the login.
func (r *Router) Trigger(auth gate.AuthState) (View, bool) {
	if auth.Authenticated {
		return r.move([]View{MathHub}, Games)
	}
	return r.move([]View{MathHub}, Login)
}

// Back leaves the login for the math hub or the admin panel for the games
func (r *Router) Back() (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.current {
	case Login:
		r.current = MathHub
	case Admin:
		r.current = Games
	default:
		return r.current, false
	}
	return r.current, true
}

// LoginSucceeded leaves the login for the admin panel or the games
func (r *Router) LoginSucceeded(isAdmin bool) (View, bool) {
	if isAdmin {
		return r.move([]View{Login}, Admin)
	}
	return r.move([]View{Login}, Games)
}

// OpenAdmin opens the admin panel from the games for admins only
func (r *Router) OpenAdmin(auth gate.AuthState) (View, bool) {
	if !auth.IsAdmin {
		return r.Current(), false
	}
	return r.move([]View{Games}, Admin)
}

// Logout returns from the games or the admin panel to the math hub
func (r *Router) Logout() (View, bool) {
	return r.move([]View{Games, Admin}, MathHub)
}

// Renderable tells if v may be rendered for auth. Games needs an
// authenticated visitor and Admin an admin, whatever the router says.
func Renderable(v View, auth gate.AuthState) bool {
	switch v {
	case Games:
		return auth.Authenticated
	case Admin:
		return auth.IsAdmin
	case MathHub, Login:
		return true
	default:
		return false
	}
}
