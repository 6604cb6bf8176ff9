// Package routes decides what a path renders for the current auth state.
package routes

import (
	"fmt"
	"strings"
)

// Kind of a route decision
type Kind int

const (
	// Defer means the session is still loading; show a spinner.
	Defer Kind = iota
	Render
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Defer:
		return "defer"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Page rendered by a route
type Page string

const (
	PageLogin    Page = "LogInForm"
	PageSignup   Page = "SignUpForm"
	PageActive   Page = "ActiveIssuesPage"
	PageFinished Page = "FinishedIssuesPage"
	PageCreate   Page = "CreateIssuePage"
	PageAdmin    Page = "AdminPage"
)

// Well-known paths
const (
	PathRoot      = "/"
	PathLogin     = "/login"
	PathSignup    = "/signup"
	PathDashboard = "/dashboard"
	PathActive    = "/dashboard/active"
	PathFinished  = "/dashboard/finished"
	PathCreate    = "/dashboard/create"
	PathAdmin     = "/dashboard/admin"
)

// AuthState is what the guards look at
type AuthState struct {
	Loading  bool
	LoggedIn bool
	Admin    bool
}

// Decision is the outcome of resolving a path
type Decision struct {
	Kind   Kind
	Page   Page
	Target string
}

func (d Decision) String() string {
	switch d.Kind {
	case Render:
		return fmt.Sprintf("render %s", d.Page)
	case Redirect:
		return fmt.Sprintf("redirect %s", d.Target)
	default:
		return d.Kind.String()
	}
}

func render(p Page) Decision       { return Decision{Kind: Render, Page: p} }
func redirect(to string) Decision { return Decision{Kind: Redirect, Target: to} }

// Resolve applies the route table to path
func Resolve(path string, state AuthState) Decision {
	if state.Loading {
		return Decision{Kind: Defer}
	}

	path = normalize(path)
	home := PathLogin
	if state.LoggedIn {
		home = PathDashboard
	}

	switch path {
	case PathRoot:
		return redirect(home)
	case PathLogin:
		if state.LoggedIn {
			return redirect(PathDashboard)
		}
		return render(PageLogin)
	case PathSignup:
		if state.LoggedIn {
			return redirect(PathDashboard)
		}
		return render(PageSignup)
	}

	switch {
	case strings.HasPrefix(path, PathLogin+"/"):
		return redirect(PathLogin)
	case strings.HasPrefix(path, PathSignup+"/"), path == "/register", strings.HasPrefix(path, "/register/"):
		return redirect(PathSignup)
	}

	if path != PathDashboard && !strings.HasPrefix(path, PathDashboard+"/") {
		return redirect(home)
	}
	if !state.LoggedIn {
		return redirect(PathLogin)
	}
	return resolveDashboard(path, state)
}

func resolveDashboard(path string, state AuthState) Decision {
	sections := []struct {
		path string
		page Page
	}{
		{PathActive, PageActive},
		{PathFinished, PageFinished},
		{PathCreate, PageCreate},
	}

	if path == PathDashboard {
		return render(PageActive)
	}
	for _, s := range sections {
		if path == s.path {
			return render(s.page)
		}
		if strings.HasPrefix(path, s.path+"/") {
			return redirect(s.path)
		}
	}
	if path == PathAdmin || strings.HasPrefix(path, PathAdmin+"/") {
		if state.Admin {
			return render(PageAdmin)
		}
		return redirect(PathActive)
	}
	return redirect(PathDashboard)
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = PathRoot
		}
	}
	return path
}
