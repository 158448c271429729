package build

import (
	"maps"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/filters"
	"git.home.luguber.info/inful/sitebuilder/internal/route"
)

// Rule transforms every document matched by its patterns.
type Rule struct {
	Name     string
	Patterns []string
	Filters  []filters.Filter
	// Context is the static variable layer under each document's metadata.
	Context docmodel.Variables
	// Template wraps the filtered body when non-empty.
	Template string
	Route    route.Route
}

// NewRule returns a rule with identity routing and no filters.
func NewRule(name string, patterns ...string) *Rule {
	return &Rule{
		Name:     name,
		Patterns: patterns,
		Context:  docmodel.Variables{},
		Route:    route.Identity,
	}
}

// Filter appends filters. They run in the order added.
func (r *Rule) Filter(fs ...filters.Filter) *Rule {
	r.Filters = append(r.Filters, fs...)
	return r
}

// Set stores a static context variable.
func (r *Rule) Set(key string, value any) *Rule {
	if r.Context == nil {
		r.Context = docmodel.Variables{}
	}
	r.Context[key] = value
	return r
}

// WithContext merges vars into the static context.
func (r *Rule) WithContext(vars docmodel.Variables) *Rule {
	if r.Context == nil {
		r.Context = docmodel.Variables{}
	}
	maps.Copy(r.Context, vars)
	return r
}

// Wrap sets the wrapping template name.
func (r *Rule) Wrap(template string) *Rule {
	r.Template = template
	return r
}

// RouteWith sets the route.
func (r *Rule) RouteWith(rt route.Route) *Rule {
	r.Route = rt
	return r
}

// Copy moves matched files to their routed path unchanged.
type Copy struct {
	Patterns []string
	Route    route.Route
}

// NewCopy returns a copy with identity routing.
func NewCopy(patterns ...string) *Copy {
	return &Copy{Patterns: patterns, Route: route.Identity}
}

// RouteWith sets the route.
func (c *Copy) RouteWith(rt route.Route) *Copy {
	c.Route = rt
	return c
}
