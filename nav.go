package main

import "strings"

type NavItem struct {
	Path   string
	Name   string
	Active bool
}

var navigation = []NavItem{
	{Path: "/", Name: "Home"},
	{Path: "/about", Name: "About"},
	{Path: "/portfolio", Name: "Portfolio"},
	{Path: "/blog", Name: "Blog"},
	{Path: "/contact", Name: "Contact"},
}

// navItems returns the navigation with the entry for current marked active.
// "/" only matches itself; other entries also match their sub-paths.
func navItems(current string) []NavItem {
	items := make([]NavItem, len(navigation))
	for i, item := range navigation {
		switch {
		case item.Path == "/":
			item.Active = current == "/"
		default:
			item.Active = current == item.Path || strings.HasPrefix(current, item.Path+"/")
		}
		items[i] = item
	}
	return items
}
