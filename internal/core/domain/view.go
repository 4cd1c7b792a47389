package domain

import "fmt"

// View is the active screen of the dashboard
type View string

const (
	ViewDashboard View = "dashboard"
	ViewUpload    View = "upload"
	ViewAnalytics View = "analytics"
	ViewInsights  View = "insights"
	ViewSettings  View = "settings"
)

// NavItem is an entry of the navigation bar
type NavItem struct {
	View  View
	Label string
	Key   string
}

// NavItems lists the views in navigation order
var NavItems = []NavItem{
	{View: ViewDashboard, Label: "Dashboard", Key: "1"},
	{View: ViewUpload, Label: "Upload", Key: "2"},
	{View: ViewAnalytics, Label: "Analytics", Key: "3"},
	{View: ViewInsights, Label: "AI Insights", Key: "4"},
	{View: ViewSettings, Label: "Settings", Key: "5"},
}

// ParseView validates a view name
func ParseView(s string) (View, error) {
	for _, item := range NavItems {
		if string(item.View) == s {
			return item.View, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Label returns the navigation label of the view
func (v View) Label() string {
	for _, item := range NavItems {
		if item.View == v {
			return item.Label
		}
	}
	return string(v)
}
