package domain

// ActionCategory groups permitted chat actions in the capability menu.
// The integer values are part of the wire contract.
type ActionCategory int

const (
	CategoryPlaybooks ActionCategory = 0
	CategoryActions   ActionCategory = 1
	CategorySearch    ActionCategory = 2
	CategorySettings  ActionCategory = 3
)

// String returns the menu label for the category.
func (c ActionCategory) String() string {
	switch c {
	case CategoryPlaybooks:
		return "playbooks"
	case CategoryActions:
		return "actions"
	case CategorySearch:
		return "search"
	case CategorySettings:
		return "settings"
	default:
		return "unknown"
	}
}

// ChatAction is one permitted action in the chat capability menu.
type ChatAction struct {
	ID                 string         `json:"id"`
	Label              string         `json:"label"`
	Description        string         `json:"description"`
	Icon               string         `json:"icon"`
	Category           ActionCategory `json:"category"`
	Shortcut           string         `json:"shortcut"`
	RequiredCapability string         `json:"requiredCapability"`
}

// ActionSet is the BFF response for a session's permitted actions.
type ActionSet struct {
	Actions    []ChatAction     `json:"actions"`
	Categories []ActionCategory `json:"categories"`
}
