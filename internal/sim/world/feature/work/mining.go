package work

import "strings"

type ToolFamily int

const (
	ToolFamilyNone ToolFamily = iota
	ToolFamilyPickaxe
	ToolFamilyAxe
	ToolFamilyShovel
	ToolFamilyKnife
)

func (f ToolFamily) String() string {
	switch f {
	case ToolFamilyPickaxe:
		return "pickaxe"
	case ToolFamilyAxe:
		return "axe"
	case ToolFamilyShovel:
		return "shovel"
	case ToolFamilyKnife:
		return "knife"
	default:
		return "none"
	}
}

// ParseToolFamily maps a family name ("axe", "pickaxe", ...) as written in config.
// Unknown names and "" map to ToolFamilyNone.
func ParseToolFamily(name string) ToolFamily {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pickaxe":
		return ToolFamilyPickaxe
	case "axe":
		return ToolFamilyAxe
	case "shovel":
		return ToolFamilyShovel
	case "knife":
		return ToolFamilyKnife
	default:
		return ToolFamilyNone
	}
}

// ToolFamilyOf classifies the tool a client says it is holding, e.g. "tool_axe",
// "AXE" or "stone_pickaxe". Pickaxe is tested before axe since it ends in "axe".
func ToolFamilyOf(tool string) ToolFamily {
	t := strings.ToLower(strings.TrimSpace(tool))
	t = strings.TrimPrefix(t, "tool_")
	switch {
	case t == "":
		return ToolFamilyNone
	case strings.HasSuffix(t, "pickaxe"):
		return ToolFamilyPickaxe
	case strings.HasSuffix(t, "axe"):
		return ToolFamilyAxe
	case strings.HasSuffix(t, "shovel"):
		return ToolFamilyShovel
	case strings.HasSuffix(t, "knife"):
		return ToolFamilyKnife
	default:
		return ToolFamilyNone
	}
}

// ToolSatisfies reports whether tool may harvest something that requires the given
// family. ToolFamilyNone as a requirement accepts anything, including no tool.
func ToolSatisfies(required ToolFamily, tool string) bool {
	if required == ToolFamilyNone {
		return true
	}
	return ToolFamilyOf(tool) == required
}
