package editor

import (
	"fmt"
	"strings"
)

// Tool represents the current interaction tool.
type Tool int

const (
	ToolDraw Tool = iota
	ToolErase
	ToolPan
)

// Valid reports whether t is one of the defined tools.
func (t Tool) Valid() bool {
	return t >= ToolDraw && t <= ToolPan
}

func (t Tool) String() string {
	switch t {
	case ToolDraw:
		return "draw"
	case ToolErase:
		return "erase"
	case ToolPan:
		return "pan"
	default:
		return "unknown"
	}
}

// ParseTool converts a tool name to a Tool.
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draw":
		return ToolDraw, nil
	case "erase":
		return ToolErase, nil
	case "pan":
		return ToolPan, nil
	}
	return ToolDraw, fmt.Errorf("unknown tool %q", s)
}
