package openai

import (
	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/providers"
)

// Wire roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

var wireRoles = map[protocol.Role]string{
	protocol.RoleUser:   RoleUser,
	protocol.RoleModel:  RoleAssistant,
	protocol.RoleSystem: RoleSystem,
	protocol.RoleTool:   RoleTool,
}

// ToWireRole maps a normalized role to its wire role.
func ToWireRole(role protocol.Role) (string, error) {
	wire, ok := wireRoles[role]
	if !ok {
		return "", &providers.UnsupportedRoleError{Role: string(role)}
	}
	return wire, nil
}
