package linux

import (
	"context"
	"fmt"

	"github.com/meldworks/meld-installer/pkg/action"
)

// EnableSystemdUnitTag identifies the enable_systemd_unit action kind.
const EnableSystemdUnitTag = "enable_systemd_unit"

func init() {
	action.Register(EnableSystemdUnitTag, func() action.Action { return new(EnableSystemdUnit) })
}

// EnableSystemdUnit enables a systemd unit. On revert it disables the unit
// again. The unit is not started; units take effect on the next boot or
// daemon reload, which keeps the action safe inside image builds.
type EnableSystemdUnit struct {
	Unit string `json:"unit"`
}

// PlanEnableSystemdUnit captures the unit to enable. systemctl enable is
// itself convergent, so no system inspection happens here.
func PlanEnableSystemdUnit(unit string) (*action.StatefulAction, error) {
	return action.New(&EnableSystemdUnit{Unit: unit}), nil
}

// Tag implements Action.
func (a *EnableSystemdUnit) Tag() string {
	return EnableSystemdUnitTag
}

// Synopsis implements Action.
func (a *EnableSystemdUnit) Synopsis() string {
	return fmt.Sprintf("Enable the systemd unit `%s`", a.Unit)
}

// ExecuteDescription implements Action.
func (a *EnableSystemdUnit) ExecuteDescription() []action.Description {
	return []action.Description{{Headline: a.Synopsis()}}
}

// RevertDescription implements Action.
func (a *EnableSystemdUnit) RevertDescription() []action.Description {
	return []action.Description{{
		Headline: fmt.Sprintf("Disable the systemd unit `%s`", a.Unit),
	}}
}

// Execute implements Action.
func (a *EnableSystemdUnit) Execute(ctx context.Context) error {
	return action.RunCommand(ctx, "systemctl", "enable", a.Unit)
}

// Revert implements Action.
func (a *EnableSystemdUnit) Revert(ctx context.Context) error {
	return action.RunCommand(ctx, "systemctl", "disable", a.Unit)
}
