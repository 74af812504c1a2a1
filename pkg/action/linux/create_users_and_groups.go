package linux

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/meldworks/meld-installer/pkg/action"
)

// CreateUsersAndGroupsTag identifies the create_users_and_groups action kind.
const CreateUsersAndGroupsTag = "create_users_and_groups"

// SysusersPath is the declarative system-users configuration the action
// manages. systemd-sysusers reconciles users and groups against it in both
// directions: writing it creates them, removing it and re-running the tool
// drops them.
const SysusersPath = "/usr/lib/sysusers.d/meld.conf"

func init() {
	action.Register(CreateUsersAndGroupsTag, func() action.Action { return new(CreateUsersAndGroups) })
}

// CreateUsersAndGroups provisions the build group and build users the Meld
// daemon acts as, using the systemd-sysusers declarative mechanism.
type CreateUsersAndGroups struct {
	GroupName  string `json:"group_name"`
	GroupID    uint32 `json:"group_id"`
	UserCount  uint32 `json:"user_count"`
	UserPrefix string `json:"user_prefix"`
	UserIDBase uint32 `json:"user_id_base"`
}

// PlanCreateUsersAndGroups captures the user and group layout to provision.
// No system inspection happens here; systemd-sysusers is itself convergent.
func PlanCreateUsersAndGroups(groupName string, groupID, userCount uint32, userPrefix string, userIDBase uint32) (*action.StatefulAction, error) {
	return action.New(&CreateUsersAndGroups{
		GroupName:  groupName,
		GroupID:    groupID,
		UserCount:  userCount,
		UserPrefix: userPrefix,
		UserIDBase: userIDBase,
	}), nil
}

// Tag implements Action.
func (a *CreateUsersAndGroups) Tag() string {
	return CreateUsersAndGroupsTag
}

// Synopsis implements Action.
func (a *CreateUsersAndGroups) Synopsis() string {
	if a.UserCount == 0 {
		return fmt.Sprintf("Create %s with build group %s (GID %d)",
			SysusersPath, a.GroupName, a.GroupID)
	}
	return fmt.Sprintf("Create %s with build users %s* (UID %d-%d) and group %s (GID %d)",
		SysusersPath, a.UserPrefix, a.UserIDBase+1, a.UserIDBase+a.UserCount, a.GroupName, a.GroupID)
}

// ExecuteDescription implements Action.
func (a *CreateUsersAndGroups) ExecuteDescription() []action.Description {
	return []action.Description{
		{
			Headline: a.Synopsis(),
			Reasons:  []string{"The Meld daemon requires system users (and a group they share) which it can act as in order to build"},
		},
		{
			Headline: fmt.Sprintf("Run `systemd-sysusers %s` to create the users and group", SysusersPath),
			Reasons:  []string{"Build users and group are required for the rest of the installation to succeed"},
		},
	}
}

// RevertDescription implements Action.
func (a *CreateUsersAndGroups) RevertDescription() []action.Description {
	return []action.Description{
		{
			Headline: fmt.Sprintf("Remove %s containing the build users and group", SysusersPath),
			Reasons:  []string{"The Meld daemon requires system users (and a group they share) which it can act as in order to build"},
		},
		{
			Headline: fmt.Sprintf("Run `systemd-sysusers %s` to remove the users and group", SysusersPath),
		},
	}
}

// Execute implements Action.
func (a *CreateUsersAndGroups) Execute(ctx context.Context) error {
	var conf strings.Builder
	conf.WriteString("# Meld build group and users.\n")
	fmt.Fprintf(&conf, "g %s %d\n", a.GroupName, a.GroupID)
	for i := uint32(1); i <= a.UserCount; i++ {
		uid := a.UserIDBase + i - 1
		userName := fmt.Sprintf("%s%d", a.UserPrefix, i)
		// The user must be an explicit member of the group, otherwise the
		// daemon rejects the build group as empty.
		fmt.Fprintf(&conf, "u %s %d:%d \"Meld build user %d\"\n", userName, uid, a.GroupID, i)
		fmt.Fprintf(&conf, "m %s %s\n", userName, a.GroupName)
	}

	if err := os.WriteFile(SysusersPath, []byte(conf.String()), 0o644); err != nil {
		return action.NewWriteError(SysusersPath, err)
	}

	return action.RunCommand(ctx, "systemd-sysusers", SysusersPath)
}

// Revert implements Action.
func (a *CreateUsersAndGroups) Revert(ctx context.Context) error {
	if err := os.Remove(SysusersPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return action.NewRemoveError(SysusersPath, err)
	}
	return action.RunCommand(ctx, "systemd-sysusers")
}
