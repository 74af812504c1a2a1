package linux

import _ "embed"

// DefaultSelinuxPolicyPath is where the compiled Meld policy package is
// installed on the host.
const DefaultSelinuxPolicyPath = "/usr/share/selinux/packages/meld.pp"

// SelinuxPolicy is the compiled policy package shipped with the installer.
//
//go:embed policies/meld.pp
var SelinuxPolicy []byte
