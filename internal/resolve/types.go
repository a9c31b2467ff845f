// Package resolve implements the config resolver (component C4): it
// derives a CompiledConfig from a validated ProjectConfig, applying
// stage-1 -> stage-2 inheritance, proxy/APT/SSH/device derivation,
// storage and mount resolution, port ordering, and custom-script
// tokenization.
package resolve

import "github.com/igamenovoer/peidocker/internal/sshkeys"

// ScriptInvocation is one tokenized custom-script entry: the script
// path as declared (relative to its stage's installation tree) and
// its argument list, in declaration order.
type ScriptInvocation struct {
	ScriptPath string
	Args       []string
}

// VolumeKind mirrors pconfig's storage/mount type enum.
type VolumeKind string

const (
	VolumeKindImage        VolumeKind = "image"
	VolumeKindAutoVolume   VolumeKind = "auto-volume"
	VolumeKindManualVolume VolumeKind = "manual-volume"
	VolumeKindHost         VolumeKind = "host"
)

// VolumeDecl is one resolved storage or mount entry, ready for C5 to
// turn into compose `volumes:` and service-level mount entries.
type VolumeDecl struct {
	// ComposeKey is the top-level `volumes:` key: the storage keyword
	// itself, or "mount_<name>" for a mount entry (spec §4.4, §9).
	ComposeKey string
	Family     string // "storage" or "mount"
	Name       string // the storage keyword or mount name
	Kind       VolumeKind
	HostPath   string
	VolumeName string // external volume name (manual-volume) or generated name (auto-volume)
	External   bool
	DstPath    string
}

// ImageNames is a stage's resolved build and output image references.
type ImageNames struct {
	Base   string
	Output string
}

// CompiledStage carries every derived quantity for one stage, ready
// for C5/C6/C9 to consume without re-deriving anything.
type CompiledStage struct {
	Name        string // "stage-1" or "stage-2"
	Image       ImageNames
	BuildArgs   map[string]string
	Environment []string
	Ports       []string
	Volumes     []VolumeDecl
	GPU         bool
	Scripts     map[string][]ScriptInvocation // lifecycle -> invocations, declaration order
	// SSHKeyFiles are stage-1-only: key files resolved by C7, awaiting
	// C9's atomic write alongside the compose file and generated
	// scripts.
	SSHKeyFiles []sshkeys.KeyFile
}

// CompiledConfig is the full output of C4, consumed by C5 (compose),
// C6 (scripts), and C7 (ssh keys already folded into Stage1.BuildArgs).
type CompiledConfig struct {
	Stage1   *CompiledStage
	Stage2   *CompiledStage // nil if the config declares no stage_2
	Warnings []string
}

// Lifecycles is the fixed, ordered set of script lifecycles C6
// generates a wrapper for.
var Lifecycles = []string{"on_build", "on_first_run", "on_every_run", "on_user_login", "on_entry"}
