// Package compose implements the compose synthesizer (component C5):
// merging a CompiledConfig into a compose template built from plain,
// yaml-tagged Go structs marshaled directly with gopkg.in/yaml.v3 —
// deliberately NOT an interpolation-aware compose library, so that
// passthrough markers emitted later by C8 are never re-resolved
// (spec §9 design note).
package compose

// Document is the top-level compose document C5 produces. Its tree is
// language-neutral (strings/maps/slices once marshaled) so C8 can
// walk it safely for the passthrough rewrite.
type Document struct {
	Services map[string]*Service   `yaml:"services"`
	Volumes  map[string]*VolumeSpec `yaml:"volumes,omitempty"`
}

// Service is one compose service block (stage-1 or stage-2).
type Service struct {
	Image       string      `yaml:"image,omitempty"`
	Build       *BuildSpec  `yaml:"build,omitempty"`
	Environment []string    `yaml:"environment,omitempty"`
	Ports       []string    `yaml:"ports,omitempty"`
	Volumes     []string    `yaml:"volumes,omitempty"`
	DependsOn   []string    `yaml:"depends_on,omitempty"`
	Deploy      *DeploySpec `yaml:"deploy,omitempty"`
}

// BuildSpec is a service's `build:` block.
type BuildSpec struct {
	Context    string            `yaml:"context,omitempty"`
	Dockerfile string            `yaml:"dockerfile,omitempty"`
	Args       map[string]string `yaml:"args,omitempty"`
}

// DeploySpec carries GPU device reservations (spec §4.5 step 6).
type DeploySpec struct {
	Resources *ResourcesSpec `yaml:"resources,omitempty"`
}

type ResourcesSpec struct {
	Reservations *ReservationsSpec `yaml:"reservations,omitempty"`
}

type ReservationsSpec struct {
	Devices []DeviceSpec `yaml:"devices,omitempty"`
}

type DeviceSpec struct {
	Capabilities []string `yaml:"capabilities,omitempty"`
	Count        string   `yaml:"count,omitempty"`
}

// VolumeSpec is a top-level `volumes:` entry.
type VolumeSpec struct {
	Driver     string            `yaml:"driver,omitempty"`
	DriverOpts map[string]string `yaml:"driver_opts,omitempty"`
	External   bool              `yaml:"external,omitempty"`
	Name       string            `yaml:"name,omitempty"`
}
