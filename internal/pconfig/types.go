// Package pconfig defines the typed schema for user_config.yml
// (component C3's model) and the validator enforcing its cross-field
// invariants.
package pconfig

// ProjectConfig is the root of a decoded user_config.yml.
type ProjectConfig struct {
	Stage1 *StageConfig `yaml:"stage_1"`
	Stage2 *StageConfig `yaml:"stage_2,omitempty"`
}

// ImageConfig names the base image a stage builds from and the tag it
// produces.
type ImageConfig struct {
	Base   string `yaml:"base,omitempty"`
	Output string `yaml:"output,omitempty"`
}

// ProxyConfig configures an HTTP(S) proxy forwarded into a stage's
// build args.
type ProxyConfig struct {
	Address          string `yaml:"address,omitempty"`
	Port             int    `yaml:"port,omitempty"`
	EnableGlobally   bool   `yaml:"enable_globally,omitempty"`
	RemoveAfterBuild bool   `yaml:"remove_after_build,omitempty"`
	UseHTTPS         bool   `yaml:"use_https,omitempty"`
}

// Known apt.repo_source keywords; any other value is treated as a
// repository-relative file path.
var KnownAptMirrors = map[string]bool{
	"tuna":   true,
	"aliyun": true,
	"163":    true,
	"ustc":   true,
	"cn":     true,
}

// AptConfig configures APT mirror rewriting for a stage.
type AptConfig struct {
	RepoSource          string `yaml:"repo_source,omitempty"`
	KeepRepoAfterBuild  bool   `yaml:"keep_repo_after_build,omitempty"`
	UseProxy            bool   `yaml:"use_proxy,omitempty"`
	KeepProxyAfterBuild bool   `yaml:"keep_proxy_after_build,omitempty"`
	NumRetries          int    `yaml:"num_retries,omitempty"`
}

// DeviceConfig selects whether a stage's compose service reserves a
// GPU device.
type DeviceConfig struct {
	Type string `yaml:"type,omitempty"` // "cpu" or "gpu"
}

// StorageKeywords is the fixed set of permitted keys in a stage's
// storage map (spec §3, §4.3 invariant 1).
var StorageKeywords = map[string]bool{
	"app":       true,
	"data":      true,
	"workspace": true,
}

// StorageEntry describes how one storage keyword is backed.
type StorageEntry struct {
	Type       string `yaml:"type"` // auto-volume | manual-volume | host | image
	HostPath   string `yaml:"host_path,omitempty"`
	VolumeName string `yaml:"volume_name,omitempty"`
}

// MountEntry describes an arbitrarily-named mount, resolved
// independently of the storage namespace.
type MountEntry struct {
	Type       string `yaml:"type"` // auto-volume | manual-volume | host
	HostPath   string `yaml:"host_path,omitempty"`
	VolumeName string `yaml:"volume_name,omitempty"`
	DstPath    string `yaml:"dst_path"`
}

// CustomScripts holds the per-lifecycle raw script entries declared
// for one stage.
type CustomScripts struct {
	OnBuild     []string `yaml:"on_build,omitempty"`
	OnFirstRun  []string `yaml:"on_first_run,omitempty"`
	OnEveryRun  []string `yaml:"on_every_run,omitempty"`
	OnUserLogin []string `yaml:"on_user_login,omitempty"`
	OnEntry     OneOrMany `yaml:"on_entry,omitempty"`
}

// SSHConfig configures the stage-1 SSH server (see §9 Open Questions
// for the stage_2.ssh mapping policy).
type SSHConfig struct {
	Enable   bool                `yaml:"enable,omitempty"`
	Port     int                 `yaml:"port,omitempty"`
	HostPort *int                `yaml:"host_port,omitempty"`
	Users    map[string]*SSHUser `yaml:"users,omitempty"`
}

// SSHUser is one entry in ssh.users. At most one of PubkeyFile/PubkeyText
// and at most one of PrivkeyFile/PrivkeyText may be set.
type SSHUser struct {
	Password    *string `yaml:"password,omitempty"`
	UID         *int    `yaml:"uid,omitempty"`
	PubkeyFile  string  `yaml:"pubkey_file,omitempty"`
	PubkeyText  string  `yaml:"pubkey_text,omitempty"`
	PrivkeyFile string  `yaml:"privkey_file,omitempty"`
	PrivkeyText string  `yaml:"privkey_text,omitempty"`
}

// Inaccessible reports whether this user has neither a password nor
// any key material, per spec §3's "inaccessible" flag.
func (u *SSHUser) Inaccessible() bool {
	hasPassword := u.Password != nil && *u.Password != ""
	hasPubkey := u.PubkeyFile != "" || u.PubkeyText != ""
	hasPrivkey := u.PrivkeyFile != "" || u.PrivkeyText != ""
	return !hasPassword && !hasPubkey && !hasPrivkey
}

// StageConfig is the per-stage configuration block.
type StageConfig struct {
	Image       *ImageConfig            `yaml:"image,omitempty"`
	SSH         *SSHConfig              `yaml:"ssh,omitempty"`
	Proxy       *ProxyConfig            `yaml:"proxy,omitempty"`
	Apt         *AptConfig              `yaml:"apt,omitempty"`
	Device      *DeviceConfig           `yaml:"device,omitempty"`
	Environment []string                `yaml:"environment,omitempty"`
	Ports       []string                `yaml:"ports,omitempty"`
	Storage     map[string]*StorageEntry `yaml:"storage,omitempty"`
	Mount       map[string]*MountEntry   `yaml:"mount,omitempty"`
	Custom      *CustomScripts          `yaml:"custom,omitempty"`
}
