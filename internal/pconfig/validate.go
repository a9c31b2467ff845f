package pconfig

import (
	"fmt"
	"regexp"
	"strings"

	pderrors "github.com/igamenovoer/peidocker/internal/errors"
	"gopkg.in/yaml.v3"
)

// ValidationErrors aggregates every invariant violation found in one
// Validate call, so a user sees all problems at once instead of
// fixing them one at a time.
type ValidationErrors []*pderrors.PeiError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// AsError returns v as an error, or nil if empty.
func (v ValidationErrors) AsError() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Options controls validation behavior driven by `configure` flags
// and environment (spec §6).
type Options struct {
	WithMerged    bool
	BakeEnvStage1 bool
	BakeEnvStage2 bool
}

var envEntryPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

var passthroughOpenToken = "{{"

// forbiddenBuildTimePatterns are substrings that must never appear in
// a stage-2 on_build entry, per spec §4.3 invariant 4.
var forbiddenBuildTimePatterns = []string{
	"/soft/",
	"/hard/volume/",
	"$PEI_SOFT_",
	"${PEI_SOFT_",
	"$PEI_PATH_SOFT",
	"${PEI_PATH_SOFT",
}

// Validate performs strict structural checks over cfg and returns a
// ValidationErrors aggregate, or nil if cfg satisfies every invariant
// in spec §4.3.
func Validate(cfg *ProjectConfig, opts Options) error {
	var errs ValidationErrors

	if cfg.Stage1 == nil || cfg.Stage1.Image == nil || cfg.Stage1.Image.Base == "" {
		errs = append(errs, pderrors.New(pderrors.CategoryValidate, pderrors.CodeMissingBaseImage,
			"stage_1.image.base is required").WithLocation("stage_1.image.base"))
	}

	if cfg.Stage1 != nil {
		errs = append(errs, validateStage(cfg.Stage1, "stage_1", false, opts)...)
	}
	if cfg.Stage2 != nil {
		if cfg.Stage2.SSH != nil {
			errs = append(errs, pderrors.New(pderrors.CategoryValidate, pderrors.CodeStage2SSHNotSupported,
				"stage_2.ssh is not supported; SSH configuration belongs to stage_1 only").
				WithLocation("stage_2.ssh").
				WithHint("move ssh settings to stage_1"))
		}
		errs = append(errs, validateStage(cfg.Stage2, "stage_2", true, opts)...)
	}

	if opts.WithMerged {
		if hasAnyPassthrough(cfg) {
			errs = append(errs, pderrors.New(pderrors.CategoryValidate, pderrors.CodePassthroughWithMerged,
				"--with-merged cannot be combined with {{...}} passthrough markers").
				WithHint("resolve all passthrough markers or drop --with-merged"))
		}
	}

	return errs.AsError()
}

func validateStage(stage *StageConfig, prefix string, isStage2 bool, opts Options) ValidationErrors {
	var errs ValidationErrors

	for name, entry := range stage.Storage {
		loc := fmt.Sprintf("%s.storage.%s", prefix, name)
		if !StorageKeywords[name] {
			errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeUnknownStorageKey,
				"unknown storage key %q; must be one of app, data, workspace", name).WithLocation(loc))
			continue
		}
		errs = append(errs, validateStorageEntry(entry, loc)...)
	}

	for name, entry := range stage.Mount {
		loc := fmt.Sprintf("%s.mount.%s", prefix, name)
		if !strings.HasPrefix(entry.DstPath, "/") {
			errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeMountDstPath,
				"mount %q dst_path must be an absolute path, got %q", name, entry.DstPath).
				WithLocation(loc + ".dst_path"))
		}
		switch entry.Type {
		case "host":
			if entry.HostPath == "" {
				errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeMountDstPath,
					"mount %q of type host requires host_path", name).WithLocation(loc + ".host_path"))
			}
		case "manual-volume":
			if entry.VolumeName == "" {
				errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeMountDstPath,
					"mount %q of type manual-volume requires volume_name", name).WithLocation(loc + ".volume_name"))
			}
		case "auto-volume":
		default:
			errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeMountDstPath,
				"mount %q has unknown type %q", name, entry.Type).WithLocation(loc + ".type"))
		}
	}

	if stage.SSH != nil {
		errs = append(errs, validateSSH(stage.SSH, prefix+".ssh")...)
	}

	for i, entry := range stage.Environment {
		loc := fmt.Sprintf("%s.environment[%d]", prefix, i)
		if !envEntryPattern.MatchString(entry) {
			errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeEnvEntryShape,
				"environment entry %q is not in NAME=VALUE form", entry).WithLocation(loc))
			continue
		}
		bake := (prefix == "stage_1" && opts.BakeEnvStage1) || (prefix == "stage_2" && opts.BakeEnvStage2)
		if bake && strings.Contains(entry, passthroughOpenToken) {
			errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodePassthroughInBakedField,
				"environment entry %q contains a passthrough marker but PEI_BAKE_ENV_%s is set", entry, strings.ToUpper(prefix)).
				WithLocation(loc))
		}
	}

	if stage.Custom != nil {
		errs = append(errs, validateCustomScripts(stage.Custom, prefix, isStage2)...)
	}

	return errs
}

func validateStorageEntry(entry *StorageEntry, loc string) ValidationErrors {
	var errs ValidationErrors
	switch entry.Type {
	case "host":
		if entry.HostPath == "" {
			errs = append(errs, pderrors.New(pderrors.CategoryValidate, pderrors.CodeMountDstPath,
				"storage entry of type host requires host_path").WithLocation(loc + ".host_path"))
		}
	case "manual-volume":
		if entry.VolumeName == "" {
			errs = append(errs, pderrors.New(pderrors.CategoryValidate, pderrors.CodeMountDstPath,
				"storage entry of type manual-volume requires volume_name").WithLocation(loc + ".volume_name"))
		}
	case "auto-volume", "image":
	default:
		errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeMountDstPath,
			"storage entry has unknown type %q", entry.Type).WithLocation(loc + ".type"))
	}
	return errs
}

func validateSSH(ssh *SSHConfig, prefix string) ValidationErrors {
	var errs ValidationErrors

	if ssh.Port != 0 && (ssh.Port < 1 || ssh.Port > 65535) {
		errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeSSHUserConstraint,
			"ssh.port %d is out of range [1,65535]", ssh.Port).WithLocation(prefix + ".port"))
	}
	if ssh.HostPort != nil && (*ssh.HostPort < 1 || *ssh.HostPort > 65535) {
		errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeSSHUserConstraint,
			"ssh.host_port %d is out of range [1,65535]", *ssh.HostPort).WithLocation(prefix + ".host_port"))
	}

	for name, user := range ssh.Users {
		loc := fmt.Sprintf("%s.users.%s", prefix, name)
		if user.PubkeyFile != "" && user.PubkeyText != "" {
			errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeSSHUserConstraint,
				"user %q sets both pubkey_file and pubkey_text", name).WithLocation(loc))
		}
		if user.PrivkeyFile != "" && user.PrivkeyText != "" {
			errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeSSHUserConstraint,
				"user %q sets both privkey_file and privkey_text", name).WithLocation(loc))
		}
		if user.Password != nil && strings.Contains(*user.Password, passthroughOpenToken) {
			errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodePassthroughInBakedField,
				"user %q password contains a passthrough marker; passwords are baked directly and never pass through compose", name).
				WithLocation(loc + ".password"))
		}
	}

	return errs
}

func validateCustomScripts(custom *CustomScripts, prefix string, isStage2 bool) ValidationErrors {
	var errs ValidationErrors

	lists := map[string][]string{
		"on_build":       custom.OnBuild,
		"on_first_run":   custom.OnFirstRun,
		"on_every_run":   custom.OnEveryRun,
		"on_user_login":  custom.OnUserLogin,
	}
	for lifecycle, entries := range lists {
		for i, entry := range entries {
			loc := fmt.Sprintf("%s.custom.%s[%d]", prefix, lifecycle, i)
			if strings.TrimSpace(entry) == "" {
				errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeEnvEntryShape,
					"%s entry must be a non-empty string", lifecycle).WithLocation(loc))
				continue
			}
			if lifecycle == "on_build" && isStage2 {
				if bad := findForbiddenBuildTimePattern(entry); bad != "" {
					errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeBuildTimeRuntimePath,
						"stage_2 on_build entry %q references a build-time-forbidden runtime path (%s)", entry, bad).
						WithLocation(loc))
				}
			}
		}
	}
	for i, entry := range custom.OnEntry {
		loc := fmt.Sprintf("%s.custom.on_entry[%d]", prefix, i)
		if strings.TrimSpace(entry) == "" {
			errs = append(errs, pderrors.Newf(pderrors.CategoryValidate, pderrors.CodeEnvEntryShape,
				"on_entry entry must be a non-empty string").WithLocation(loc))
		}
	}

	return errs
}

func findForbiddenBuildTimePattern(entry string) string {
	for _, pattern := range forbiddenBuildTimePatterns {
		if strings.Contains(entry, pattern) {
			return pattern
		}
	}
	return ""
}

// hasAnyPassthrough reports whether any string field anywhere in cfg
// contains a `{{` passthrough opening token. Used only to gate
// --with-merged, which is incompatible with passthrough markers.
func hasAnyPassthrough(cfg *ProjectConfig) bool {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return false
	}
	return strings.Contains(string(raw), passthroughOpenToken)
}
