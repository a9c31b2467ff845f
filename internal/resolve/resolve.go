package resolve

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/igamenovoer/peidocker/internal/pconfig"
	"github.com/igamenovoer/peidocker/internal/sshkeys"
)

// Options mirrors the `configure` flags and baked-environment
// variables that change C4's derivation (spec §6).
type Options struct {
	BakeEnvStage1 bool
	BakeEnvStage2 bool
}

// Resolve derives a CompiledConfig from cfg, materializing SSH keys
// via keyResolver along the way. cfg must already have passed
// pconfig.Validate.
func Resolve(cfg *pconfig.ProjectConfig, opts Options, keyResolver *sshkeys.Resolver) (*CompiledConfig, error) {
	compiled := &CompiledConfig{}

	// configHash seeds auto-volume naming so that re-running Resolve on
	// an unchanged config reproduces identical volume names (spec §8
	// idempotence); it must not depend on anything that varies between
	// runs on the same input, such as time or process state.
	configHash, err := pconfig.Hash(cfg)
	if err != nil {
		return nil, err
	}

	stage1, warnings, err := resolveStage(cfg.Stage1, "stage-1", nil, opts, keyResolver, configHash)
	if err != nil {
		return nil, err
	}
	compiled.Stage1 = stage1
	compiled.Warnings = append(compiled.Warnings, warnings...)

	if cfg.Stage2 != nil {
		stage2, warnings, err := resolveStage(cfg.Stage2, "stage-2", stage1, opts, keyResolver, configHash)
		if err != nil {
			return nil, err
		}
		compiled.Stage2 = stage2
		compiled.Warnings = append(compiled.Warnings, warnings...)

		// Image chain: stage_2.image.base defaults to stage_1.image.output.
		if compiled.Stage2.Image.Base == "" {
			compiled.Stage2.Image.Base = compiled.Stage1.Image.Output
		}
		compiled.Stage2.BuildArgs["BASE_IMAGE"] = compiled.Stage2.Image.Base

		// Ports: stage_1.ports ++ stage_2.ports ++ ssh_mapping, in order.
		ports := append([]string{}, compiled.Stage1.Ports...)
		ports = append(ports, compiled.Stage2.Ports...)
		if cfg.Stage1.SSH != nil && cfg.Stage1.SSH.Enable && cfg.Stage1.SSH.HostPort != nil {
			ports = append(ports, fmt.Sprintf("%d:%d", *cfg.Stage1.SSH.HostPort, cfg.Stage1.SSH.Port))
		}
		compiled.Stage2.Ports = ports
		if dup := findNumericPortDuplicate(ports); dup != "" {
			compiled.Warnings = append(compiled.Warnings, fmt.Sprintf("stage-2: duplicate port mapping %q", dup))
		}
	} else {
		if cfg.Stage1.SSH != nil && cfg.Stage1.SSH.Enable && cfg.Stage1.SSH.HostPort != nil {
			compiled.Stage1.Ports = append(compiled.Stage1.Ports,
				fmt.Sprintf("%d:%d", *cfg.Stage1.SSH.HostPort, cfg.Stage1.SSH.Port))
		}
	}

	return compiled, nil
}

func resolveStage(stage *pconfig.StageConfig, name string, prior *CompiledStage, opts Options, keyResolver *sshkeys.Resolver, configHash string) (*CompiledStage, []string, error) {
	cs := &CompiledStage{
		Name:      name,
		BuildArgs: map[string]string{},
		Scripts:   map[string][]ScriptInvocation{},
	}
	var warnings []string

	if stage.Image != nil {
		cs.Image.Base = stage.Image.Base
		cs.Image.Output = stage.Image.Output
	}
	if cs.Image.Base != "" {
		cs.BuildArgs["BASE_IMAGE"] = cs.Image.Base
	}

	if stage.Environment != nil {
		cs.Environment = append(cs.Environment, stage.Environment...)
	}
	if stage.Ports != nil {
		cs.Ports = append(cs.Ports, stage.Ports...)
	}

	resolveProxy(stage, cs)
	resolveApt(stage, cs)

	if stage.Device != nil && stage.Device.Type == "gpu" {
		cs.GPU = true
	}

	volWarnings, err := resolveVolumes(stage, cs, configHash)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, volWarnings...)

	if stage.Custom != nil {
		if err := resolveScripts(stage.Custom, cs); err != nil {
			return nil, nil, err
		}
	}

	if name == "stage-1" && stage.SSH != nil && stage.SSH.Enable {
		if err := resolveSSH(stage.SSH, cs, keyResolver); err != nil {
			return nil, nil, err
		}
	}

	return cs, warnings, nil
}

func resolveProxy(stage *pconfig.StageConfig, cs *CompiledStage) {
	if stage.Proxy == nil || stage.Proxy.Address == "" || stage.Proxy.Port == 0 {
		return
	}
	scheme := "http"
	if stage.Proxy.UseHTTPS {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s:%d", scheme, stage.Proxy.Address, stage.Proxy.Port)
	cs.BuildArgs["PEI_HTTP_PROXY"] = url
	cs.BuildArgs["PEI_HTTPS_PROXY"] = url
	cs.BuildArgs["ENABLE_GLOBAL_PROXY"] = boolArg(stage.Proxy.EnableGlobally)
	cs.BuildArgs["REMOVE_GLOBAL_PROXY_AFTER_BUILD"] = boolArg(stage.Proxy.RemoveAfterBuild)
}

func resolveApt(stage *pconfig.StageConfig, cs *CompiledStage) {
	if stage.Apt == nil || stage.Apt.RepoSource == "" {
		return
	}
	cs.BuildArgs["APT_SOURCE_FILE"] = stage.Apt.RepoSource
}

func boolArg(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// resolveVolumes turns stage.Storage and stage.Mount into VolumeDecl
// entries living in separate namespaces (spec §4.4, §9), then reports
// destination collisions as non-fatal warnings.
func resolveVolumes(stage *pconfig.StageConfig, cs *CompiledStage, configHash string) ([]string, error) {
	dstOwners := map[string][]string{}

	for keyword, entry := range stage.Storage {
		dst := storageDst(entry.Type, keyword)
		decl := VolumeDecl{
			ComposeKey: keyword,
			Family:     "storage",
			Name:       keyword,
			Kind:       VolumeKind(entry.Type),
			HostPath:   entry.HostPath,
			VolumeName: entry.VolumeName,
			DstPath:    dst,
		}
		switch entry.Type {
		case "manual-volume":
			decl.External = true
		case "auto-volume":
			decl.VolumeName = autoVolumeName(configHash, cs.Name, keyword)
		}
		cs.Volumes = append(cs.Volumes, decl)
		if dst != "" {
			dstOwners[dst] = append(dstOwners[dst], "storage."+keyword)
		}
	}

	for name, entry := range stage.Mount {
		decl := VolumeDecl{
			ComposeKey: "mount_" + name,
			Family:     "mount",
			Name:       name,
			Kind:       VolumeKind(entry.Type),
			HostPath:   entry.HostPath,
			VolumeName: entry.VolumeName,
			DstPath:    entry.DstPath,
		}
		switch entry.Type {
		case "manual-volume":
			decl.External = true
		case "auto-volume":
			decl.VolumeName = autoVolumeName(configHash, cs.Name, "mount_"+name)
		}
		cs.Volumes = append(cs.Volumes, decl)
		dstOwners[entry.DstPath] = append(dstOwners[entry.DstPath], "mount."+name)
	}

	var warnings []string
	for dst, owners := range dstOwners {
		if len(owners) > 1 {
			warnings = append(warnings, fmt.Sprintf("destination %q is claimed by multiple entries: %s", dst, strings.Join(owners, ", ")))
		}
	}
	return warnings, nil
}

func storageDst(kind, keyword string) string {
	if kind == "image" {
		return "/hard/image/" + keyword
	}
	return "/hard/volume/" + keyword
}

// autoVolumeName derives a stable volume name from configHash (the
// resolved project config's content hash), stageName, and key, so that
// re-running Resolve on an unchanged config reproduces the same
// auto-volume name instead of minting a fresh random one each time.
func autoVolumeName(configHash, stageName, key string) string {
	sum := sha256.Sum256([]byte(configHash + "|" + stageName + "|" + key))
	return fmt.Sprintf("peidocker_%s_%s_%s", stageName, key, hex.EncodeToString(sum[:])[:8])
}

func findNumericPortDuplicate(ports []string) string {
	seen := map[string]bool{}
	for _, p := range ports {
		if !isFullyNumericPort(p) {
			continue
		}
		if seen[p] {
			return p
		}
		seen[p] = true
	}
	return ""
}

func isFullyNumericPort(p string) bool {
	parts := strings.SplitN(p, ":", 2)
	for _, part := range parts {
		if part == "" {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func resolveScripts(custom *pconfig.CustomScripts, cs *CompiledStage) error {
	lists := map[string][]string{
		"on_build":      custom.OnBuild,
		"on_first_run":  custom.OnFirstRun,
		"on_every_run":  custom.OnEveryRun,
		"on_user_login": custom.OnUserLogin,
	}
	for lifecycle, entries := range lists {
		invocations, err := TokenizeList(entries)
		if err != nil {
			return err
		}
		if len(invocations) > 0 {
			cs.Scripts[lifecycle] = invocations
		}
	}
	if len(custom.OnEntry) > 0 {
		invocations, err := TokenizeList([]string(custom.OnEntry))
		if err != nil {
			return err
		}
		cs.Scripts["on_entry"] = invocations
	}
	return nil
}

func resolveSSH(ssh *pconfig.SSHConfig, cs *CompiledStage, keyResolver *sshkeys.Resolver) error {
	if ssh.Port != 0 {
		cs.BuildArgs["SSH_CONTAINER_PORT"] = fmt.Sprintf("%d", ssh.Port)
	}

	names := make([]string, 0, len(ssh.Users))
	for name := range ssh.Users {
		names = append(names, name)
	}
	sortStrings(names)

	args := sshkeys.BuildArgs{}
	for _, name := range names {
		user := ssh.Users[name]
		args.Names = append(args.Names, name)
		if user.Password != nil {
			args.Passwords = append(args.Passwords, *user.Password)
		} else {
			args.Passwords = append(args.Passwords, "")
		}
		if user.UID != nil {
			args.UIDs = append(args.UIDs, fmt.Sprintf("%d", *user.UID))
		} else {
			args.UIDs = append(args.UIDs, "")
		}

		pubPath, privPath := "", ""
		if keyResolver != nil {
			materialized, err := keyResolver.ResolveUser(name, user)
			if err != nil {
				return err
			}
			pubPath = materialized.PubkeyInContainerPath()
			privPath = materialized.PrivkeyInContainerPath()
			if materialized.Pubkey != nil {
				cs.SSHKeyFiles = append(cs.SSHKeyFiles, *materialized.Pubkey)
			}
			if materialized.Privkey != nil {
				cs.SSHKeyFiles = append(cs.SSHKeyFiles, *materialized.Privkey)
			}
		}
		args.PubkeyFiles = append(args.PubkeyFiles, pubPath)
		args.PrivkeyFiles = append(args.PrivkeyFiles, privPath)
	}

	cs.BuildArgs["SSH_USER_NAME"] = sshkeys.Join(args.Names)
	cs.BuildArgs["SSH_USER_PASSWORD"] = sshkeys.Join(args.Passwords)
	cs.BuildArgs["SSH_USER_UID"] = sshkeys.Join(args.UIDs)
	cs.BuildArgs["SSH_PUBKEY_FILE"] = sshkeys.Join(args.PubkeyFiles)
	cs.BuildArgs["SSH_PRIVKEY_FILE"] = sshkeys.Join(args.PrivkeyFiles)
	return nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
