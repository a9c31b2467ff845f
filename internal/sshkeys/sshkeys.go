// Package sshkeys implements the SSH key materializer (component C7):
// resolving polymorphic key sources to content, validating public
// keys, and producing the five parallel build-arg lists C4 forwards to
// the compose synthesizer. Resolved key content is handed back as
// in-memory KeyFiles; the project writer (C9) owns the actual disk
// write.
package sshkeys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pderrors "github.com/igamenovoer/peidocker/internal/errors"
	"github.com/igamenovoer/peidocker/internal/pconfig"
	"golang.org/x/crypto/ssh"
)

// systemAutoCandidates is the priority order auto-discovery scans
// $HOME/.ssh for, per spec §4.7.
var systemAutoCandidates = []string{"id_rsa", "id_dsa", "id_ecdsa", "id_ed25519"}

// Resolver resolves KeySource values against a fixed repository root
// (the project's installation tree) and the invoking user's home
// directory.
type Resolver struct {
	RepoRoot string
	HomeDir  string
}

// NewResolver builds a Resolver rooted at repoRoot, using homeDir for
// SystemAuto discovery.
func NewResolver(repoRoot, homeDir string) *Resolver {
	return &Resolver{RepoRoot: repoRoot, HomeDir: homeDir}
}

// ResolveContent resolves src to raw key bytes. isPublic selects the
// candidate filename suffix used during SystemAuto discovery.
func (r *Resolver) ResolveContent(src pconfig.KeySource, isPublic bool) ([]byte, string, error) {
	switch src.Kind {
	case pconfig.KeySourceInline:
		return []byte(src.Text), "", nil
	case pconfig.KeySourceRepositoryRelative:
		path := filepath.Join(r.RepoRoot, src.Path)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, "", pderrors.Wrap(err, pderrors.CategorySSH, pderrors.CodeKeySourceNotFound,
				fmt.Sprintf("repository-relative key %q not found", src.Path))
		}
		return content, path, nil
	case pconfig.KeySourceAbsoluteHostPath:
		content, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, "", pderrors.Wrap(err, pderrors.CategorySSH, pderrors.CodeKeySourceNotFound,
				fmt.Sprintf("absolute host key %q not found", src.Path))
		}
		return content, src.Path, nil
	case pconfig.KeySourceSystemAuto:
		return r.resolveSystemAuto(isPublic)
	default:
		return nil, "", pderrors.New(pderrors.CategorySSH, pderrors.CodeKeySourceNotFound, "unknown key source")
	}
}

func (r *Resolver) resolveSystemAuto(isPublic bool) ([]byte, string, error) {
	sshDir := filepath.Join(r.HomeDir, ".ssh")
	for _, base := range systemAutoCandidates {
		name := base
		if isPublic {
			name = base + ".pub"
		}
		path := filepath.Join(sshDir, name)
		content, err := os.ReadFile(path)
		if err == nil {
			return content, path, nil
		}
	}
	return nil, "", pderrors.Newf(pderrors.CategorySSH, pderrors.CodeKeySourceNotFound,
		"no key found under %s among %v", sshDir, systemAutoCandidates)
}

// ValidatePublicKey checks that content's first whitespace-delimited
// token is a recognized key type, per spec §4.7. It does not fully
// parse the key the way a server-side authorized_keys check would;
// golang.org/x/crypto/ssh.ParseAuthorizedKey is used as the stronger
// check when the content looks like a single authorized-keys line.
func ValidatePublicKey(content []byte) error {
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return pderrors.New(pderrors.CategorySSH, pderrors.CodeInvalidPublicKey, "public key content is empty")
	}
	fields := strings.Fields(trimmed)
	keyType := fields[0]
	switch keyType {
	case "ssh-rsa", "ssh-ed25519", "ssh-ecdsa", "ecdsa-sha2-nistp256", "ecdsa-sha2-nistp384", "ecdsa-sha2-nistp521":
	default:
		return pderrors.Newf(pderrors.CategorySSH, pderrors.CodeInvalidPublicKey,
			"unrecognized public key type %q", keyType)
	}
	if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(trimmed)); err != nil {
		return pderrors.Wrap(err, pderrors.CategorySSH, pderrors.CodeInvalidPublicKey, "malformed public key content")
	}
	return nil
}

// KeyFile is one key file awaiting an atomic write, with its
// in-container path precomputed for the build-arg table. The actual
// write is deferred to the project writer (C9) so that key
// materialization participates in the same ordered write pass as the
// compose file and generated scripts, each file written atomically
// (spec §4.9).
type KeyFile struct {
	Filename        string // e.g. "alice-pubkey.pub"
	Content         []byte
	Mode            os.FileMode
	InContainerPath string
}

// MaterializedUser is the resolved (not yet written) result of
// materializing one SSH user's keys.
type MaterializedUser struct {
	Username string
	Pubkey   *KeyFile // nil if no pubkey configured
	Privkey  *KeyFile // nil if no privkey configured
}

// PubkeyInContainerPath returns the in-container path of the
// materialized public key, or "" if none.
func (m MaterializedUser) PubkeyInContainerPath() string {
	if m.Pubkey == nil {
		return ""
	}
	return m.Pubkey.InContainerPath
}

// PrivkeyInContainerPath returns the in-container path of the
// materialized private key, or "" if none.
func (m MaterializedUser) PrivkeyInContainerPath() string {
	if m.Privkey == nil {
		return ""
	}
	return m.Privkey.InContainerPath
}

// inContainerGeneratedDir is where C9 places generated/materialized
// artifacts inside the stage-1 installation tree, per spec §6.
const inContainerGeneratedDir = "/pei-from-host/stage-1/generated"

// ResolveUser resolves (but does not write) a single user's configured
// key files, validating public key content along the way.
func (r *Resolver) ResolveUser(username string, user *pconfig.SSHUser) (MaterializedUser, error) {
	result := MaterializedUser{Username: username}

	if src, ok := user.PubkeySource(); ok {
		content, _, err := r.ResolveContent(src, true)
		if err != nil {
			return result, err
		}
		if err := ValidatePublicKey(content); err != nil {
			return result, err
		}
		filename := username + "-pubkey.pub"
		result.Pubkey = &KeyFile{
			Filename:        filename,
			Content:         content,
			Mode:            0o644,
			InContainerPath: inContainerGeneratedDir + "/" + filename,
		}
	}

	if src, ok := user.PrivkeySource(); ok {
		content, _, err := r.ResolveContent(src, false)
		if err != nil {
			return result, err
		}
		filename := username + "-privkey"
		result.Privkey = &KeyFile{
			Filename:        filename,
			Content:         content,
			Mode:            0o600,
			InContainerPath: inContainerGeneratedDir + "/" + filename,
		}
	}

	return result, nil
}

// BuildArgs carries the five parallel per-user build-arg lists
// described in spec §4.7: element i across every slice refers to the
// same user, with empty strings standing in for absent fields.
type BuildArgs struct {
	Names        []string
	Passwords    []string
	UIDs         []string
	PubkeyFiles  []string
	PrivkeyFiles []string
}

// Join renders one of the parallel lists as a comma-joined string,
// the wire form C4 forwards as a single build arg.
func Join(values []string) string {
	return strings.Join(values, ",")
}
