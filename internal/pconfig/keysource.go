package pconfig

import "strings"

// KeySourceKind tags the variant of a KeySource (spec §3, generalized
// per §9 from the source's ad-hoc `~` string sentinel into an explicit
// tagged union).
type KeySourceKind string

const (
	KeySourceRepositoryRelative KeySourceKind = "repository_relative"
	KeySourceAbsoluteHostPath   KeySourceKind = "absolute_host_path"
	KeySourceSystemAuto         KeySourceKind = "system_auto"
	KeySourceInline             KeySourceKind = "inline"
)

// KeySource is a polymorphic reference to SSH key material, not yet
// resolved to content. Path is set for RepositoryRelative and
// AbsoluteHostPath; Text is set for Inline.
type KeySource struct {
	Kind KeySourceKind
	Path string
	Text string
}

// ParseFileKeySource classifies a `pubkey_file`/`privkey_file` schema
// value into its KeySource variant: the literal token `~` triggers
// auto-discovery, a leading `/` means an absolute host path, anything
// else is relative to the installation tree.
func ParseFileKeySource(spec string) KeySource {
	if spec == "~" {
		return KeySource{Kind: KeySourceSystemAuto}
	}
	if strings.HasPrefix(spec, "/") {
		return KeySource{Kind: KeySourceAbsoluteHostPath, Path: spec}
	}
	return KeySource{Kind: KeySourceRepositoryRelative, Path: spec}
}

// InlineKeySource wraps literal key text carried by a `*_text` field.
func InlineKeySource(text string) KeySource {
	return KeySource{Kind: KeySourceInline, Text: text}
}

// PubkeySource returns the user's public key source, if any is
// configured. PubkeyText takes precedence over PubkeyFile since the
// schema forbids setting both (enforced by Validate).
func (u *SSHUser) PubkeySource() (KeySource, bool) {
	if u.PubkeyText != "" {
		return InlineKeySource(u.PubkeyText), true
	}
	if u.PubkeyFile != "" {
		return ParseFileKeySource(u.PubkeyFile), true
	}
	return KeySource{}, false
}

// PrivkeySource returns the user's private key source, if any is
// configured.
func (u *SSHUser) PrivkeySource() (KeySource, bool) {
	if u.PrivkeyText != "" {
		return InlineKeySource(u.PrivkeyText), true
	}
	if u.PrivkeyFile != "" {
		return ParseFileKeySource(u.PrivkeyFile), true
	}
	return KeySource{}, false
}
