package compose

import (
	"github.com/igamenovoer/peidocker/internal/resolve"
)

// Options controls synthesis behavior driven by `configure` flags.
type Options struct {
	// FullCompose, when true, keeps template sections even when they
	// end up with no resolved content (spec §6 `--full-compose`).
	FullCompose bool
}

// Synthesize merges compiled into a fresh copy of the packaged compose
// template, following the five-step algorithm in spec §4.5.
func Synthesize(compiled *resolve.CompiledConfig, opts Options) (*Document, error) {
	doc := DefaultTemplate()

	applyStage(doc.Services["stage-1"], compiled.Stage1)
	if compiled.Stage2 != nil {
		applyStage(doc.Services["stage-2"], compiled.Stage2)
	} else {
		delete(doc.Services, "stage-2")
	}

	allVolumes := append(append([]resolve.VolumeDecl{}, compiled.Stage1.Volumes...), stage2Volumes(compiled)...)
	for _, v := range allVolumes {
		doc.Volumes[v.ComposeKey] = volumeSpec(v)
	}

	if !opts.FullCompose {
		removeExtra(doc)
	}

	return doc, nil
}

func stage2Volumes(compiled *resolve.CompiledConfig) []resolve.VolumeDecl {
	if compiled.Stage2 == nil {
		return nil
	}
	return compiled.Stage2.Volumes
}

func applyStage(svc *Service, cs *resolve.CompiledStage) {
	svc.Image = cs.Image.Output
	if svc.Build == nil {
		svc.Build = &BuildSpec{Args: map[string]string{}}
	}
	if len(cs.BuildArgs) > 0 {
		if svc.Build.Args == nil {
			svc.Build.Args = map[string]string{}
		}
		for k, v := range cs.BuildArgs {
			svc.Build.Args[k] = v
		}
	}
	if len(cs.Environment) > 0 {
		svc.Environment = append([]string{}, cs.Environment...)
	}
	if len(cs.Ports) > 0 {
		svc.Ports = append([]string{}, cs.Ports...)
	}
	for _, v := range cs.Volumes {
		svc.Volumes = append(svc.Volumes, volumeMountString(v))
	}
	if cs.GPU {
		svc.Deploy = &DeploySpec{
			Resources: &ResourcesSpec{
				Reservations: &ReservationsSpec{
					Devices: []DeviceSpec{
						{Capabilities: []string{"gpu"}, Count: "all"},
					},
				},
			},
		}
	}
}

func volumeMountString(v resolve.VolumeDecl) string {
	if v.Kind == resolve.VolumeKindHost {
		return v.HostPath + ":" + v.DstPath
	}
	if v.Kind == resolve.VolumeKindImage {
		return "" // baked into the image, no compose mount
	}
	return v.ComposeKey + ":" + v.DstPath
}

func volumeSpec(v resolve.VolumeDecl) *VolumeSpec {
	switch v.Kind {
	case resolve.VolumeKindManualVolume:
		return &VolumeSpec{External: true, Name: v.VolumeName}
	case resolve.VolumeKindAutoVolume:
		return &VolumeSpec{Name: v.VolumeName}
	case resolve.VolumeKindHost:
		return nil // bind mounts need no top-level volumes entry
	default:
		return nil
	}
}

// removeExtra strips sections that ended up with no resolved content,
// per spec §4.5 step 7 (the default unless --full-compose is given).
func removeExtra(doc *Document) {
	for key, v := range doc.Volumes {
		if v == nil {
			delete(doc.Volumes, key)
		}
	}
	if len(doc.Volumes) == 0 {
		doc.Volumes = nil
	}
	for _, svc := range doc.Services {
		cleanVolumeStrings(svc)
		if svc.Build != nil && len(svc.Build.Args) == 0 {
			svc.Build.Args = nil
		}
	}
	if svc, ok := doc.Services["stage-2"]; ok && len(svc.DependsOn) == 0 {
		svc.DependsOn = nil
	}
}

func cleanVolumeStrings(svc *Service) {
	out := svc.Volumes[:0]
	for _, v := range svc.Volumes {
		if v != "" {
			out = append(out, v)
		}
	}
	svc.Volumes = out
	if len(svc.Volumes) == 0 {
		svc.Volumes = nil
	}
}
