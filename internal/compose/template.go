package compose

// DefaultTemplate returns the packaged compose skeleton: two services,
// `stage-1` and `stage-2`, each pointing at its stage's Dockerfile,
// and an empty top-level volumes map. Synthesize overlays a
// CompiledConfig onto a deep copy of this skeleton.
func DefaultTemplate() *Document {
	return &Document{
		Services: map[string]*Service{
			"stage-1": {
				Build: &BuildSpec{
					Context:    "./installation/stage-1",
					Dockerfile: "Dockerfile",
					Args:       map[string]string{},
				},
			},
			"stage-2": {
				Build: &BuildSpec{
					Context:    "./installation/stage-2",
					Dockerfile: "Dockerfile",
					Args:       map[string]string{},
				},
				DependsOn: []string{"stage-1"},
			},
		},
		Volumes: map[string]*VolumeSpec{},
	}
}
