package compose

import (
	"testing"

	"github.com/igamenovoer/peidocker/internal/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_S1Minimal(t *testing.T) {
	compiled := &resolve.CompiledConfig{
		Stage1: &resolve.CompiledStage{
			Name:      "stage-1",
			Image:     resolve.ImageNames{Base: "ubuntu:24.04", Output: "t:stage-1"},
			BuildArgs: map[string]string{"BASE_IMAGE": "ubuntu:24.04"},
		},
	}

	doc, err := Synthesize(compiled, Options{})
	require.NoError(t, err)

	stage1, ok := doc.Services["stage-1"]
	require.True(t, ok)
	assert.Equal(t, "t:stage-1", stage1.Image)
	assert.Equal(t, "ubuntu:24.04", stage1.Build.Args["BASE_IMAGE"])

	_, hasStage2 := doc.Services["stage-2"]
	assert.False(t, hasStage2)
}

func TestSynthesize_S2PassthroughSurvivesUnaltered(t *testing.T) {
	compiled := &resolve.CompiledConfig{
		Stage1: &resolve.CompiledStage{Name: "stage-1", Image: resolve.ImageNames{Base: "ubuntu:24.04", Output: "t:stage-1"}},
		Stage2: &resolve.CompiledStage{Name: "stage-2", Image: resolve.ImageNames{Base: "t:stage-1", Output: "t:{{TAG:-dev}}"}},
	}

	doc, err := Synthesize(compiled, Options{})
	require.NoError(t, err)
	assert.Equal(t, "t:{{TAG:-dev}}", doc.Services["stage-2"].Image)
}

func TestSynthesize_S4StorageMountNoCollision(t *testing.T) {
	compiled := &resolve.CompiledConfig{
		Stage1: &resolve.CompiledStage{
			Name:  "stage-1",
			Image: resolve.ImageNames{Base: "ubuntu:24.04", Output: "t:stage-1"},
			Volumes: []resolve.VolumeDecl{
				{ComposeKey: "data", Family: "storage", Name: "data", Kind: resolve.VolumeKindAutoVolume, VolumeName: "auto1", DstPath: "/hard/volume/data"},
				{ComposeKey: "mount_data", Family: "mount", Name: "data", Kind: resolve.VolumeKindAutoVolume, VolumeName: "auto2", DstPath: "/custom/data"},
			},
		},
	}

	doc, err := Synthesize(compiled, Options{})
	require.NoError(t, err)

	_, hasData := doc.Volumes["data"]
	_, hasMountData := doc.Volumes["mount_data"]
	assert.True(t, hasData)
	assert.True(t, hasMountData)

	stage1 := doc.Services["stage-1"]
	assert.Contains(t, stage1.Volumes, "data:/hard/volume/data")
	assert.Contains(t, stage1.Volumes, "mount_data:/custom/data")
}

func TestSynthesize_GPUDeviceReservation(t *testing.T) {
	compiled := &resolve.CompiledConfig{
		Stage1: &resolve.CompiledStage{
			Name:  "stage-1",
			Image: resolve.ImageNames{Base: "ubuntu:24.04", Output: "t:stage-1"},
			GPU:   true,
		},
	}

	doc, err := Synthesize(compiled, Options{})
	require.NoError(t, err)
	require.NotNil(t, doc.Services["stage-1"].Deploy)
	assert.Equal(t, "all", doc.Services["stage-1"].Deploy.Resources.Reservations.Devices[0].Count)
}

func TestMarshal_ProducesYAML(t *testing.T) {
	compiled := &resolve.CompiledConfig{
		Stage1: &resolve.CompiledStage{Name: "stage-1", Image: resolve.ImageNames{Base: "ubuntu:24.04", Output: "t:stage-1"}},
	}
	doc, err := Synthesize(compiled, Options{})
	require.NoError(t, err)

	raw, err := Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "services:")
}
