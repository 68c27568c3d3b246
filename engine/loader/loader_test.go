package loader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-arena/engine/loader/gltftest"
	"github.com/Carmen-Shannon/oxy-arena/engine/model"
)

func TestLoadReaderGLTFAndGLB(t *testing.T) {
	asset := gltftest.Robot(
		gltftest.Clip("Idle", 2, gltftest.Hips, gltftest.Spine),
		gltftest.Clip("Punch", 0.6, gltftest.Spine, gltftest.Head),
	)

	tests := []struct {
		name string
		data []byte
	}{
		{"gltf", asset.JSON()},
		{"glb", asset.GLB()},
	}

	l := NewLoader(BackendTypeGLTF)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := l.LoadReader("robot.glb", bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("LoadReader failed: %v", err)
			}
			if m.Name() != "robot" {
				t.Fatalf("expected name robot, got %q", m.Name())
			}
			if m.ByteSize() != len(tt.data) {
				t.Fatalf("expected size %d, got %d", len(tt.data), m.ByteSize())
			}

			scene := m.Scene()
			if len(scene.Roots) != 1 || scene.Roots[0].Name != "Armature" {
				t.Fatalf("unexpected roots: %+v", scene.Roots)
			}
			hips := scene.Find("Hips")
			if hips == nil || hips.Parent != scene.Roots[0] || hips.Rest.Translation != [3]float32{0, 1, 0} {
				t.Fatalf("hips not extracted correctly: %+v", hips)
			}

			skins := m.Skins()
			if len(skins) != 1 || len(skins[0].Joints) != 3 {
				t.Fatalf("unexpected skins: %+v", skins)
			}
			if skins[0].Joints[0] != hips {
				t.Fatalf("skin joints are not the scene's nodes")
			}
			if scene.Find("Body").Mesh != 0 {
				t.Fatalf("body mesh index not set")
			}

			if m.ClipCount() != 2 {
				t.Fatalf("expected 2 clips, got %v", m.ClipNames())
			}
			punch := m.Clip("Punch")
			if punch == nil || punch.Duration != 0.6 {
				t.Fatalf("unexpected punch clip: %+v", punch)
			}
			if !punch.HasTarget("Spine") || !punch.HasTarget("Head") || punch.HasTarget("Hips") {
				t.Fatalf("punch targets wrong: %v", punch.Targets())
			}
			for _, tr := range punch.Tracks {
				if c := tr.Property.Components(); len(tr.Values) != c*len(tr.Times) {
					t.Fatalf("track %s/%s has %d values for %d keys", tr.Target, tr.Property, len(tr.Values), len(tr.Times))
				}
			}
		})
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "task1_idle.glb")
	if err := os.WriteFile(path, gltftest.Robot(gltftest.Clip("Idle", 1, gltftest.Hips)).GLB(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	m, err := NewLoader(BackendTypeGLTF).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Name() != "task1_idle" || m.Clip("Idle") == nil {
		t.Fatalf("unexpected model %q %v", m.Name(), m.ClipNames())
	}
}

func TestLoadErrors(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	if _, err := l.Load("robot.fbx"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if _, err := l.LoadReader("junk", bytes.NewReader([]byte("not a model"))); err == nil {
		t.Fatalf("expected parse error for junk input")
	}

	old := []byte(`{"asset":{"version":"1.0"}}`)
	if _, err := l.LoadReader("old", bytes.NewReader(old)); !errors.Is(err, errInvalidGLTFVersion) {
		t.Fatalf("expected version error, got %v", err)
	}

	external := []byte(`{"asset":{"version":"2.0"},"buffers":[{"uri":"robot.bin","byteLength":4}]}`)
	if _, err := l.LoadReader("ext", bytes.NewReader(external)); !errors.Is(err, errExternalBuffer) {
		t.Fatalf("expected external buffer error, got %v", err)
	}

	cyclic := []byte(`{"asset":{"version":"2.0"},"nodes":[{"name":"a","children":[1]},{"name":"b","children":[0]}]}`)
	if _, err := l.LoadReader("cycle", bytes.NewReader(cyclic)); err == nil {
		t.Fatalf("expected cycle error")
	}
}

func TestUnnamedNodesAndStepTracks(t *testing.T) {
	asset := gltftest.Asset{
		Nodes: []gltftest.Node{{Children: []int{1}}, {Name: "Arm"}},
		Roots: []int{0},
		Animations: []gltftest.Animation{{
			Channels: []gltftest.Channel{{
				Node:          1,
				Path:          "scale",
				Interpolation: "STEP",
				Times:         []float32{0, 0.5},
				Values:        []float32{1, 1, 1, 2, 2, 2},
			}},
		}},
	}

	m, err := NewLoader(BackendTypeGLTF).LoadReader("anon.gltf", bytes.NewReader(asset.JSON()))
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}
	if m.Scene().Find("node_0") == nil {
		t.Fatalf("unnamed node did not get a generated name")
	}
	clip := m.Clip("animation_0")
	if clip == nil || len(clip.Tracks) != 1 {
		t.Fatalf("unnamed animation not extracted: %v", m.ClipNames())
	}
	if tr := clip.Tracks[0]; tr.Interpolation != model.InterpolationStep || tr.Property != model.PropertyScale {
		t.Fatalf("unexpected track %+v", tr)
	}
}

func TestDecomposeMatrixRoundTrip(t *testing.T) {
	in := model.Transform{
		Translation: [3]float32{1, 2, 3},
		Rotation:    [4]float32{0, 0.7071068, 0, 0.7071068},
		Scale:       [3]float32{2, 2, 2},
	}
	out := gltfDecomposeMatrix([16]float32(in.Matrix()))
	for i := 0; i < 4; i++ {
		if d := out.Rotation[i] - in.Rotation[i]; d > 1e-4 || d < -1e-4 {
			t.Fatalf("rotation mismatch: got %v want %v", out.Rotation, in.Rotation)
		}
	}
	if out.Translation != in.Translation {
		t.Fatalf("translation mismatch: %v", out.Translation)
	}
}
