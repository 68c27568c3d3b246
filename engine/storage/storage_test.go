package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"
	"testing/fstest"
)

func TestReadFile(t *testing.T) {
	s := NewStorage(WithFS(fstest.MapFS{
		"models/robotA.glb": {Data: []byte("glb")},
	}))

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr error
	}{
		{"relative", "models/robotA.glb", "glb", nil},
		{"dot prefixed", "./models/robotA.glb", "glb", nil},
		{"rooted", "/models/robotA.glb", "glb", nil},
		{"missing", "models/robotB.glb", "", fs.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := s.ReadFile(context.Background(), tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || string(data) != tt.want {
				t.Fatalf("got %q, %v", data, err)
			}
		})
	}
}

func TestReadFileCanceled(t *testing.T) {
	s := NewStorage(WithFS(fstest.MapFS{"a.glb": {Data: []byte("x")}}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ReadFile(ctx, "a.glb"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestObjectURLLifecycle(t *testing.T) {
	s := NewStorage(WithFS(fstest.MapFS{}))

	a := s.CreateObjectURL([]byte("alpha"))
	b := s.CreateObjectURL([]byte("beta"))
	if a == b {
		t.Fatalf("object URLs must be unique")
	}
	if s.ObjectCount() != 2 {
		t.Fatalf("expected 2 objects, got %d", s.ObjectCount())
	}

	r, err := s.Open(a)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(r)
	_ = r.Close()
	if string(data) != "alpha" {
		t.Fatalf("unexpected object contents %q", data)
	}

	if !s.RevokeObjectURL(a) {
		t.Fatalf("first revoke should report true")
	}
	if s.RevokeObjectURL(a) {
		t.Fatalf("second revoke should report false")
	}
	if _, err := s.Open(a); !errors.Is(err, ErrUnknownURL) {
		t.Fatalf("expected ErrUnknownURL after revoke, got %v", err)
	}
	if s.ObjectCount() != 1 {
		t.Fatalf("expected 1 object, got %d", s.ObjectCount())
	}
}
