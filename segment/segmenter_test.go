package segment

import (
	"testing"
)

func TestPlanOrdersPreMetadataMetadataThenDataParts(t *testing.T) {
	s := NewSegmenter(nil, t.TempDir(), 64, 48, 25, 10)
	s.dataParts = []string{"content_part01.mp4", "content_part02.mp4"}
	s.dataPartsN = []int{10, 10}
	s.metadataPath = "metadata.mp4"
	s.metadataN = 3
	s.preMetaPath = "pre_metadata.mp4"
	s.preMetaN = 1

	plan := s.Plan()
	want := []string{"pre_metadata.mp4", "metadata.mp4", "content_part01.mp4", "content_part02.mp4"}
	if len(plan) != len(want) {
		t.Fatalf("len(plan) = %d, want %d", len(plan), len(want))
	}
	for i, p := range plan {
		if p.Path != want[i] {
			t.Errorf("plan[%d].Path = %q, want %q", i, p.Path, want[i])
		}
	}
	if plan[0].Frames != 1 || plan[1].Frames != 3 || plan[2].Frames != 10 {
		t.Errorf("unexpected frame counts in plan: %+v", plan)
	}
}

func TestPlanOmitsAbsentDedicatedSegments(t *testing.T) {
	s := NewSegmenter(nil, t.TempDir(), 64, 48, 25, 10)
	s.dataParts = []string{"content_part01.mp4"}
	s.dataPartsN = []int{5}

	plan := s.Plan()
	if len(plan) != 1 || plan[0].Path != "content_part01.mp4" {
		t.Fatalf("plan = %+v, want only the data part", plan)
	}
}

func TestNewSegmenterClampsFramesPerPart(t *testing.T) {
	s := NewSegmenter(nil, t.TempDir(), 64, 48, 25, 0)
	if s.framesPerPart != 1 {
		t.Errorf("framesPerPart = %d, want clamped to 1", s.framesPerPart)
	}
}

func TestSegmenterStartsWithNoCurrentContentType(t *testing.T) {
	s := NewSegmenter(nil, t.TempDir(), 64, 48, 25, 10)
	if s.curCT != -1 {
		t.Errorf("curCT = %v, want sentinel -1 before any Write", s.curCT)
	}
}
