package metadata

import "testing"

func TestSegment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Triple
	}{
		{
			name: "all three sections",
			text: "cat, dog\nNegative prompt: blurry\nSteps: 20",
			want: Triple{Positive: "cat, dog", Negative: "blurry", GenerationInfo: "Steps: 20"},
		},
		{
			name: "full settings line",
			text: "1girl, solo\nNegative prompt: lowres, bad hands\nSteps: 28, Sampler: Euler a, CFG scale: 7, Seed: 1234, Size: 512x768",
			want: Triple{
				Positive:       "1girl, solo",
				Negative:       "lowres, bad hands",
				GenerationInfo: "Steps: 28, Sampler: Euler a, CFG scale: 7, Seed: 1234, Size: 512x768",
			},
		},
		{
			name: "no negative prompt",
			text: "sunset over sea\nSteps: 30, Seed: 1",
			want: Triple{Positive: "sunset over sea", GenerationInfo: "Steps: 30, Seed: 1"},
		},
		{
			name: "earliest settings marker wins",
			text: "castle\nSeed: 99, Steps: 10",
			want: Triple{Positive: "castle", GenerationInfo: "Seed: 99, Steps: 10"},
		},
		{
			name: "positive only",
			text: "  just a prompt  ",
			want: Triple{Positive: "just a prompt"},
		},
		{
			name: "negative without settings",
			text: "tree\nNegative prompt: ugly, blurry",
			want: Triple{Positive: "tree", Negative: "ugly, blurry"},
		},
		{
			name: "alternate negative marker",
			text: "tree negative_prompt: ugly Model: sdxl",
			want: Triple{Positive: "tree", Negative: "ugly", GenerationInfo: "Model: sdxl"},
		},
		{
			name: "marker list order beats position",
			text: "a neg_prompt: b Negative prompt: c",
			want: Triple{Positive: "a neg_prompt: b", Negative: "c"},
		},
		{
			name: "settings marker before negative stays in positive",
			text: "Size: huge dragon\nNegative prompt: small\nSteps: 5",
			want: Triple{Positive: "Size: huge dragon", Negative: "small", GenerationInfo: "Steps: 5"},
		},
		{
			name: "markers are case-sensitive",
			text: "negative prompt: lower\nsteps: 3",
			want: Triple{Positive: "negative prompt: lower\nsteps: 3"},
		},
		{
			name: "empty",
			text: "",
			want: Triple{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.text)
			if got != tt.want {
				t.Errorf("Segment(%q)\n got  %+v\n want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTripleIsZero(t *testing.T) {
	if !(Triple{}).IsZero() {
		t.Error("Empty triple should be zero")
	}
	if (Triple{Negative: "x"}).IsZero() {
		t.Error("Triple with negative should not be zero")
	}
}
