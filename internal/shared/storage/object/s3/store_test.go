package s3

import (
	"strings"
	"testing"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "models/stress_model.json", want: "models/stress_model.json"},
		{name: "simple prefix", prefix: "root", key: "stress_model.json", want: "root/stress_model.json"},
		{name: "prefix trailing slash", prefix: "root/", key: "stress_model.json", want: "root/stress_model.json"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/models/stress_model.json", want: "root/models/stress_model.json"},
		{name: "nested prefix", prefix: "root/sub", key: "stress_model.json", want: "root/sub/stress_model.json"},
		{name: "empty key", prefix: "root", key: "", want: "root"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestCountingReader(t *testing.T) {
	c := &countingReader{r: strings.NewReader("stress")}
	buf := make([]byte, 4)
	for {
		if _, err := c.Read(buf); err != nil {
			break
		}
	}
	if c.n != 6 {
		t.Fatalf("expected 6 bytes counted, got %d", c.n)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(t.Context(), "us-east-1", "", "", ""); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}
