package heapview

import "testing"

func TestDefaultLayout(t *testing.T) {
	tests := []struct {
		width  uint32
		header uint32
		array  uint32
		length uint32
		stride uint32
	}{
		{width: 8, header: 16, array: 32, length: 24, stride: 24},
		{width: 4, header: 8, array: 16, length: 12, stride: 16},
	}
	for _, tt := range tests {
		l := DefaultLayout(tt.width)
		if err := l.Validate(); err != nil {
			t.Fatalf("width %d: Validate failed: %v", tt.width, err)
		}
		if l.ObjectHeader != tt.header {
			t.Errorf("width %d: header = %d, want %d", tt.width, l.ObjectHeader, tt.header)
		}
		if l.ArrayHeader != tt.array {
			t.Errorf("width %d: array header = %d, want %d", tt.width, l.ArrayHeader, tt.array)
		}
		if l.ArrayLengthOffset != tt.length {
			t.Errorf("width %d: length offset = %d, want %d", tt.width, l.ArrayLengthOffset, tt.length)
		}
		if got := l.FallbackEntryStride(); got != tt.stride {
			t.Errorf("width %d: fallback stride = %d, want %d", tt.width, got, tt.stride)
		}
	}
}

func TestLayout_ValidateRejects(t *testing.T) {
	bad := []Layout{
		DefaultLayout(2),
		{PointerWidth: 8, ObjectHeader: 4, ArrayHeader: 32, ArrayLengthOffset: 24, MaxElements: 1},
		{PointerWidth: 8, ObjectHeader: 16, ArrayHeader: 16, ArrayLengthOffset: 24, MaxElements: 1},
		{PointerWidth: 8, ObjectHeader: 16, ArrayHeader: 32, ArrayLengthOffset: 24},
	}
	for i, l := range bad {
		if err := l.Validate(); err == nil {
			t.Errorf("case %d: expected error for %+v", i, l)
		}
	}
}
