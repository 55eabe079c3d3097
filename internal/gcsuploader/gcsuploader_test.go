package gcsuploader

import (
	"testing"
)

func TestSplitGCSURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://ops-receipts/2024/06/r1.jpg", "ops-receipts", "2024/06/r1.jpg", false},
		{"gs://bucket/file.png", "bucket", "file.png", false},
		{"gs://bucket-only", "", "", true},
		{"gs://bucket/", "", "", true},
		{"https://example.com/file", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		bucket, object, err := splitGCSURI(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("splitGCSURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			continue
		}
		if bucket != tt.wantBucket || object != tt.wantObject {
			t.Errorf("splitGCSURI(%q) = (%q, %q), want (%q, %q)", tt.uri, bucket, object, tt.wantBucket, tt.wantObject)
		}
	}
}

func TestFilenameFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"gs://bucket/folder/receipt.jpg", "receipt.jpg"},
		{"gs://bucket/receipt.jpg", "receipt.jpg"},
		{"gs://bucket-only", "bucket-only"},
	}

	for _, tt := range tests {
		if got := FilenameFromURI(tt.uri); got != tt.want {
			t.Errorf("FilenameFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
