// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package s3object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPath(t *testing.T) {
	cases := []struct {
		path    string
		wantOK  bool
		bucket  string
		name    string
	}{
		{path: "/bucket/some-id-before_Sample_file.pdf", wantOK: true, bucket: "bucket", name: "some-id-before_Sample_file.pdf"},
		{path: "/", wantOK: false},
		{path: "/bucket", wantOK: false},
		{path: "/bucket/key/more", wantOK: false},
		{path: "", wantOK: false},
	}

	for _, tc := range cases {
		obj, ok := ExtractPath(tc.path)
		assert.Equal(t, tc.wantOK, ok, "path %q", tc.path)
		if tc.wantOK {
			assert.Equal(t, tc.bucket, obj.Bucket)
			assert.Equal(t, tc.name, obj.Name)
		}
	}
}
