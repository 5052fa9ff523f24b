package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, "dir/video.wav", ReplaceExt("dir/video.mp4", ".wav"))
	assert.Equal(t, "dir/video.wav", ReplaceExt("dir/video.mp4", "wav"))
	assert.Equal(t, "video.json", ReplaceExt("video", "json"))
	assert.Equal(t, "", ReplaceExt("", ".wav"))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "lecture", BaseName("/records/lecture.mp4"))
	assert.Equal(t, "lecture", BaseName("lecture.MOV"))
	assert.Equal(t, "lecture", BaseName("lecture"))
}

func TestExt(t *testing.T) {
	assert.Equal(t, "mp4", Ext("/records/lecture.MP4"))
	assert.Equal(t, "mkv", Ext("a.b.mkv"))
	assert.Equal(t, "", Ext("noext"))
}
