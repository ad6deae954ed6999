package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArtifacts(t *testing.T) (*Artifacts, string) {
	t.Helper()
	root := t.TempDir()
	local, err := NewLocal(root)
	require.NoError(t, err)
	return NewArtifacts(local), root
}

func TestPathScheme(t *testing.T) {
	assert.Equal(t, "audio/CS_101/abc_my_talk.mp3", AudioKey("CS 101", "abc", "my talk.mp3"))
	assert.Equal(t, "outputs/CS_101/abc/transcript.json", OutputKey("CS 101", "abc", FileTranscriptJSON))
	assert.Equal(t, "audio/course/abc_passwd", AudioKey("..", "abc", "../../etc/passwd"))
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"MATH-201", "MATH-201"},
		{"  bio/chem  ", "bio_chem"},
		{"", "course"},
		{"...", "course"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeCourseCode(tt.in), tt.in)
	}
	assert.Equal(t, "lecture_1.wav", SanitizeFilename(`C:\rec\lecture 1.wav`))
	assert.Equal(t, "upload", SanitizeFilename(""))
}

func TestArtifactsRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, root := newTestArtifacts(t)

	p, err := a.WriteText(ctx, "CS101", "lec1", FileNotesShort, "- hello")
	require.NoError(t, err)
	assert.Equal(t, "outputs/CS101/lec1/notes_short.md", p)

	got, err := a.ReadText(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "- hello", got)

	_, err = os.Stat(filepath.Join(root, "outputs", "CS101", "lec1", "notes_short.md"))
	require.NoError(t, err)

	jp, err := a.WriteJSON(ctx, "CS101", "lec1", FileQuiz, map[string]int{"total": 3})
	require.NoError(t, err)
	var decoded map[string]int
	require.NoError(t, a.ReadJSON(ctx, jp, &decoded))
	assert.Equal(t, 3, decoded["total"])

	ok, err := a.Exists(ctx, jp)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Exists(ctx, "outputs/CS101/lec1/missing.json")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveAudio(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArtifacts(t)

	p, err := a.SaveAudio(ctx, "CS101", "lec1", "intro.wav", strings.NewReader("RIFF"), 4)
	require.NoError(t, err)
	assert.Equal(t, "audio/CS101/lec1_intro.wav", p)

	data, err := a.ReadBinary(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), data)
}

func TestReadMissingAndEscaping(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArtifacts(t)

	_, err := a.ReadText(ctx, "outputs/none/x.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = a.ReadText(ctx, "../outside.txt")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = a.PresignedURL(ctx, "outputs/none/x.txt")
	assert.ErrorIs(t, err, ErrPresignUnsupported)
}
