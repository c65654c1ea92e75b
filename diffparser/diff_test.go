package diffparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/src/a.rs b/src/a.rs
index 1111111..2222222 100644
--- a/src/a.rs
+++ b/src/a.rs
@@ -8,4 +8,5 @@ fn unrelated() {}
 fn foo() {
     let x = 1;
+    let y = 2;
     x
 }
`

func TestParse_SingleFile(t *testing.T) {
	changes, errs := Parse([]byte(sampleDiff))
	require.Empty(t, errs)
	require.Len(t, changes, 1)

	fc := changes[0]
	assert.Equal(t, "src/a.rs", fc.OldPath)
	assert.Equal(t, "src/a.rs", fc.NewPath)
	require.Len(t, fc.Hunks, 1)

	h := fc.Hunks[0]
	assert.Equal(t, []int{10}, h.AddedLines())
	assert.Empty(t, h.RemovedLines())
}

const renameDiff = `diff --git a/src/a.rs b/src/b.rs
similarity index 90%
rename from src/a.rs
rename to src/b.rs
index 1111111..2222222 100644
--- a/src/a.rs
+++ b/src/b.rs
@@ -1,2 +1,3 @@
 fn foo() {
+    let z = 1;
 }
`

func TestParse_Rename(t *testing.T) {
	changes, errs := Parse([]byte(renameDiff))
	require.Empty(t, errs)
	require.Len(t, changes, 1)
	assert.Equal(t, "src/a.rs", changes[0].OldPath)
	assert.Equal(t, "src/b.rs", changes[0].NewPath)
	assert.Equal(t, []int{2}, changes[0].Hunks[0].AddedLines())
}

const binaryDiff = `diff --git a/img.png b/img.png
index 1111111..2222222 100644
Binary files a/img.png and b/img.png differ
`

func TestParse_BinarySkipped(t *testing.T) {
	changes, errs := Parse([]byte(binaryDiff))
	require.Empty(t, errs)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Binary)
	assert.Empty(t, changes[0].Hunks)
}

func TestParse_MalformedFileContinues(t *testing.T) {
	bundle := sampleDiff + "\n" + `diff --git a/src/bad.rs b/src/bad.rs
index 1111111..2222222 100644
--- a/src/bad.rs
+++ b/src/bad.rs
@@ not a valid hunk header @@
garbage
`
	changes, errs := Parse([]byte(bundle))
	require.Len(t, changes, 1)
	assert.Equal(t, "src/a.rs", changes[0].NewPath)
	require.Len(t, errs, 1)
}

func TestParse_Empty(t *testing.T) {
	changes, errs := Parse([]byte(""))
	assert.Empty(t, changes)
	assert.Empty(t, errs)
}
