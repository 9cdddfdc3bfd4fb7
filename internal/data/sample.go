package data

import (
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/tidwall/sjson"
)

// DefaultSampleSize is the number of files in the sample tree.
const DefaultSampleSize = 128

var (
	sampleDirs = []string{
		"bin", "boot", "dev", "etc", "home", "lib", "media", "mnt", "opt",
		"proc", "root", "run", "sbin", "srv", "sys", "tmp", "usr", "var",
		"local", "share", "include", "src", "log", "cache", "spool", "www",
		"user", "admin", "docs", "photos", "music", "projects", "backup",
	}
	sampleNames = []string{
		"index", "main", "readme", "config", "notes", "report", "invoice",
		"avatar", "backup", "session", "kernel", "driver", "module", "theme",
		"sample", "draft", "summary", "schedule", "archive", "profile",
	}
	sampleExts = []string{
		"txt", "json", "md", "png", "jpg", "mp3", "pdf", "html", "css",
		"js", "go", "conf", "log", "zip", "csv", "xml",
	}
)

// Sample builds a JSON document shaped like a file system: nested objects
// for directories and, for each of n files, a 64 digit hex string holding
// 32 random bytes. The same seed always yields the same document.
func Sample(n int, seed uint64) ([]byte, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	doc := []byte(`{}`)

	content := make([]byte, 32)
	for i := 0; i < n; i++ {
		path := samplePath(rng)
		for j := range content {
			content[j] = byte(rng.UintN(256))
		}

		var err error
		doc, err = sjson.SetBytes(doc, path, hex.EncodeToString(content))
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", path, err)
		}
	}
	return doc, nil
}

// samplePath returns an escaped sjson path of 1 to 4 directories and a
// file name. Directory names never carry an extension and file names
// always do, so a file never takes the place of a directory.
func samplePath(rng *rand.Rand) string {
	depth := 1 + rng.IntN(4)
	segs := make([]string, 0, depth+1)
	for range depth {
		segs = append(segs, sampleDirs[rng.IntN(len(sampleDirs))])
	}
	name := sampleNames[rng.IntN(len(sampleNames))] + "." + sampleExts[rng.IntN(len(sampleExts))]
	segs = append(segs, EscapeKey(name))
	return strings.Join(segs, ".")
}

// EscapeKey escapes the characters sjson and gjson treat as path syntax.
func EscapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
