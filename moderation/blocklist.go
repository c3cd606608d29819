package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed blocklist/*.txt
var embedded embed.FS

// Blocklist is a deduplicated word list with the languages it was read from.
type Blocklist struct {
	Words     []string
	Languages []string
}

// DefaultBlocklist reads the word lists shipped with the binary.
func DefaultBlocklist() (Blocklist, error) {
	return LoadBlocklist(embedded, "blocklist")
}

// LoadBlocklist reads every .txt file of dir, one word per line.
// The file name without extension is taken as the language code.
func LoadBlocklist(fsys fs.FS, dir string) (Blocklist, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return Blocklist{}, err
	}

	var list Blocklist
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
			continue
		}
		list.Languages = append(list.Languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return Blocklist{}, err
		}
		// Scanner copes with \r\n line endings.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" {
				continue
			}
			if _, ok := seen[word]; !ok {
				seen[word] = struct{}{}
				list.Words = append(list.Words, word)
			}
		}
		if err = scanner.Err(); err != nil {
			return Blocklist{}, err
		}
	}
	return list, nil
}

// With returns a copy extended by extra words, still deduplicated.
func (b Blocklist) With(extra ...string) Blocklist {
	words := slices.Clone(b.Words)
	for _, word := range extra {
		if word = strings.TrimSpace(word); word != "" && !slices.Contains(words, word) {
			words = append(words, word)
		}
	}
	return Blocklist{Words: words, Languages: slices.Clone(b.Languages)}
}
