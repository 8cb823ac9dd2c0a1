package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Scanner discovers migration files.
type Scanner struct{}

// NewScanner returns a Scanner.
func NewScanner() Scanner {
	return Scanner{}
}

// Scan reads every .sql file in dir and returns the migrations ordered by version.
func (Scanner) Scan(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migration directory %s: %w", dir, err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		m, err := parseFileName(entry.Name())
		if err != nil {
			return nil, err
		}
		if other, ok := seen[m.Version]; ok {
			return nil, newError(m, "scan", fmt.Errorf("%w: also defined by %s", ErrDuplicateVersion, other))
		}
		seen[m.Version] = m.Name

		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, newError(m, "read", err)
		}
		m.SQL = string(content)
		m.Checksum = checksum(content)
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func parseFileName(name string) (Migration, error) {
	match := fileNamePattern.FindStringSubmatch(name)
	if match == nil {
		return Migration{}, &Error{Name: name, Operation: "parse file name", Err: ErrInvalidMigrationFile}
	}
	version, err := strconv.Atoi(match[1])
	if err != nil || version <= 0 {
		return Migration{}, &Error{Name: name, Operation: "parse version", Err: ErrInvalidMigrationFile}
	}
	return Migration{
		Version:     version,
		Description: strings.ReplaceAll(match[2], "_", " "),
		Name:        name,
	}, nil
}

func checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
