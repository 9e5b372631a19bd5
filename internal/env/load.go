package env

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads KEY=VALUE lines from path (e.g. ".env") into the process environment and
// returns the keys it set. Blank lines, # comments and an optional "export " prefix are
// handled; surrounding quotes are stripped. Variables already present in the environment
// win over the file. A missing file is not an error.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("env: %w", err)
	}
	defer f.Close()

	var set []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return set, fmt.Errorf("env: %s: %w", key, err)
		}
		set = append(set, key)
	}
	if err := scanner.Err(); err != nil {
		return set, fmt.Errorf("env: %w", err)
	}
	return set, nil
}

func parseLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, value, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 && (value[0] == '"' && value[len(value)-1] == '"' || value[0] == '\'' && value[len(value)-1] == '\'') {
		value = value[1 : len(value)-1]
	}
	return key, value, true
}
