package processors

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/username/vendasbanco/src/logger"
)

// defaultProductMap maps normalized (trimmed, lower-cased) raw product names
// to canonical display names. Keys must already be normalized.
var defaultProductMap = map[string]string{
	"imersão evolution julho 2024":   "Imersão Evolution",
	"imersão evolution outubro 2024": "Imersão Evolution",
	"imersão evolution":              "Imersão Evolution",
	"ls club":                        "LS Club",
	"o poder do básico":              "O Poder do Básico",
	"mi liderança":                   "MI Liderança",
	"rota do conhecimento - ouro":    "Rota do Conhecimento",
	"rota do conhecimento":           "Rota do Conhecimento",
	"evolution online":               "Evolution Online",
}

var productMap = defaultProductMap

// LoadProductMap loads the canonicalization map from the specified file path,
// replacing the built-in defaults. An empty path keeps the defaults.
// This should be called once from main.go after config is loaded.
func LoadProductMap(filePath string) error {
	if filePath == "" {
		logger.L.Info("No product map path configured, using built-in defaults", "entries", len(defaultProductMap))
		return nil
	}
	logger.L.Info("Loading product canonicalization map", "path", filePath)
	file, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.L.Warn("Product map file not found, using built-in defaults", "path", filePath, "entries", len(defaultProductMap))
			return nil
		}
		logger.L.Error("Error reading product map file", "path", filePath, "error", err)
		return fmt.Errorf("error reading product map file '%s': %w", filePath, err)
	}

	loaded := make(map[string]string)
	if err := json.Unmarshal(file, &loaded); err != nil {
		logger.L.Error("Error unmarshalling product map", "path", filePath, "error", err)
		return fmt.Errorf("error unmarshalling product map from '%s': %w", filePath, err)
	}

	// Normalize keys so file content is forgiving about casing/whitespace.
	normalized := make(map[string]string, len(loaded))
	for k, v := range loaded {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	productMap = normalized
	logger.L.Info("Product canonicalization map loaded successfully.", "path", filePath, "entries", len(productMap))
	return nil
}

// CanonicalName returns the canonical product name for a raw product name.
// Lookup is by trimmed, lower-cased key; a name absent from the map falls
// back to the trimmed original with its casing preserved.
func CanonicalName(rawName string) string {
	trimmed := strings.TrimSpace(rawName)
	if canonical, ok := productMap[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// CanonicalProducts returns the distinct canonical names known to the map,
// sorted for stable report seeding.
func CanonicalProducts() []string {
	seen := make(map[string]bool)
	var names []string
	for _, canonical := range productMap {
		if !seen[canonical] {
			seen[canonical] = true
			names = append(names, canonical)
		}
	}
	sort.Strings(names)
	return names
}
